package rabbitmq

import (
	"github.com/streadway/amqp"

	rabbitmqlib "github.com/magabrotheeeer/inventory-billing/internal/lib/rabbitmq"
)

// VerifyTask задание на верификацию платежа для воркера.
type VerifyTask struct {
	Reference string `json:"reference"`
}

// VerifyPublisher публикует задания верификации в очередь платежного
// контура.
type VerifyPublisher struct {
	ch *amqp.Channel
}

// NewVerifyPublisher создает новый VerifyPublisher.
func NewVerifyPublisher(ch *amqp.Channel) *VerifyPublisher {
	return &VerifyPublisher{ch: ch}
}

// EnqueueVerification ставит ссылку платежа в очередь верификации.
func (p *VerifyPublisher) EnqueueVerification(reference string) error {
	return rabbitmqlib.PublishMessage(p.ch, Exchange, VerifyRoutingKey, VerifyTask{Reference: reference})
}
