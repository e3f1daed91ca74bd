package rabbitmq

// Exchange имя обменника платежного контура.
const Exchange = "billing"

// Имена очередей и ключи маршрутизации.
const (
	VerifyQueue      = "payments.verify"
	VerifyRoutingKey = "verify"
)

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetBillingQueues возвращает очереди платежного контура. Webhook
// подтверждается немедленно, а верификация выполняется воркером из
// этой очереди со своим циклом повторов.
func GetBillingQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: VerifyQueue, RoutingKey: VerifyRoutingKey},
	}
}
