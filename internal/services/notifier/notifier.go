// Package notifier реализует отправку транзакционных писем: чеки о
// продажах, PDF-отчеты по складу и отладочные письма. Отправка
// повторяется ограниченное число раз, после исчерпания повторов ошибка
// отдается вызывающему - доставка почты не является best-effort.
package notifier

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/magabrotheeeer/inventory-billing/internal/lib/pdf"
	"github.com/magabrotheeeer/inventory-billing/internal/lib/sl"
	"github.com/magabrotheeeer/inventory-billing/internal/lib/smtp"
	"github.com/magabrotheeeer/inventory-billing/internal/metrics"
	"github.com/magabrotheeeer/inventory-billing/internal/models"
)

// ErrNotificationsDisabled пользователь отключил почтовые уведомления.
// Не является сбоем доставки: вызывающий отвечает успехом с пометкой.
var ErrNotificationsDisabled = errors.New("email notifications disabled for user")

// Transport описывает SMTP транспорт.
type Transport interface {
	Connect() (smtp.Client, error)
	GetSMTPUser() string
}

// PDFGenerator описывает генератор PDF-отчетов.
type PDFGenerator interface {
	Generate(data pdf.ReportData) ([]byte, error)
}

// Attachment вложение письма.
type Attachment struct {
	Name string
	Data []byte
}

// Message письмо, полностью собранное вызывающим.
type Message struct {
	To         string
	Subject    string
	Body       string
	Attachment *Attachment
}

// SaleEvent данные о продаже для чека.
type SaleEvent struct {
	SaleID       string  `json:"sale_id" validate:"required"`
	ItemName     string  `json:"item_name" validate:"required"`
	Quantity     int     `json:"quantity" validate:"required,min=1"`
	TotalAmount  float64 `json:"total_amount" validate:"required"`
	Currency     string  `json:"currency"`
	CustomerName string  `json:"customer_name"`
}

// Service отправляет письма через SMTP транспорт с повторами.
type Service struct {
	transport  Transport
	pdfGen     PDFGenerator
	log        *slog.Logger
	maxRetries uint64
}

// New создает новый Service.
func New(transport Transport, pdfGen PDFGenerator, maxRetries int, log *slog.Logger) *Service {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Service{
		transport:  transport,
		pdfGen:     pdfGen,
		log:        log,
		maxRetries: uint64(maxRetries),
	}
}

// SendSaleReceipt отправляет чек о продаже, если пользователь не
// отключил почтовые уведомления.
func (s *Service) SendSaleReceipt(user *models.User, sale SaleEvent) error {
	if !user.Settings.EmailNotifications {
		s.log.Info("email notifications disabled, skipping sale receipt",
			slog.String("user_uid", user.UID))
		return ErrNotificationsDisabled
	}

	currency := sale.Currency
	if currency == "" {
		currency = "NGN"
	}
	body := fmt.Sprintf(
		"Hello %s,\n\nA sale has been recorded in your inventory.\n\n"+
			"Sale ID: %s\nItem: %s\nQuantity: %d\nTotal: %.2f %s\n",
		user.Username, sale.SaleID, sale.ItemName, sale.Quantity, sale.TotalAmount, currency)
	if sale.CustomerName != "" {
		body += fmt.Sprintf("Customer: %s\n", sale.CustomerName)
	}

	if err := s.Send(Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Sale receipt %s", sale.SaleID),
		Body:    body,
	}); err != nil {
		return err
	}
	metrics.EmailsSent.WithLabelValues("sale_receipt").Inc()
	return nil
}

// SendInventoryReport генерирует PDF-отчет и отправляет его вложением.
// Отчеты подчиняются отдельной настройке inventory_alerts.
func (s *Service) SendInventoryReport(user *models.User, data pdf.ReportData) error {
	if !user.Settings.EmailNotifications || !user.Settings.InventoryAlerts {
		s.log.Info("inventory alerts disabled, skipping report",
			slog.String("user_uid", user.UID))
		return ErrNotificationsDisabled
	}

	doc, err := s.pdfGen.Generate(data)
	if err != nil {
		return fmt.Errorf("failed to generate report pdf: %w", err)
	}

	if err := s.Send(Message{
		To:      user.Email,
		Subject: data.Title,
		Body: fmt.Sprintf("Hello %s,\n\nYour inventory report %q is attached.\n",
			user.Username, data.Title),
		Attachment: &Attachment{Name: "report.pdf", Data: doc},
	}); err != nil {
		return err
	}
	metrics.EmailsSent.WithLabelValues("inventory_report").Inc()
	return nil
}

// SendPing отправляет отладочное письмо на адрес пользователя.
// Настройки уведомлений не проверяются намеренно: ping используется
// для диагностики почтового транспорта.
func (s *Service) SendPing(user *models.User) error {
	if err := s.Send(Message{
		To:      user.Email,
		Subject: "Debug ping",
		Body:    fmt.Sprintf("Hello %s,\n\nThis is a debug ping sent at %s.\n", user.Username, time.Now().Format(time.RFC1123)),
	}); err != nil {
		return err
	}
	metrics.EmailsSent.WithLabelValues("ping").Inc()
	return nil
}

// Send отправляет письмо с ограниченным числом повторов. Ошибка после
// исчерпания повторов возвращается вызывающему как жесткий сбой.
func (s *Service) Send(msg Message) error {
	const op = "notifier.Send"

	raw, err := s.buildMessage(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	operation := func() error {
		if err := s.sendOnce(msg.To, raw); err != nil {
			s.log.Warn("email send attempt failed", slog.String("to", msg.To), sl.Err(err))
			return err
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxElapsedTime = 0

	if err := backoff.Retry(operation, backoff.WithMaxRetries(bo, s.maxRetries)); err != nil {
		metrics.EmailSendFailures.Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("email sent successfully", slog.String("to", msg.To), slog.String("subject", msg.Subject))
	return nil
}

func (s *Service) sendOnce(to string, raw []byte) error {
	client, err := s.transport.Connect()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	wc, err := client.Data()
	if err != nil {
		return err
	}
	if _, err = wc.Write(raw); err != nil {
		return err
	}
	if err = wc.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// buildMessage собирает RFC822 сообщение; при наличии вложения -
// multipart/mixed с base64-кодированием.
func (s *Service) buildMessage(msg Message) ([]byte, error) {
	headers := []string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + msg.To,
		"Subject: " + msg.Subject,
		"MIME-Version: 1.0",
	}

	if msg.Attachment == nil {
		all := append(headers,
			"Content-Type: text/plain; charset=\"UTF-8\"",
			"",
			msg.Body,
		)
		return []byte(strings.Join(all, "\r\n")), nil
	}

	var sb strings.Builder
	mw := multipart.NewWriter(&sb)

	headers = append(headers, "Content-Type: multipart/mixed; boundary="+mw.Boundary(), "")
	sb2 := strings.Join(headers, "\r\n") + "\r\n"

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=\"UTF-8\""},
	})
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}

	attPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"application/pdf; name=\"" + msg.Attachment.Name + "\""},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {"attachment; filename=\"" + msg.Attachment.Name + "\""},
	})
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(msg.Attachment.Data)
	if _, err := attPart.Write([]byte(encoded)); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	return []byte(sb2 + sb.String()), nil
}
