package notifier

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/inventory-billing/internal/lib/pdf"
	"github.com/magabrotheeeer/inventory-billing/internal/lib/smtp"
	"github.com/magabrotheeeer/inventory-billing/internal/models"
)

type fakeWriteCloser struct {
	buf *bytes.Buffer
}

func (f *fakeWriteCloser) Write(p []byte) (int, error) { return f.buf.Write(p) }
func (f *fakeWriteCloser) Close() error                { return nil }

type fakeClient struct {
	from string
	to   string
	body bytes.Buffer
	quit bool
}

func (c *fakeClient) Mail(from string) error { c.from = from; return nil }
func (c *fakeClient) Rcpt(to string) error   { c.to = to; return nil }
func (c *fakeClient) Data() (io.WriteCloser, error) {
	return &fakeWriteCloser{buf: &c.body}, nil
}
func (c *fakeClient) Quit() error  { c.quit = true; return nil }
func (c *fakeClient) Close() error { return nil }

// fakeTransport отдает заранее заданные ошибки соединения, затем
// рабочий клиент.
type fakeTransport struct {
	connectErrs []error
	attempts    int
	lastClient  *fakeClient
}

func (t *fakeTransport) Connect() (smtp.Client, error) {
	t.attempts++
	if len(t.connectErrs) > 0 {
		err := t.connectErrs[0]
		t.connectErrs = t.connectErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	t.lastClient = &fakeClient{}
	return t.lastClient, nil
}

func (t *fakeTransport) GetSMTPUser() string { return "billing@example.com" }

type stubPDF struct {
	doc []byte
	err error
}

func (s *stubPDF) Generate(_ pdf.ReportData) ([]byte, error) { return s.doc, s.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testUser() *models.User {
	return &models.User{
		UID:      "user-1",
		Email:    "owner@example.com",
		Username: "owner",
		Settings: models.NotificationSettings{
			EmailNotifications: true,
			InventoryAlerts:    true,
		},
	}
}

func TestSendSaleReceiptDeliversToUser(t *testing.T) {
	transport := &fakeTransport{}
	svc := New(transport, &stubPDF{}, 0, discardLogger())

	err := svc.SendSaleReceipt(testUser(), SaleEvent{
		SaleID:      "sale-42",
		ItemName:    "Engine oil 5W-30",
		Quantity:    3,
		TotalAmount: 13500,
		Currency:    "NGN",
	})
	require.NoError(t, err)

	require.NotNil(t, transport.lastClient)
	assert.Equal(t, "billing@example.com", transport.lastClient.from)
	assert.Equal(t, "owner@example.com", transport.lastClient.to)
	assert.True(t, transport.lastClient.quit)

	raw := transport.lastClient.body.String()
	assert.Contains(t, raw, "Subject: Sale receipt sale-42")
	assert.Contains(t, raw, "Engine oil 5W-30")
	assert.Contains(t, raw, "13500.00 NGN")
}

func TestSendSaleReceiptSkipsWhenNotificationsDisabled(t *testing.T) {
	transport := &fakeTransport{}
	svc := New(transport, &stubPDF{}, 0, discardLogger())

	user := testUser()
	user.Settings.EmailNotifications = false

	err := svc.SendSaleReceipt(user, SaleEvent{SaleID: "sale-1", ItemName: "Bolt", Quantity: 1, TotalAmount: 100})
	require.ErrorIs(t, err, ErrNotificationsDisabled)
	assert.Zero(t, transport.attempts, "no SMTP connection should be made")
}

func TestSendInventoryReportAttachesPDF(t *testing.T) {
	transport := &fakeTransport{}
	svc := New(transport, &stubPDF{doc: []byte("%PDF-1.4 fake")}, 0, discardLogger())

	err := svc.SendInventoryReport(testUser(), pdf.ReportData{
		Title:    "Weekly inventory report",
		Currency: "NGN",
		Rows:     []pdf.ReportRow{{ItemName: "Bolt", Sold: 10, Revenue: 1000}},
	})
	require.NoError(t, err)

	raw := transport.lastClient.body.String()
	assert.Contains(t, raw, "multipart/mixed")
	assert.Contains(t, raw, `filename="report.pdf"`)
	assert.Contains(t, raw, "Content-Transfer-Encoding: base64")
	// base64("%PDF") == "JVBERg" prefix
	assert.Contains(t, raw, "JVBERi0xLjQgZmFrZQ==")
}

func TestSendInventoryReportRespectsAlertSetting(t *testing.T) {
	transport := &fakeTransport{}
	svc := New(transport, &stubPDF{doc: []byte("x")}, 0, discardLogger())

	user := testUser()
	user.Settings.InventoryAlerts = false

	err := svc.SendInventoryReport(user, pdf.ReportData{Title: "r", Rows: []pdf.ReportRow{{ItemName: "a"}}})
	require.ErrorIs(t, err, ErrNotificationsDisabled)
	assert.Zero(t, transport.attempts)
}

func TestSendRetriesTransientConnectFailure(t *testing.T) {
	transport := &fakeTransport{
		connectErrs: []error{errors.New("connection refused")},
	}
	svc := New(transport, &stubPDF{}, 1, discardLogger())

	err := svc.Send(Message{To: "owner@example.com", Subject: "hi", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 2, transport.attempts)
}

func TestSendFailsHardAfterRetriesExhausted(t *testing.T) {
	transport := &fakeTransport{
		connectErrs: []error{
			errors.New("connection refused"),
			errors.New("connection refused"),
		},
	}
	svc := New(transport, &stubPDF{}, 1, discardLogger())

	err := svc.Send(Message{To: "owner@example.com", Subject: "hi", Body: "hello"})
	require.Error(t, err)
	assert.Equal(t, 2, transport.attempts)
	assert.True(t, strings.Contains(err.Error(), "connection refused"))
}

func TestSendPingIgnoresNotificationSettings(t *testing.T) {
	transport := &fakeTransport{}
	svc := New(transport, &stubPDF{}, 0, discardLogger())

	user := testUser()
	user.Settings.EmailNotifications = false

	err := svc.SendPing(user)
	require.NoError(t, err)
	assert.Equal(t, 1, transport.attempts)
	assert.Contains(t, transport.lastClient.body.String(), "Subject: Debug ping")
}
