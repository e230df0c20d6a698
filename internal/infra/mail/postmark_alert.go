package mail

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ordering/internal/domain/model"
	"ordering/internal/usecase"

	"github.com/keighl/postmark"
)

// PostmarkAlertMailer は新規注文を店舗スタッフにメールで知らせる。
type PostmarkAlertMailer struct {
	client *postmark.Client
	from   string
	to     string
}

// postmark.NewClient の既定 http.Client はタイムアウトなし
const defaultSendTimeout = 10 * time.Second

func NewPostmarkAlertMailer(serverToken, from, to string) *PostmarkAlertMailer {
	client := postmark.NewClient(serverToken, "")
	client.HTTPClient = &http.Client{Timeout: defaultSendTimeout}
	return &PostmarkAlertMailer{
		client: client,
		from:   from,
		to:     to,
	}
}

// テスト用に送信先を差し替える
func (m *PostmarkAlertMailer) WithBaseURL(url string) *PostmarkAlertMailer {
	m.client.BaseURL = strings.TrimSuffix(url, "/")
	return m
}

func (m *PostmarkAlertMailer) WithSendTimeout(d time.Duration) *PostmarkAlertMailer {
	m.client.HTTPClient.Timeout = d
	return m
}

// SendNewOrderAlert は ctx が終わるかHTTPタイムアウトまで待つ。
// postmark クライアントは ctx を受けないので、送信は別goroutineで走らせる。
func (m *PostmarkAlertMailer) SendNewOrderAlert(ctx context.Context, order model.Order, items []model.OrderItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	email := postmark.Email{
		From:     m.from,
		To:       m.to,
		Subject:  fmt.Sprintf("New Order #%d", order.ID),
		Tag:      "new-order",
		TextBody: renderAlertBody(order, items),
	}

	done := make(chan error, 1)
	go func() {
		_, err := m.client.SendEmail(email)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func renderAlertBody(order model.Order, items []model.OrderItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Customer: %s <%s>\n", order.CustomerName, order.CustomerEmail)
	if order.CustomerPhone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", order.CustomerPhone)
	}
	fmt.Fprintf(&b, "Type: %s\n", order.OrderType)
	if order.OrderType == model.OrderTypeDelivery && order.DeliveryAddress != "" {
		fmt.Fprintf(&b, "Address: %s\n", order.DeliveryAddress)
	}
	b.WriteString("\n")
	for _, it := range items {
		fmt.Fprintf(&b, "%d x %s  $%s\n", it.Quantity, it.NameSnapshot, it.UnitPriceSnapshot.StringFixed(2))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal: $%s\n", order.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Tax: $%s\n", order.Tax.StringFixed(2))
	fmt.Fprintf(&b, "Delivery fee: $%s\n", order.DeliveryFee.StringFixed(2))
	fmt.Fprintf(&b, "Total: $%s\n", order.Total.StringFixed(2))
	if order.SpecialInstructions != "" {
		fmt.Fprintf(&b, "\nInstructions: %s\n", order.SpecialInstructions)
	}
	return b.String()
}

var _ usecase.OrderMailer = (*PostmarkAlertMailer)(nil)
