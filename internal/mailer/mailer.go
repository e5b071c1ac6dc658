// Package mailer sends transactional email for order events.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
)

// OrderConfirmation carries everything the confirmation template needs.
type OrderConfirmation struct {
	Code          string
	CustomerName  string
	CustomerEmail string
	PickupDate    string
	PickupSlot    string
	TotalHuf      int64
	DiscountHuf   int64
	Lines         []ConfirmationLine
}

type ConfirmationLine struct {
	Name     string
	Quantity int32
	TotalHuf int64
}

// Mailer sends order notifications. Implementations must be safe for
// concurrent use.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, conf OrderConfirmation) error
}

// SMTP sends mail through a real SMTP server via go-mail.
type SMTP struct {
	client     *mail.Client
	from       string
	adminEmail string
}

// NewSMTP dials nothing up front; the client connects per send.
func NewSMTP(host string, port int, username, password, from, adminEmail string) (*SMTP, error) {
	opts := []mail.Option{mail.WithPort(port)}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTP{client: client, from: from, adminEmail: adminEmail}, nil
}

func (s *SMTP) SendOrderConfirmation(ctx context.Context, conf OrderConfirmation) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(conf.CustomerEmail); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	if s.adminEmail != "" {
		if err := msg.Bcc(s.adminEmail); err != nil {
			return fmt.Errorf("set bcc: %w", err)
		}
	}
	msg.Subject(fmt.Sprintf("Rendelés visszaigazolás %s", conf.Code))
	msg.SetBodyString(mail.TypeTextPlain, confirmationBody(conf))

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	return nil
}

func confirmationBody(conf OrderConfirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Kedves %s!\n\n", conf.CustomerName)
	fmt.Fprintf(&b, "Rendelésedet rögzítettük, kódja: %s\n", conf.Code)
	fmt.Fprintf(&b, "Átvétel: %s %s\n\n", conf.PickupDate, conf.PickupSlot)
	for _, line := range conf.Lines {
		fmt.Fprintf(&b, "  %dx %s  %d Ft\n", line.Quantity, line.Name, line.TotalHuf)
	}
	if conf.DiscountHuf > 0 {
		fmt.Fprintf(&b, "\nKedvezmény: -%d Ft\n", conf.DiscountHuf)
	}
	fmt.Fprintf(&b, "\nFizetendő: %d Ft\n", conf.TotalHuf)
	b.WriteString("\nKöszönjük, hogy nálunk rendeltél!\nKiscsibe Étkezde\n")
	return b.String()
}

// Nop discards every message. Used when SMTP is not configured.
type Nop struct{}

func (Nop) SendOrderConfirmation(context.Context, OrderConfirmation) error { return nil }
