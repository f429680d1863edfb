// Package notify sends transactional emails. Delivery is synchronous and
// never retried; callers treat a failure as a warning, not as an error.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/sirupsen/logrus"
)

// Template names a message kind.
type Template string

const (
	TemplateBookingApproved  Template = "booking_approved"
	TemplateBookingRejected  Template = "booking_rejected"
	TemplatePaymentConfirmed Template = "payment_confirmed"
	TemplateContract         Template = "contract"
	TemplateOwnerApproved    Template = "owner_approved"
	TemplateContact          Template = "contact"
)

// ErrNoRecipient is returned when the recipient has no email address.
var ErrNoRecipient = errors.New("notify: recipient has no email address")

// Recipient of a notification.
type Recipient struct {
	Name  string
	Email string
}

// Message is a rendered plain-text email.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Body    string
}

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier renders and delivers templated notifications.
type Notifier interface {
	Notify(ctx context.Context, tpl Template, to Recipient, data any) error
}

type entry struct {
	subject *template.Template
	body    *template.Template
}

// Mailer is the Notifier backed by a Transport.
type Mailer struct {
	transport Transport
	from      string
	templates map[Template]entry
}

func NewMailer(transport Transport, from string) *Mailer {
	m := &Mailer{transport: transport, from: from, templates: make(map[Template]entry)}
	for name, t := range builtin {
		m.templates[name] = entry{
			subject: template.Must(template.New(string(name) + "_subject").Parse(t.subject)),
			body:    template.Must(template.New(string(name)).Parse(t.body)),
		}
	}
	return m
}

// Render produces the message for tpl without sending it.
func (m *Mailer) Render(tpl Template, to Recipient, data any) (Message, error) {
	e, ok := m.templates[tpl]
	if !ok {
		return Message{}, fmt.Errorf("notify: unknown template %q", tpl)
	}
	view := struct {
		To   Recipient
		Data any
	}{to, data}
	var subject, body bytes.Buffer
	if err := e.subject.Execute(&subject, view); err != nil {
		return Message{}, fmt.Errorf("notify: render %s subject: %w", tpl, err)
	}
	if err := e.body.Execute(&body, view); err != nil {
		return Message{}, fmt.Errorf("notify: render %s: %w", tpl, err)
	}
	return Message{
		From:    m.from,
		To:      []string{to.Email},
		Subject: strings.TrimSpace(subject.String()),
		Body:    body.String(),
	}, nil
}

func (m *Mailer) Notify(ctx context.Context, tpl Template, to Recipient, data any) error {
	if strings.TrimSpace(to.Email) == "" {
		return ErrNoRecipient
	}
	msg, err := m.Render(tpl, to, data)
	if err != nil {
		return err
	}
	return m.transport.Send(ctx, msg)
}

// Send delivers an already composed message through the mailer's transport.
// Used for free-form mail such as the contact form.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = m.from
	}
	if len(msg.To) == 0 {
		return ErrNoRecipient
	}
	return m.transport.Send(ctx, msg)
}

// LogTransport writes messages to the log instead of delivering them (dev setups).
type LogTransport struct {
	Log logrus.FieldLogger
}

func (t LogTransport) Send(_ context.Context, msg Message) error {
	t.Log.WithFields(logrus.Fields{
		"to":      strings.Join(msg.To, ","),
		"subject": msg.Subject,
	}).Info("email (not delivered, SMTP disabled)\n" + msg.Body)
	return nil
}

// Warning is the user-facing text for a failed best-effort notification.
const Warning = "The action succeeded but the notification email could not be sent."
