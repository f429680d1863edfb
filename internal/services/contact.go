package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-rentals/internal/apperrors"
	"github.com/diewo77/go-rentals/internal/notify"
	"github.com/diewo77/go-rentals/validation"
)

// ContactInput is the public contact form.
type ContactInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// ContactService forwards contact form messages to the company mailbox.
type ContactService struct {
	notifier notify.Notifier
	to       string
	log      logrus.FieldLogger
}

func NewContactService(notifier notify.Notifier, to string, log logrus.FieldLogger) *ContactService {
	return &ContactService{notifier: notifier, to: to, log: log}
}

// Send delivers the message. Unlike lifecycle emails, a delivery failure is
// the outcome of this operation and is returned to the caller.
func (s *ContactService) Send(ctx context.Context, in ContactInput) error {
	trim(&in.Name, &in.Email, &in.Subject, &in.Message)
	if v := validation.Struct(in); !v.Empty() {
		return apperrors.Validation("Please fill in all fields.", v)
	}
	err := s.notifier.Notify(ctx, notify.TemplateContact,
		notify.Recipient{Name: "Royal Cars", Email: s.to},
		notify.ContactData{Name: in.Name, Email: in.Email, Subject: in.Subject, Message: in.Message})
	if err != nil {
		s.log.WithError(err).Error("contact message not delivered")
		return apperrors.Notification("Failed to send message", err)
	}
	s.log.WithField("from", in.Email).Info("contact message sent")
	return nil
}
