package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/apperrors"
	"github.com/diewo77/go-rentals/internal/contract"
	appdb "github.com/diewo77/go-rentals/internal/db"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/notify"
)

// ContractResult is a generated agreement.
type ContractResult struct {
	Snapshot contract.Snapshot
	Text     string
	// Warning is set when the agreement could not be emailed.
	Warning string
}

// ContractService is the contract generator.
type ContractService struct {
	db       *gorm.DB
	notifier notify.Notifier
	log      logrus.FieldLogger
	now      Clock
}

func NewContractService(db *gorm.DB, notifier notify.Notifier, log logrus.FieldLogger) *ContractService {
	return &ContractService{db: db, notifier: notifier, log: log, now: time.Now}
}

func (s *ContractService) WithClock(now Clock) *ContractService {
	s.now = now
	return s
}

// Snapshot captures the agreement data of one of the actor's bookings.
func (s *ContractService) Snapshot(ctx context.Context, bookingID uint, actor *models.User) (contract.Snapshot, *models.Booking, error) {
	if actor == nil {
		return contract.Snapshot{}, nil, apperrors.NotFound(msgBookingNotFound)
	}
	var b models.Booking
	err := s.db.WithContext(ctx).
		Preload("Car", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Car.Owner").Preload("User").
		Where("id = ? AND user_id = ?", bookingID, actor.ID).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return contract.Snapshot{}, nil, apperrors.NotFound(msgBookingNotFound)
		}
		return contract.Snapshot{}, nil, appdb.Classify(err)
	}

	snap := contract.Snapshot{
		BookingID:      b.ID,
		GeneratedOn:    today(s.now).String(),
		RenterName:     actor.DisplayName(),
		RenterEmail:    actor.Email,
		PickupLocation: b.PickupLocation,
		DropLocation:   b.DropLocation,
		PickupDate:     b.PickupDate.String(),
		PickupTime:     b.PickupTime,
		ReturnDate:     b.ReturnDate.String(),
		ReturnTime:     b.ReturnTime,
		Status:         string(b.Status),
	}
	if b.Car != nil {
		snap.CarName = b.Car.Name
		snap.CarYear = b.Car.Year
		snap.Transmission = b.Car.Transmission.Label()
		snap.Price = b.Car.PriceString()
		if b.Car.Owner != nil {
			snap.CompanyName = b.Car.Owner.CompanyName
		}
	}
	return snap, &b, nil
}

// Generate renders the agreement and emails it to the renter (best effort).
func (s *ContractService) Generate(ctx context.Context, bookingID uint, actor *models.User) (*ContractResult, error) {
	snap, b, err := s.Snapshot(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}
	text := contract.Text(snap)
	res := &ContractResult{Snapshot: snap, Text: text}
	res.Warning = deliver(ctx, s.notifier, s.log, notify.TemplateContract, b.User, notify.ContractData{Text: text})

	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"user_id":    actor.ID,
		"emailed":    res.Warning == "",
	}).Info("contract generated")
	return res, nil
}

// PDF renders the agreement of one of the actor's bookings as PDF.
func (s *ContractService) PDF(ctx context.Context, bookingID uint, actor *models.User) ([]byte, error) {
	snap, _, err := s.Snapshot(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}
	data, err := contract.PDF(snap)
	if err != nil {
		return nil, apperrors.Internal("render contract", err)
	}
	return data, nil
}
