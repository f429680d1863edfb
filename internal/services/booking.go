package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/go-rentals/internal/apperrors"
	appdb "github.com/diewo77/go-rentals/internal/db"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/notify"
	"github.com/diewo77/go-rentals/internal/payment"
	"github.com/diewo77/go-rentals/validation"
)

const (
	msgBookingNotFound = "Booking not found"
	msgCarBooked       = "Car already booked for these dates"
	msgInvalidBooking  = "Please fill all required fields."
	msgPaymentNotFound = "Payment not found or already handled"
)

// CreateBookingRequest is the input of a booking request.
type CreateBookingRequest struct {
	CarID          uint   `json:"car" validate:"required"`
	PickupLocation string `json:"pickup_location" validate:"required,max=200"`
	DropLocation   string `json:"drop_location" validate:"required,max=200"`
	PickupDate     string `json:"pickup_date" validate:"required,datetime=2006-01-02"`
	PickupTime     string `json:"pickup_time" validate:"required,datetime=15:04"`
	ReturnDate     string `json:"return_date" validate:"required,datetime=2006-01-02"`
	ReturnTime     string `json:"return_time" validate:"required,datetime=15:04"`
	SpecialRequest string `json:"special_request" validate:"max=2000"`
}

// PaymentCallback carries what the gateway redirect brings back.
type PaymentCallback struct {
	SessionID string
	Token     string
}

// Result of a state-changing booking operation.
type Result struct {
	Booking *models.Booking
	// Changed is false when the booking already was in the requested state.
	Changed bool
	// Warning is set when the follow-up notification could not be delivered.
	Warning string
}

// BookingConfig holds the settings the lifecycle engine needs from config.
type BookingConfig struct {
	BaseURL  string
	Currency string
}

// BookingService is the booking lifecycle engine.
type BookingService struct {
	db       *gorm.DB
	notifier notify.Notifier
	gateway  payment.Gateway
	tokens   *payment.TokenCodec
	log      logrus.FieldLogger
	cfg      BookingConfig
	now      Clock
}

func NewBookingService(db *gorm.DB, notifier notify.Notifier, gateway payment.Gateway, tokens *payment.TokenCodec, log logrus.FieldLogger, cfg BookingConfig) *BookingService {
	return &BookingService{
		db:       db,
		notifier: notifier,
		gateway:  gateway,
		tokens:   tokens,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for "today".
func (s *BookingService) WithClock(now Clock) *BookingService {
	s.now = now
	return s
}

// Create registers a pending booking after checking that the car's dates are free.
func (s *BookingService) Create(ctx context.Context, actor *models.User, req CreateBookingRequest) (*models.Booking, error) {
	if actor == nil {
		return nil, apperrors.New(apperrors.KindUnauthenticated, "Please log in to book a car")
	}
	if actor.IsOwner() {
		return nil, apperrors.Forbidden("Owners cannot book cars")
	}

	trim(&req.PickupLocation, &req.DropLocation, &req.PickupDate, &req.PickupTime,
		&req.ReturnDate, &req.ReturnTime, &req.SpecialRequest)
	if v := validation.Struct(req); !v.Empty() {
		return nil, apperrors.Validation(msgInvalidBooking, v)
	}
	pickup, err := models.ParseDate(req.PickupDate)
	if err != nil {
		return nil, apperrors.Validation(msgInvalidBooking, map[string]string{"pickup_date": "invalid_format"})
	}
	ret, err := models.ParseDate(req.ReturnDate)
	if err != nil {
		return nil, apperrors.Validation(msgInvalidBooking, map[string]string{"return_date": "invalid_format"})
	}

	v := validation.Violations{}
	if pickup.Before(today(s.now)) {
		v.Add("pickup_date", "in_past")
	}
	if ret.Before(pickup) {
		v.Add("return_date", "before_pickup")
	}
	if !v.Empty() {
		return nil, apperrors.Validation("Invalid rental period", v)
	}

	booking := &models.Booking{
		UserID:         actor.ID,
		CarID:          req.CarID,
		PickupLocation: req.PickupLocation,
		DropLocation:   req.DropLocation,
		PickupDate:     pickup,
		PickupTime:     req.PickupTime,
		ReturnDate:     ret,
		ReturnTime:     req.ReturnTime,
		SpecialRequest: req.SpecialRequest,
		Status:         models.BookingPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The car row lock serializes creations for the same car.
		var car models.Car
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&car, req.CarID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Car not found")
			}
			return err
		}

		var clashes int64
		if err := tx.Model(&models.Booking{}).
			Where("car_id = ? AND status IN ?", car.ID, models.ActiveStatuses).
			Where("pickup_date < ? AND return_date > ?", ret, pickup).
			Count(&clashes).Error; err != nil {
			return err
		}
		if clashes > 0 {
			return apperrors.Conflict(msgCarBooked)
		}
		return tx.Create(booking).Error
	})
	if err != nil {
		err = appdb.Classify(err)
		if apperrors.Is(err, apperrors.KindConflict) {
			// serialization failures are reported like a visible clash
			err = apperrors.Conflict(msgCarBooked)
		}
		s.log.WithFields(logrus.Fields{
			"car_id":  req.CarID,
			"user_id": actor.ID,
			"kind":    apperrors.KindOf(err),
		}).WithError(err).Info("booking refused")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"car_id":     booking.CarID,
		"user_id":    actor.ID,
		"pickup":     booking.PickupDate.String(),
		"return":     booking.ReturnDate.String(),
	}).Info("booking created")
	return booking, nil
}

// Approve moves a pending booking of one of the actor's cars to approved.
func (s *BookingService) Approve(ctx context.Context, bookingID uint, actor *models.User) (*Result, error) {
	return s.ownerDecision(ctx, bookingID, actor, models.BookingApproved)
}

// Reject moves a pending booking of one of the actor's cars to rejected.
func (s *BookingService) Reject(ctx context.Context, bookingID uint, actor *models.User) (*Result, error) {
	return s.ownerDecision(ctx, bookingID, actor, models.BookingRejected)
}

func (s *BookingService) ownerDecision(ctx context.Context, bookingID uint, actor *models.User, target models.BookingStatus) (*Result, error) {
	if actor == nil {
		return nil, apperrors.NotFound(msgBookingNotFound)
	}
	db := s.db.WithContext(ctx)
	ownedCars := db.Model(&models.Car{}).Select("id").Where("owner_id = ?", actor.ID)

	var b models.Booking
	err := db.Preload("Car").Preload("User").
		Where("id = ? AND car_id IN (?)", bookingID, ownedCars).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgBookingNotFound)
		}
		return nil, appdb.Classify(err)
	}
	return s.apply(ctx, &b, target, actor.ID)
}

// AdminSetStatus changes a booking's status on behalf of an administrator,
// through the same lifecycle rules and notifications as the owner actions.
func (s *BookingService) AdminSetStatus(ctx context.Context, bookingID uint, status string, actor *models.User) (*Result, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Administrator access required")
	}
	target, ok := models.ParseBookingStatus(status)
	if !ok {
		return nil, apperrors.Validation("Unknown booking status", map[string]string{"status": "invalid_choice"})
	}
	var b models.Booking
	if err := s.db.WithContext(ctx).Preload("Car").Preload("User").First(&b, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgBookingNotFound)
		}
		return nil, appdb.Classify(err)
	}
	return s.apply(ctx, &b, target, actor.ID)
}

// apply performs a lifecycle transition and its notification.
func (s *BookingService) apply(ctx context.Context, b *models.Booking, target models.BookingStatus, actorID uint) (*Result, error) {
	from := b.Status
	changed, err := s.transition(ctx, s.db.WithContext(ctx), b, target)
	if err != nil {
		return nil, err
	}
	res := &Result{Booking: b, Changed: changed}
	if !changed {
		return res, nil
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"actor_id":   actorID,
		"from":       from,
		"to":         target,
	}).Info("booking status changed")

	switch target {
	case models.BookingApproved:
		res.Warning = deliver(ctx, s.notifier, s.log, notify.TemplateBookingApproved, b.User, bookingData(b))
	case models.BookingRejected:
		res.Warning = deliver(ctx, s.notifier, s.log, notify.TemplateBookingRejected, b.User, bookingData(b))
	case models.BookingPaid:
		res.Warning = deliver(ctx, s.notifier, s.log, notify.TemplatePaymentConfirmed, b.User, bookingData(b))
	}
	return res, nil
}

// transition is a compare-and-set on the status column. Re-applying the
// current status is a no-op; a lost race is reported as InvalidState.
func (s *BookingService) transition(ctx context.Context, tx *gorm.DB, b *models.Booking, target models.BookingStatus) (bool, error) {
	if b.Status == target {
		return false, nil
	}
	if !b.Status.CanTransitionTo(target) {
		return false, apperrors.InvalidState(fmt.Sprintf("A %s booking cannot become %s", b.Status, target))
	}
	res := tx.Model(&models.Booking{}).
		Where("id = ? AND status = ?", b.ID, b.Status).
		Update("status", target)
	if res.Error != nil {
		return false, appdb.Classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, apperrors.InvalidState("Booking was modified concurrently")
	}
	b.Status = target
	return true, nil
}

// Pay opens a checkout session for an approved booking of the actor and
// returns the URL to redirect the payer to.
func (s *BookingService) Pay(ctx context.Context, bookingID uint, actor *models.User) (string, error) {
	if actor == nil {
		return "", apperrors.NotFound(msgBookingNotFound)
	}
	db := s.db.WithContext(ctx)
	var b models.Booking
	if err := db.Preload("Car").Where("id = ? AND user_id = ?", bookingID, actor.ID).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.NotFound(msgBookingNotFound)
		}
		return "", appdb.Classify(err)
	}
	if b.Status != models.BookingApproved {
		return "", apperrors.InvalidState("Only approved bookings can be paid")
	}
	if b.Car == nil {
		return "", apperrors.NotFound("Car not found")
	}

	corr := payment.Correlation{BookingID: b.ID, UserID: actor.ID}
	token, err := s.tokens.Encode(corr)
	if err != nil {
		return "", apperrors.Internal("encode payment token", err)
	}
	req := payment.CheckoutRequest{
		AmountMinor:   b.Car.PriceMinorUnits(),
		Currency:      s.cfg.Currency,
		ProductName:   b.Car.Title(),
		SuccessURL:    s.cfg.BaseURL + "/payment/success/?booking=" + url.QueryEscape(token) + "&session_id=" + payment.SessionIDPlaceholder,
		CancelURL:     s.cfg.BaseURL + "/payment/cancel/",
		CustomerEmail: actor.Email,
		Metadata:      corr.Metadata(),
	}
	sess, err := s.gateway.CreateCheckout(ctx, req)
	if err != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).Error("checkout session creation failed")
		return "", apperrors.Gateway("The payment provider is unavailable, please try again later", err)
	}

	rec := models.Payment{
		BookingID:   b.ID,
		SessionID:   sess.ID,
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Status:      models.PaymentOpen,
	}
	if err := db.Create(&rec).Error; err != nil {
		return "", appdb.Classify(err)
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"session_id": sess.ID,
		"amount":     req.AmountMinor,
		"currency":   req.Currency,
	}).Info("checkout session created")
	return sess.URL, nil
}

// ConfirmPayment marks the booking referenced by a gateway redirect as paid.
// Unknown, forged or foreign references answer NotFound; a booking that is
// already paid is a no-op success.
func (s *BookingService) ConfirmPayment(ctx context.Context, cb PaymentCallback, actor *models.User) (*Result, error) {
	corr, sessionID, err := s.resolveCallback(ctx, cb)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.ID != corr.UserID {
		return nil, apperrors.NotFound(msgPaymentNotFound)
	}

	var b models.Booking
	var changed bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Car").Preload("User").
			Where("id = ? AND user_id = ?", corr.BookingID, corr.UserID).
			First(&b).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound(msgPaymentNotFound)
			}
			return err
		}
		var err error
		changed, err = s.transition(ctx, tx, &b, models.BookingPaid)
		if err != nil {
			return err
		}
		return tx.Model(&models.Payment{}).
			Where("session_id = ? AND booking_id = ?", sessionID, b.ID).
			Update("status", models.PaymentPaid).Error
	})
	if err != nil {
		return nil, appdb.Classify(err)
	}

	res := &Result{Booking: &b, Changed: changed}
	if changed {
		s.log.WithFields(logrus.Fields{"booking_id": b.ID, "session_id": sessionID}).Info("booking paid")
		res.Warning = deliver(ctx, s.notifier, s.log, notify.TemplatePaymentConfirmed, b.User, bookingData(&b))
	}
	return res, nil
}

// resolveCallback turns the redirect parameters into a verified correlation
// backed by a paid gateway session.
func (s *BookingService) resolveCallback(ctx context.Context, cb PaymentCallback) (payment.Correlation, string, error) {
	notFound := apperrors.NotFound(msgPaymentNotFound)

	if cb.SessionID != "" {
		sess, err := s.lookupPaid(ctx, cb.SessionID)
		if err != nil {
			return payment.Correlation{}, "", err
		}
		corr, err := payment.CorrelationFromMetadata(sess.Metadata)
		if err != nil {
			return payment.Correlation{}, "", notFound
		}
		if cb.Token != "" {
			if tc, err := s.tokens.Decode(cb.Token); err != nil || tc != corr {
				return payment.Correlation{}, "", notFound
			}
		}
		return corr, sess.ID, nil
	}

	if cb.Token == "" {
		return payment.Correlation{}, "", notFound
	}
	corr, err := s.tokens.Decode(cb.Token)
	if err != nil {
		return payment.Correlation{}, "", notFound
	}
	// A token alone proves intent, not payment: require a paid session on record.
	var sessions []models.Payment
	if err := s.db.WithContext(ctx).Where("booking_id = ?", corr.BookingID).
		Order("id DESC").Limit(5).Find(&sessions).Error; err != nil {
		return payment.Correlation{}, "", appdb.Classify(err)
	}
	for _, p := range sessions {
		if p.Status == models.PaymentPaid {
			return corr, p.SessionID, nil
		}
		if sess, err := s.lookupPaid(ctx, p.SessionID); err == nil {
			return corr, sess.ID, nil
		}
	}
	if len(sessions) == 0 {
		return payment.Correlation{}, "", notFound
	}
	return payment.Correlation{}, "", apperrors.InvalidState("Payment has not been completed")
}

func (s *BookingService) lookupPaid(ctx context.Context, id string) (*payment.Session, error) {
	sess, err := s.gateway.LookupSession(ctx, id)
	if errors.Is(err, payment.ErrSessionNotFound) {
		return nil, apperrors.NotFound(msgPaymentNotFound)
	}
	if err != nil {
		return nil, apperrors.Gateway("Could not verify the payment, please try again later", err)
	}
	if !sess.Paid {
		return nil, apperrors.InvalidState("Payment has not been completed")
	}
	return sess, nil
}

// ListForOwner returns the bookings of all cars of an owner, newest first.
func (s *BookingService) ListForOwner(ctx context.Context, ownerID uint) ([]models.Booking, error) {
	db := s.db.WithContext(ctx)
	var out []models.Booking
	err := db.Preload("Car").Preload("User").
		Where("car_id IN (?)", db.Model(&models.Car{}).Select("id").Where("owner_id = ?", ownerID)).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	return out, appdb.Classify(err)
}

// ListForUser returns a renter's bookings, newest first.
func (s *BookingService) ListForUser(ctx context.Context, userID uint) ([]models.Booking, error) {
	var out []models.Booking
	err := s.db.WithContext(ctx).Preload("Car").Preload("Review").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	return out, appdb.Classify(err)
}
