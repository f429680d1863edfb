package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/apperrors"
	appdb "github.com/diewo77/go-rentals/internal/db"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/validation"
)

const msgNotReviewable = "You can review a booking once, after it was paid and returned"

// ReviewService is the review gate.
type ReviewService struct {
	db  *gorm.DB
	log logrus.FieldLogger
	now Clock
}

func NewReviewService(db *gorm.DB, log logrus.FieldLogger) *ReviewService {
	return &ReviewService{db: db, log: log, now: time.Now}
}

func (s *ReviewService) WithClock(now Clock) *ReviewService {
	s.now = now
	return s
}

// Reviewable reports whether a booking may receive its review on day t.
func Reviewable(b *models.Booking, t models.Date) bool {
	return b.Status == models.BookingPaid && b.ReturnDate.Before(t) && b.Review == nil
}

// AddComment stores the renter's review of a paid booking whose return date
// has passed. A rating of 0 means "not given" and defaults to 5.
func (s *ReviewService) AddComment(ctx context.Context, bookingID uint, actor *models.User, rating int, comment string) (*models.Review, error) {
	if actor == nil {
		return nil, apperrors.NotFound(msgBookingNotFound)
	}
	db := s.db.WithContext(ctx)

	var b models.Booking
	if err := db.Preload("Review").Where("id = ? AND user_id = ?", bookingID, actor.ID).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgBookingNotFound)
		}
		return nil, appdb.Classify(err)
	}

	comment = strings.TrimSpace(comment)
	if rating == 0 {
		rating = models.DefaultRating
	}
	v := validation.Violations{}
	validation.Required("comment", comment, v)
	validation.RangeInt("rating", rating, models.MinRating, models.MaxRating, v)
	if !v.Empty() {
		return nil, apperrors.Validation("Please write a comment and a rating between 1 and 5", v)
	}

	if !Reviewable(&b, today(s.now)) {
		return nil, apperrors.InvalidState(msgNotReviewable)
	}

	review := &models.Review{
		BookingID: b.ID,
		CarID:     b.CarID,
		UserID:    b.UserID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := db.Create(review).Error; err != nil {
		if appdb.IsUniqueViolation(err) {
			return nil, apperrors.InvalidState(msgNotReviewable)
		}
		return nil, appdb.Classify(err)
	}
	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"car_id":     b.CarID,
		"rating":     rating,
	}).Info("review added")
	return review, nil
}

// ListForCar returns the reviews of a car, newest first.
func (s *ReviewService) ListForCar(ctx context.Context, carID uint) ([]models.Review, error) {
	var out []models.Review
	err := s.db.WithContext(ctx).Preload("User").
		Where("car_id = ?", carID).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	return out, appdb.Classify(err)
}
