package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/gate"
	"github.com/diewo77/go-rentals/internal/apperrors"
	appdb "github.com/diewo77/go-rentals/internal/db"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/storage"
	"github.com/diewo77/go-rentals/validation"
)

const (
	carOrder         = "year DESC, name ASC, id ASC"
	msgCarNotFound   = "Car not found"
	msgOwnerNotFound = "Owner not found"
)

// ImageStore persists car images.
type ImageStore interface {
	Save(carID uint, filename string, r io.Reader) (string, error)
	Delete(rel string) error
	URL(rel string) string
}

// Upload is an image sent with a car form.
type Upload struct {
	Filename string
	Body     io.Reader
}

// CarInput is the owner-editable part of a car.
type CarInput struct {
	Name         string  `json:"name" validate:"required,max=100"`
	Year         int     `json:"year" validate:"required,gte=1900,lte=2100"`
	Transmission string  `json:"transmission" validate:"required"`
	Mileage      string  `json:"mileage" validate:"required,max=50"`
	Price        float64 `json:"price" validate:"gte=0,lte=99999999"`
	Description  string  `json:"description" validate:"max=5000"`
}

// SearchResult is one car as the search endpoint returns it.
type SearchResult struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Year         int    `json:"year"`
	Transmission string `json:"transmission"`
	Mileage      string `json:"mileage"`
	Price        string `json:"price"`
	Image        string `json:"image"`
}

// CarDetail is a car with its reviews.
type CarDetail struct {
	Car     models.Car      `json:"car"`
	Image   string          `json:"image"`
	Reviews []models.Review `json:"reviews"`
}

// OwnerCars is a rental company with its fleet.
type OwnerCars struct {
	Owner models.User  `json:"owner"`
	Cars  []models.Car `json:"cars"`
}

// CatalogService serves car listings and search, and the owners' fleet management.
type CatalogService struct {
	db     *gorm.DB
	gate   Authorizer
	images ImageStore
	log    logrus.FieldLogger
}

func NewCatalogService(db *gorm.DB, authz Authorizer, images ImageStore, log logrus.FieldLogger) *CatalogService {
	return &CatalogService{db: db, gate: authz, images: images, log: log}
}

// escapeLike neutralizes LIKE wildcards; '!' is the escape character.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

// Search matches q case-insensitively against name, transmission and year.
// An empty query returns every car.
func (s *CatalogService) Search(ctx context.Context, q string) ([]SearchResult, error) {
	db := s.db.WithContext(ctx)
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(q))) + "%"
	yearText := "CAST(year AS TEXT)"
	if db.Dialector.Name() == "mysql" {
		yearText = "CAST(year AS CHAR)"
	}

	var cars []models.Car
	err := db.Where(
		"LOWER(name) LIKE ? ESCAPE '!' OR LOWER(transmission) LIKE ? ESCAPE '!' OR "+yearText+" LIKE ? ESCAPE '!'",
		pattern, pattern, pattern,
	).Order(carOrder).Find(&cars).Error
	if err != nil {
		return nil, appdb.Classify(err)
	}

	out := make([]SearchResult, 0, len(cars))
	for i := range cars {
		c := &cars[i]
		out = append(out, SearchResult{
			ID:           c.ID,
			Name:         c.Name,
			Year:         c.Year,
			Transmission: string(c.Transmission),
			Mileage:      c.Mileage,
			Price:        c.PriceString(),
			Image:        s.ImageURL(c),
		})
	}
	return out, nil
}

// ImageURL is the public URL of a car's image, or "".
func (s *CatalogService) ImageURL(c *models.Car) string {
	if s.images == nil {
		return ""
	}
	return s.images.URL(c.ImagePath)
}

// ListCars returns every car in catalog order.
func (s *CatalogService) ListCars(ctx context.Context) ([]models.Car, error) {
	var cars []models.Car
	err := s.db.WithContext(ctx).Order(carOrder).Find(&cars).Error
	return cars, appdb.Classify(err)
}

// GetCar returns a car, its owner and its reviews.
func (s *CatalogService) GetCar(ctx context.Context, id uint) (*CarDetail, error) {
	db := s.db.WithContext(ctx)
	var car models.Car
	if err := db.Preload("Owner").First(&car, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgCarNotFound)
		}
		return nil, appdb.Classify(err)
	}
	var reviews []models.Review
	if err := db.Preload("User").Where("car_id = ?", car.ID).Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, appdb.Classify(err)
	}
	return &CarDetail{Car: car, Image: s.ImageURL(&car), Reviews: reviews}, nil
}

// ListCompanies returns the approved rental companies.
func (s *CatalogService) ListCompanies(ctx context.Context) ([]models.User, error) {
	var owners []models.User
	err := s.db.WithContext(ctx).
		Where("role = ? AND is_approved = ?", models.RoleOwner, true).
		Order("company_name ASC, username ASC").
		Find(&owners).Error
	return owners, appdb.Classify(err)
}

// ListByOwner returns an owner and their cars. Non-owner ids are NotFound.
func (s *CatalogService) ListByOwner(ctx context.Context, ownerID uint) (*OwnerCars, error) {
	db := s.db.WithContext(ctx)
	var owner models.User
	if err := db.Where("id = ? AND role = ?", ownerID, models.RoleOwner).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgOwnerNotFound)
		}
		return nil, appdb.Classify(err)
	}
	var cars []models.Car
	if err := db.Where("owner_id = ?", owner.ID).Order(carOrder).Find(&cars).Error; err != nil {
		return nil, appdb.Classify(err)
	}
	return &OwnerCars{Owner: owner, Cars: cars}, nil
}

func validateCar(in *CarInput) (models.Transmission, error) {
	trim(&in.Name, &in.Mileage, &in.Description, &in.Transmission)
	v := validation.Struct(in)
	tr, ok := models.ParseTransmission(in.Transmission)
	if !ok && in.Transmission != "" {
		v.Add("transmission", "invalid_choice")
	}
	if !v.Empty() {
		return "", apperrors.Validation("Please correct the car details", v)
	}
	return tr, nil
}

func imageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		return apperrors.Validation("Unsupported image type", map[string]string{"image": "unsupported_type"})
	case errors.Is(err, storage.ErrTooLarge):
		return apperrors.Validation("Image is too large", map[string]string{"image": "too_large"})
	}
	return apperrors.Internal("store image", err)
}

// AddCar creates a car for the acting owner, with an optional image.
func (s *CatalogService) AddCar(ctx context.Context, actor *models.User, in CarInput, image *Upload) (*models.Car, error) {
	// Cars always belong to an owner account, whatever else the actor may do.
	if actor == nil || !actor.IsOwner() || !actor.IsApproved ||
		!s.gate.CanProfile(ctx, actor.ID, gate.ActionCreate, ResourceCar) {
		return nil, apperrors.Forbidden("Only approved owners can add cars")
	}
	tr, err := validateCar(&in)
	if err != nil {
		return nil, err
	}

	car := &models.Car{
		OwnerID:      actor.ID,
		Name:         in.Name,
		Year:         in.Year,
		Transmission: tr,
		Mileage:      in.Mileage,
		Price:        in.Price,
		Description:  in.Description,
	}
	var stored string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(car).Error; err != nil {
			return err
		}
		if image == nil || s.images == nil {
			return nil
		}
		rel, err := s.images.Save(car.ID, image.Filename, image.Body)
		if err != nil {
			return imageError(err)
		}
		stored = rel
		car.ImagePath = rel
		return tx.Model(car).Update("image_path", rel).Error
	})
	if err != nil {
		if stored != "" {
			_ = s.images.Delete(stored)
		}
		return nil, appdb.Classify(err)
	}
	s.log.WithFields(logrus.Fields{"car_id": car.ID, "owner_id": actor.ID}).Info("car added")
	return car, nil
}

// loadForOwner loads a car the actor may act on. Cars of other owners are NotFound.
func (s *CatalogService) loadForOwner(ctx context.Context, actor *models.User, id uint, action gate.Action) (*models.Car, error) {
	if actor == nil {
		return nil, apperrors.NotFound(msgCarNotFound)
	}
	var car models.Car
	if err := s.db.WithContext(ctx).First(&car, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgCarNotFound)
		}
		return nil, appdb.Classify(err)
	}
	if err := s.gate.Authorize(ctx, actor.ID, action, ResourceCar, &car); err != nil {
		return nil, apperrors.NotFound(msgCarNotFound)
	}
	return &car, nil
}

// UpdateCar edits one of the actor's cars; a new image replaces the old one.
func (s *CatalogService) UpdateCar(ctx context.Context, actor *models.User, id uint, in CarInput, image *Upload) (*models.Car, error) {
	car, err := s.loadForOwner(ctx, actor, id, gate.ActionUpdate)
	if err != nil {
		return nil, err
	}
	tr, err := validateCar(&in)
	if err != nil {
		return nil, err
	}

	old := car.ImagePath
	if image != nil && s.images != nil {
		rel, err := s.images.Save(car.ID, image.Filename, image.Body)
		if err != nil {
			return nil, imageError(err)
		}
		car.ImagePath = rel
	}
	car.Name, car.Year, car.Transmission = in.Name, in.Year, tr
	car.Mileage, car.Price, car.Description = in.Mileage, in.Price, in.Description

	if err := s.db.WithContext(ctx).Save(car).Error; err != nil {
		if car.ImagePath != old {
			_ = s.images.Delete(car.ImagePath)
		}
		return nil, appdb.Classify(err)
	}
	if car.ImagePath != old && old != "" {
		if err := s.images.Delete(old); err != nil {
			s.log.WithError(err).WithField("car_id", car.ID).Warn("old car image not removed")
		}
	}
	s.log.WithFields(logrus.Fields{"car_id": car.ID, "actor_id": actor.ID}).Info("car updated")
	return car, nil
}

// DeleteCar removes one of the actor's cars. Cars with pending or approved
// bookings cannot be removed; past bookings keep referencing the soft-deleted row.
func (s *CatalogService) DeleteCar(ctx context.Context, actor *models.User, id uint) error {
	car, err := s.loadForOwner(ctx, actor, id, gate.ActionDelete)
	if err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	var open int64
	if err := db.Model(&models.Booking{}).
		Where("car_id = ? AND status IN ?", car.ID, []models.BookingStatus{models.BookingPending, models.BookingApproved}).
		Count(&open).Error; err != nil {
		return appdb.Classify(err)
	}
	if open > 0 {
		return apperrors.InvalidState("This car has open bookings and cannot be removed")
	}
	if err := db.Delete(car).Error; err != nil {
		return appdb.Classify(err)
	}
	s.log.WithFields(logrus.Fields{"car_id": car.ID, "actor_id": actor.ID}).Info("car deleted")
	return nil
}
