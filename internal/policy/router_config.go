package policy

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/flash"
	"github.com/diewo77/go-rentals/internal/handlers"
	"github.com/diewo77/go-rentals/internal/notify"
	"github.com/diewo77/go-rentals/internal/payment"
	"github.com/diewo77/go-rentals/internal/services"
)

// ProfileCacheTTL bounds how long a role or approval change can go unnoticed
// when it bypasses AccountService.
const ProfileCacheTTL = 5 * time.Minute

// Deps are the collaborators the router is built from.
type Deps struct {
	DB           *gorm.DB
	Notifier     notify.Notifier
	Gateway      payment.Gateway
	Tokens       *payment.TokenCodec
	Images       services.ImageStore
	Flash        *flash.Store
	Log          logrus.FieldLogger
	Booking      services.BookingConfig
	ContactEmail string
	// Now pins the clock of the lifecycle services; nil means time.Now.
	Now services.Clock
}

// RouterConfig holds the configured gate, services and handlers.
type RouterConfig struct {
	AuthGate *AuthGate

	Accounts  *services.AccountService
	Bookings  *services.BookingService
	Reviews   *services.ReviewService
	Contracts *services.ContractService
	Catalog   *services.CatalogService
	Contact   *services.ContactService

	Base        *handlers.Base
	Auth        *handlers.AuthHandler
	Cars        *handlers.CatalogHandler
	Owner       *handlers.OwnerHandler
	Booking     *handlers.BookingHandler
	Review      *handlers.ReviewHandler
	Contract    *handlers.ContractHandler
	Admin       *handlers.AdminHandler
	ContactForm *handlers.ContactHandler
}

// NewRouterConfig wires the gate, the services and the handlers together.
func NewRouterConfig(d Deps) *RouterConfig {
	ag := NewAuthGate(d.DB, ProfileCacheTTL)

	accounts := services.NewAccountService(d.DB, d.Notifier, ag, d.Log)
	bookings := services.NewBookingService(d.DB, d.Notifier, d.Gateway, d.Tokens, d.Log, d.Booking)
	reviews := services.NewReviewService(d.DB, d.Log)
	contracts := services.NewContractService(d.DB, d.Notifier, d.Log)
	catalog := services.NewCatalogService(d.DB, ag, d.Images, d.Log)
	contact := services.NewContactService(d.Notifier, d.ContactEmail, d.Log)
	if d.Now != nil {
		bookings.WithClock(d.Now)
		reviews.WithClock(d.Now)
		contracts.WithClock(d.Now)
	}

	base := &handlers.Base{Accounts: accounts, Flash: d.Flash, Log: d.Log}
	return &RouterConfig{
		AuthGate:    ag,
		Accounts:    accounts,
		Bookings:    bookings,
		Reviews:     reviews,
		Contracts:   contracts,
		Catalog:     catalog,
		Contact:     contact,
		Base:        base,
		Auth:        handlers.NewAuthHandler(base),
		Cars:        handlers.NewCatalogHandler(base, catalog),
		Owner:       handlers.NewOwnerHandler(base, catalog, bookings),
		Booking:     handlers.NewBookingHandler(base, bookings),
		Review:      handlers.NewReviewHandler(base, reviews),
		Contract:    handlers.NewContractHandler(base, contracts),
		Admin:       handlers.NewAdminHandler(base, bookings),
		ContactForm: handlers.NewContactHandler(base, contact),
	}
}
