package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/auth"
	"github.com/diewo77/go-rentals/internal/config"
	"github.com/diewo77/go-rentals/internal/db"
	"github.com/diewo77/go-rentals/internal/flash"
	"github.com/diewo77/go-rentals/internal/logging"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/notify"
	"github.com/diewo77/go-rentals/internal/payment"
	"github.com/diewo77/go-rentals/internal/policy"
	"github.com/diewo77/go-rentals/internal/services"
	"github.com/diewo77/go-rentals/internal/storage"
)

var (
	migrateOnlyFlag   = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag      = flag.Bool("seed-only", false, "Run DB seed and exit")
	sqlMigrationsFlag = flag.Bool("sql-migrations", false, "Apply the versioned SQL migrations (postgres) instead of auto-migrating")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.App.LogLevel, cfg.App.Dev)

	dbConn, err := db.Connect(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	if *migrateOnlyFlag {
		if err := migrate(cfg, dbConn); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.Info("migrations completed successfully")
		return
	}

	if *seedOnlyFlag {
		if err := db.Seed(dbConn, cfg.Admin); err != nil {
			log.WithError(err).Fatal("seeding failed")
		}
		log.Info("seeding completed successfully")
		return
	}

	if cfg.App.Migrations {
		if err := migrate(cfg, dbConn); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.Info("migrations completed")
	}

	created, err := db.SeedAdmin(dbConn, cfg.Admin)
	if err != nil {
		log.WithError(err).Fatal("seeding failed")
	}
	if created {
		log.WithField("username", cfg.Admin.Username).Warn("default administrator created, change its password")
	}

	auth.SetSecret(cfg.App.SessionSecret)
	// Sessions of removed or deactivated users stop working immediately.
	auth.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		var count int64
		dbConn.WithContext(ctx).Model(&models.User{}).Where("id = ? AND is_active = ?", uid, true).Count(&count)
		return count > 0
	})

	routerCfg := policy.NewRouterConfig(policy.Deps{
		DB:           dbConn,
		Notifier:     newNotifier(cfg.Mail, log),
		Gateway:      newGateway(cfg.Payment, log),
		Tokens:       payment.NewTokenCodec(cfg.Payment.TokenSecret),
		Images:       storage.NewImageStore(cfg.App.MediaDir, mediaPrefix),
		Flash:        flash.NewStore([]byte(cfg.App.SessionSecret), !cfg.App.Dev),
		Log:          log,
		Booking:      services.BookingConfig{BaseURL: cfg.App.BaseURL, Currency: cfg.Payment.Currency},
		ContactEmail: cfg.Mail.ContactEmail,
	})

	appHandler := NewApp(routerCfg, cfg.App.MediaDir)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      appHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":   cfg.Server.Port,
			"dev":    cfg.App.Dev,
			"driver": cfg.Database.Driver,
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	log.Info("server stopped gracefully")
}

func migrate(cfg *config.Config, conn *gorm.DB) error {
	if *sqlMigrationsFlag && cfg.Database.Driver == config.DriverPostgres {
		return db.RunSQLMigrations(cfg.Database.URL())
	}
	return db.Migrate(conn)
}

func newNotifier(m config.MailConfig, log logrus.FieldLogger) notify.Notifier {
	if !m.Enabled() {
		log.Warn("EMAIL_HOST not set, emails are written to the log")
		return notify.NewMailer(notify.LogTransport{Log: log}, m.From)
	}
	tr, err := notify.NewSMTPTransport(m.Host, m.Port, m.Username, m.Password)
	if err != nil {
		log.WithError(err).Fatal("invalid mail settings")
	}
	return notify.NewMailer(tr, m.From)
}

func newGateway(p config.PaymentConfig, log logrus.FieldLogger) payment.Gateway {
	if !p.Hosted() {
		log.Warn("PAYMENT_API_KEY not set, using the local payment gateway")
		return payment.NewLocalGateway()
	}
	log.WithField("url", p.BaseURL).Info("using Stripe checkout")
	return payment.NewStripeGateway(p.BaseURL, p.APIKey, p.Timeout, log)
}
