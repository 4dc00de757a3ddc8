// Command server runs the vehicle reservation HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // APP_TIMEZONE must resolve on minimal images

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
	"github.com/iliyamo/vehicle-reservation/internal/config"
	"github.com/iliyamo/vehicle-reservation/internal/database"
	"github.com/iliyamo/vehicle-reservation/internal/handler"
	"github.com/iliyamo/vehicle-reservation/internal/middleware"
	"github.com/iliyamo/vehicle-reservation/internal/notify"
	"github.com/iliyamo/vehicle-reservation/internal/queue"
	"github.com/iliyamo/vehicle-reservation/internal/repository"
	"github.com/iliyamo/vehicle-reservation/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger := cfg.Logger()
	log := logrus.NewEntry(logger).WithField("env", cfg.Env)

	db, err := database.Open(database.Options{
		User: cfg.DB.User,
		Pass: cfg.DB.Pass,
		Host: cfg.DB.Host,
		Port: cfg.DB.Port,
		Name: cfg.DB.Name,
	})
	if err != nil {
		log.WithError(err).Fatal("database unreachable")
	}
	defer db.Close()
	if cfg.DB.Migrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			log.WithError(err).Fatal("schema migration failed")
		}
		log.Info("schema up to date")
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.WithField("addr", cfg.Redis.Address()).Warn("redis unavailable; caching and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	// The notifier strategy is chosen once here and shared by reference.
	notifier, err := notify.New(notify.Options{
		Provider: cfg.Notify.Provider,
		URL:      cfg.Notify.RabbitURL,
		Queue:    cfg.Notify.Queue,
	}, log.WithField("component", "notify"))
	if err != nil {
		log.WithError(err).Fatal("notifier setup failed")
	}
	dispatcher := booking.NewDispatcher(notifier, log.WithField("component", "notify"), cfg.Notify.Timeout)

	cal, err := cfg.Calendar()
	if err != nil {
		log.WithError(err).Fatal("invalid holiday calendar")
	}
	svc := booking.NewService(repository.NewBookingRepo(db), cal, dispatcher,
		booking.WithLogger(log),
		booking.WithNotesMaxLen(cfg.NotesMaxLen),
		booking.WithRequireAssignment(cfg.RequireAssignment),
	)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	httpLog := log.WithField("component", "http")
	e.Use(middleware.RequestLogger(httpLog))
	e.Use(echomw.Recover())

	guards := router.Guards{
		RateLimit:  middleware.NewTokenBucket(cfg.RateLimit, rdb, httpLog),
		Cache:      middleware.NewRedisCache(cfg.Cache, rdb, httpLog),
		Invalidate: middleware.InvalidateCache(cfg.Cache, rdb, httpLog),
	}
	router.RegisterRoutes(e, db, cfg.MetricsEnabled)
	router.RegisterBookings(e, handler.NewBookingHandler(svc, log), cfg.JWTSecret, guards)
	router.RegisterResources(e, handler.NewResourceHandler(repository.NewResourceRepo(db), log), cfg.JWTSecret, guards)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumerDone := make(chan struct{})
	if cfg.Notify.ConsumerEnabled {
		go func() {
			defer close(consumerDone)
			err := queue.StartNotificationConsumer(ctx, queue.ConsumerConfig{
				URL:     cfg.Notify.RabbitURL,
				Queue:   cfg.Notify.Queue,
				LogPath: cfg.Notify.LogPath,
			}, log)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("notification consumer stopped")
			}
		}()
	} else {
		close(consumerDone)
	}

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "timezone": cfg.Timezone}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	dispatcher.Wait() // in-flight notifications still go out
	<-consumerDone
}
