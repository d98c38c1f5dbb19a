package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-booking-gateway/internal/api"
	"github.com/hackgods/clinic-booking-gateway/internal/booking"
	"github.com/hackgods/clinic-booking-gateway/internal/calendar"
	"github.com/hackgods/clinic-booking-gateway/internal/clock"
	"github.com/hackgods/clinic-booking-gateway/internal/config"
	"github.com/hackgods/clinic-booking-gateway/internal/db"
	"github.com/hackgods/clinic-booking-gateway/internal/journal"
	"github.com/hackgods/clinic-booking-gateway/internal/observability/metrics"
	redisclient "github.com/hackgods/clinic-booking-gateway/internal/redis"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s calendar=%s", cfg.Env, cfg.HTTPPort, cfg.CalendarID)
	if cfg.APIKey == "" {
		log.Println("WARNING: BOOKING_API_KEY not set, booking endpoints are open")
	}

	settings, err := buildSettings(cfg)
	if err != nil {
		log.Fatalf("invalid clinic settings: %v", err)
	}

	creds, err := calendar.NormalizeCredentials(cfg.GoogleClientEmail, cfg.GooglePrivateKey, cfg.GooglePrivateKeyBase64)
	if err != nil {
		log.Fatalf("calendar credentials error: %v", err)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := calendar.NewGoogleProvider(rootCtx, creds, cfg.TimezoneName, cfg.ProviderTimeout)
	if err != nil {
		log.Fatalf("calendar provider error: %v", err)
	}

	// Redis is optional: without it bookings are serialized in-process only,
	// which is fine for a single replica.
	locker := redisclient.NewLocalLocker()
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis connection error: %v", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Printf("error closing redis: %v", err)
			}
		}()
		locker = redisclient.NewRedisCalendarLocker(rdb, cfg.LockTTL)
		log.Println("connected to Redis, using distributed calendar lock")
	} else {
		log.Println("REDIS_ADDR not set, using in-process calendar lock")
	}

	// Postgres is optional: it only backs the booking-attempt journal.
	var rec journal.Recorder = journal.Nop{}
	var pgPool *pgxpool.Pool
	if cfg.PostgresDSN != "" {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err = db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			log.Fatalf("postgres connection error: %v", err)
		}
		defer pgPool.Close()

		pgRec := journal.NewPgRecorder(pgPool)
		if err := pgRec.EnsureSchema(rootCtx); err != nil {
			log.Fatalf("journal schema error: %v", err)
		}
		rec = pgRec
		log.Println("connected to Postgres, booking journal enabled")
	} else {
		log.Println("POSTGRES_DSN not set, booking journal disabled")
	}

	m := metrics.NewBookingMetrics(nil)
	svc := booking.NewService(settings, provider, locker, rec, m)

	router := api.NewRouter(api.RouterConfig{
		Service: svc,
		PgPool:  pgPool,
		Redis:   rdb,
		APIKey:  cfg.APIKey,
		Env:     cfg.Env,
		Version: version,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func buildSettings(cfg config.Config) (booking.Settings, error) {
	loc, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		return booking.Settings{}, err
	}
	workStart, err := clock.ParseWallClock(cfg.WorkStart)
	if err != nil {
		return booking.Settings{}, err
	}
	workEnd, err := clock.ParseWallClock(cfg.WorkEnd)
	if err != nil {
		return booking.Settings{}, err
	}

	var allowedDurations map[int]bool
	if len(cfg.AllowedDurations) > 0 {
		allowedDurations = make(map[int]bool, len(cfg.AllowedDurations))
		for _, d := range cfg.AllowedDurations {
			allowedDurations[d] = true
		}
	}

	allowedWeekdays := make(map[int]bool, len(cfg.AllowedWeekdays))
	for _, d := range cfg.AllowedWeekdays {
		allowedWeekdays[d] = true
	}

	settings := booking.Settings{
		Location:           loc,
		CalendarID:         cfg.CalendarID,
		WorkStart:          workStart,
		WorkEnd:            workEnd,
		StepMinutes:        cfg.StepMinutes,
		ServiceDurations:   cfg.ServiceDurations,
		DefaultDuration:    cfg.DefaultDuration,
		AllowedDurations:   allowedDurations,
		AllowedWeekdays:    allowedWeekdays,
		RequireFutureStart: cfg.RequireFutureStart,
	}
	return settings, settings.Validate()
}
