package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/cache"
	"github.com/iliyamo/turf-slot-booking/internal/config"
	"github.com/iliyamo/turf-slot-booking/internal/database"
	"github.com/iliyamo/turf-slot-booking/internal/handler"
	"github.com/iliyamo/turf-slot-booking/internal/logging"
	"github.com/iliyamo/turf-slot-booking/internal/middleware"
	"github.com/iliyamo/turf-slot-booking/internal/obs"
	"github.com/iliyamo/turf-slot-booking/internal/queue"
	"github.com/iliyamo/turf-slot-booking/internal/repository"
	"github.com/iliyamo/turf-slot-booking/internal/repository/memstore"
	"github.com/iliyamo/turf-slot-booking/internal/router"
	"github.com/iliyamo/turf-slot-booking/internal/service"
	"github.com/iliyamo/turf-slot-booking/internal/store"
)

// stores groups the persistence ports of one backend.
type stores struct {
	slots    store.SlotStore
	bookings store.BookingStore
	venues   store.VenueStore
	owners   store.OwnerStore
	users    store.UserStore
	tokens   store.TokenStore
	cities   store.CityStore
}

func main() {
	_ = godotenv.Load() // a missing .env is fine

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OtelEnabled {
		shutdown, err := obs.InitTracer(ctx, cfg.OtelServiceName, cfg.OtelEndpoint, cfg.Env)
		if err != nil {
			log.Warn("tracing disabled", zap.Error(err))
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(sctx)
			}()
		}
	}

	health := handler.NewHealth()

	var st stores
	switch cfg.StoreDriver {
	case "memory":
		mem := memstore.New()
		st = stores{mem, mem, mem, mem, mem, mem, mem}
		log.Info("using in-memory store")
	default:
		db, err := database.Open(cfg.Database())
		if err != nil {
			log.Fatal("open mysql", zap.Error(err))
		}
		defer db.Close()
		mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = database.Migrate(mctx, db)
		cancel()
		if err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
		st = mysqlStores(db)
		health.Register("mysql", true, db.PingContext)
	}

	if cfg.AdminEmail != "" {
		bctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := service.BootstrapAdmin(bctx, st.users, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost, log)
		cancel()
		if err != nil {
			log.Fatal("bootstrap admin", zap.String("email", cfg.AdminEmail), zap.Error(err))
		}
	}

	// Redis backs the slot cache, the listing cache and the rate limiter.
	// Without it those features switch off and the service still runs.
	rdb := config.NewRedisClient()
	var slotCache service.SlotCache
	if rdb != nil {
		defer rdb.Close()
		slotCache = cache.NewSlotCache(rdb, "turf", cfg.SlotCacheTTL)
		health.Register("redis", false, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	} else {
		log.Warn("redis unavailable, caching and rate limiting disabled")
	}

	cacheCfg, err := config.LoadCacheConfig()
	if err != nil {
		log.Fatal("cache config", zap.Error(err))
	}
	rlCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		log.Fatal("rate limit config", zap.Error(err))
	}
	listingCache := middleware.NewResponseCache(cacheCfg, rdb, log)
	limiter := middleware.NewTokenBucket(rlCfg, rdb, log)

	var events service.EventPublisher = queue.NopPublisher{}
	if cfg.RabbitEnabled {
		pub, err := queue.NewPublisher(cfg.RabbitURL, log)
		if err != nil {
			log.Warn("rabbitmq unavailable, events disabled", zap.Error(err))
		} else {
			defer pub.Close()
			events = pub
		}
		consumer := &queue.AuditConsumer{URL: cfg.RabbitURL, LogPath: cfg.BookingLogPath, Log: log}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("booking audit consumer stopped", zap.Error(err))
			}
		}()
	}

	inv := service.NewInventory(st.venues, st.slots, slotCache, log, cfg.Location(), cfg.InventoryWindowDays)
	engine := service.NewBookingEngine(st.venues, st.bookings, inv, events, slotCache, log)
	wf := service.NewApprovalWorkflow(st.owners, st.venues, inv, events, log)
	dir := service.NewDirectory(st.venues, st.cities)

	go inv.RunRefresher(ctx, cfg.InventoryRefreshEvery)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))

	auth := handler.AuthSettings{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
		BcryptCost: cfg.BcryptCost,
	}
	router.RegisterRoutes(e, health)
	router.RegisterAuth(e, handler.NewAuthHandler(auth, st.users, st.tokens, log), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewVenueHandler(dir, inv, log), listingCache.Middleware())
	router.RegisterBookings(e, handler.NewBookingHandler(engine, log), cfg.JWTSecret, limiter)
	router.RegisterOwner(e, handler.NewOwnerHandler(wf, engine, listingCache, log), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(wf, engine, dir, listingCache, log), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}

func mysqlStores(db *sql.DB) stores {
	users := repository.NewUserRepo(db)
	return stores{
		slots:    repository.NewSlotRepo(db),
		bookings: repository.NewBookingRepo(db),
		venues:   repository.NewVenueRepo(db),
		owners:   users,
		users:    users,
		tokens:   repository.NewTokenRepo(db),
		cities:   repository.NewCityRepo(db),
	}
}
