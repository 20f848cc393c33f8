package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/gerswin/2025v2POS-sub001/internal/cache"
	"github.com/gerswin/2025v2POS-sub001/internal/config"
	"github.com/gerswin/2025v2POS-sub001/internal/database"
	"github.com/gerswin/2025v2POS-sub001/internal/handler"
	appmw "github.com/gerswin/2025v2POS-sub001/internal/middleware"
	"github.com/gerswin/2025v2POS-sub001/internal/pricing"
	"github.com/gerswin/2025v2POS-sub001/internal/queue"
	"github.com/gerswin/2025v2POS-sub001/internal/redislock"
	"github.com/gerswin/2025v2POS-sub001/internal/repository"
	"github.com/gerswin/2025v2POS-sub001/internal/router"
	"github.com/gerswin/2025v2POS-sub001/internal/service"
	"github.com/gerswin/2025v2POS-sub001/internal/worker"
)

func main() {
	// .env is a development convenience; in production the variables
	// come from the environment.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(database.Settings{
		User:            cfg.DBUser,
		Pass:            cfg.DBPass,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		PingTimeout:     cfg.DBPingTimeout,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// The distributed mutexes are what keep quota checks serialized
	// across instances, so Redis is a hard dependency; only the caches
	// degrade gracefully.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis unavailable; distributed locking requires it")
	}
	defer rdb.Close()

	counters := cache.NewCounterCache(rdb, cfg.CounterCacheTTL)
	stageCache := cache.NewStageCache(rdb, cfg.StageCacheTTL)
	locker := service.NewRedisLocker(redislock.NewManager(rdb))

	var publisher service.EventPublisher
	if cfg.RabbitURL != "" {
		publisher = queue.NewPublisher(cfg.RabbitURL)
	} else {
		log.Println("RABBITMQ_URL not set; event publishing disabled")
	}

	// Repositories and cross-repo transaction helpers.
	catalogRepo := repository.NewCatalogRepo(db)
	stageRepo := repository.NewStageRepo(db)
	modifierRepo := repository.NewModifierRepo(db)
	soldRepo := repository.NewSoldQuantityRepo(db)
	transitionRepo := repository.NewStageTransitionRepo(db)
	recordRepo := repository.NewPriceRecordRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	lockRepo := repository.NewInventoryLockRepo(db)
	salesLedger := repository.NewSalesLedger(db, reservationRepo, soldRepo)
	transitionLedger := repository.NewTransitionLedger(db, stageRepo, transitionRepo)
	inventoryLedger := repository.NewInventoryLedger(db, seatRepo, lockRepo)

	// Services.
	tracker := service.NewQuantityTracker(soldRepo, counters)
	resolver := pricing.NewResolver(stageRepo, tracker, stageCache)
	pricingSvc := service.NewPricingService(catalogRepo, seatRepo, modifierRepo, resolver, recordRepo)

	lockCfg := service.CoordinatorConfig{
		LockTTL:        cfg.StageLockTTL,
		LockRetries:    cfg.LockRetries,
		LockRetryDelay: cfg.LockRetryDelay,
		ReservationTTL: cfg.ReservationTTL,
	}
	coordinator := service.NewCoordinator(stageRepo, reservationRepo, salesLedger, tracker, counters, locker, publisher, lockCfg)
	engine := service.NewTransitionEngine(stageRepo, transitionRepo, transitionLedger, tracker, locker, stageCache, publisher, lockCfg)
	coordinator.SetQuotaHook(engine)

	inventorySvc := service.NewInventoryService(catalogRepo, seatRepo, lockRepo, inventoryLedger, pricingSvc, locker, publisher, service.InventoryConfig{
		DefaultTTL:     cfg.InventoryTTL,
		MaxTTL:         cfg.InventoryMaxTTL,
		LockTTL:        cfg.StageLockTTL,
		LockRetries:    cfg.LockRetries,
		LockRetryDelay: cfg.LockRetryDelay,
	})

	// Background loops.
	sweeper := worker.NewSweeper(coordinator, inventorySvc, cfg.SweepInterval, cfg.SweepBatchSize)
	sweeper.Start()
	defer sweeper.Stop()
	monitor := worker.NewTransitionMonitor(stageRepo, engine, cfg.MonitorInterval)
	monitor.Start()
	defer monitor.Stop()

	e := echo.New()
	e.HideBanner = true
	rateLimit := appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	router.RegisterRoutes(e, router.Handlers{
		Pricing:     handler.NewPricingHandler(pricingSvc, coordinator, cfg.PriceRecordLimit),
		Reservation: handler.NewReservationHandler(coordinator),
		Inventory:   handler.NewInventoryHandler(inventorySvc),
		Checkout:    handler.NewCheckoutHandler(coordinator, inventorySvc),
		Admin:       handler.NewAdminHandler(engine, tracker),
	}, cfg.SessionSecret, rateLimit)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
