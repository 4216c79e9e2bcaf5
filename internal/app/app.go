package app

import (
	"context"
	"fmt"
	"time"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/domain/repository"
	"fareguard-service/internal/infrastructure/config"
	"fareguard-service/internal/infrastructure/eventbus"
	"fareguard-service/internal/infrastructure/lock"
	"fareguard-service/internal/infrastructure/oauth"
	"fareguard-service/internal/infrastructure/persistence"
	"fareguard-service/internal/infrastructure/router"
	"fareguard-service/internal/interface/airline"
	"fareguard-service/internal/interface/fare"
	"fareguard-service/internal/interface/notify"
	repo "fareguard-service/internal/interface/repository"
	"fareguard-service/internal/interface/repository/memory"
	"fareguard-service/internal/usecase"
	"fareguard-service/pkg/logger"
	"fareguard-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/option"
)

// App holds the wired services shared by the server and the CLI
type App struct {
	Config     *config.Config
	Logger     logger.Logger
	Metrics    *metrics.Metrics
	Tracker    *usecase.FlightTracker
	Ledger     *usecase.PriceLedger
	Manager    *usecase.EcreditManager
	Checker    *usecase.PriceChecker
	Reconciler *usecase.Reconciler
	Scheduler  *usecase.Scheduler
	Dispatcher *notify.Dispatcher
	Bus        *eventbus.Bus

	closers []func(ctx context.Context) error
}

type stores struct {
	flights       repository.FlightRepository
	observations  repository.PriceObservationRepository
	requests      repository.EcreditRequestRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository
	airlines      repository.AirlineRepository
}

// New connects the stores and wires every service. The event bus is
// started; call Close to drain it and release connections.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.NewMetrics("fareguard", reg),
	}

	s, err := a.openStores(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	locker, err := a.openLocker(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	senders, err := a.buildSenders(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	airlines := router.NewAirlineRouter(log)
	airlines.Register(airline.NewSouthwestHandler(
		cfg.Submission.Southwest,
		cfg.Submission.CreditValidity,
		airline.NewChance(time.Now().UnixNano()),
		a.Metrics,
		log,
	))

	a.Dispatcher = notify.NewDispatcher(s.notifications, s.users, senders, a.Metrics, log)
	a.Bus = eventbus.NewBus(cfg.Notify.EventBuffer, a.Metrics, log)
	a.Bus.Subscribe(a.Dispatcher.HandleEvent)
	a.Bus.Start(context.WithoutCancel(ctx))
	a.closers = append(a.closers, func(context.Context) error {
		a.Bus.Close()
		return nil
	})

	fares := fare.NewClient(fare.NewSourcesFromConfig(cfg.Fare), a.Metrics, log)
	if len(cfg.Fare.PrimaryBaseURL)+len(cfg.Fare.SecondaryBaseURL) == 0 {
		log.Warn("No fare source configured; every lookup will be unavailable")
	}

	a.Ledger = usecase.NewPriceLedger(s.observations, a.Metrics, log)
	a.Manager = usecase.NewEcreditManager(s.requests, s.flights, s.users, airlines, a.Bus, a.Metrics, log)
	a.Tracker = usecase.NewFlightTracker(s.flights, s.airlines, a.Ledger, s.requests, a.Metrics, log)
	a.Checker = usecase.NewPriceChecker(
		s.flights,
		fares,
		a.Ledger,
		usecase.NewDropDetector(cfg.Scheduler.DropMinDifference),
		a.Manager,
		locker,
		usecase.PriceCheckerOptions{
			SubmitOnDetect: cfg.Scheduler.SubmitOnDetect,
			LockTTL:        cfg.Scheduler.LockTTL,
		},
		a.Metrics,
		log,
	)
	a.Reconciler = usecase.NewReconciler(a.Manager, locker, usecase.ReconcilerOptions{
		BatchLimit: cfg.Scheduler.BatchLimit,
		StaleAfter: cfg.Scheduler.StaleAfter,
		LockTTL:    cfg.Scheduler.LockTTL,
	}, a.Metrics, log)
	a.Scheduler = usecase.NewScheduler(
		a.Checker,
		a.Reconciler,
		cfg.Scheduler.PriceCheckInterval,
		cfg.Scheduler.ReconcileInterval,
		cfg.Scheduler.RunOnStart,
		log,
	)

	return a, nil
}

func (a *App) openStores(ctx context.Context) (*stores, error) {
	cfg := a.Config
	switch cfg.StoreDriver {
	case "memory":
		a.Logger.Info("Using in-memory stores")
		return &stores{
			flights:       memory.NewFlightStore(),
			observations:  memory.NewObservationStore(),
			requests:      memory.NewEcreditStore(),
			notifications: memory.NewNotificationStore(),
			users:         memory.NewUserStore(),
			airlines: memory.NewAirlineStore(&entity.Airline{
				ID:        1,
				Code:      airline.SouthwestCode,
				Name:      "Southwest Airlines",
				Supported: true,
			}),
		}, nil

	case "mongo":
		a.Logger.Info("Connecting to MongoDB")
		mongoClient, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		a.closers = append(a.closers, func(ctx context.Context) error {
			return mongoClient.Disconnect(ctx)
		})
		db := persistence.GetDatabase(mongoClient, cfg.MongoDB)

		a.Logger.Info("Connecting to PostgreSQL")
		gormDB, err := persistence.NewPostgresDB(cfg.PostgresURI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error {
			return persistence.ClosePostgres(gormDB)
		})
		if err := repo.AutoMigrate(gormDB); err != nil {
			return nil, fmt.Errorf("failed to migrate PostgreSQL: %w", err)
		}

		return &stores{
			flights:       repo.NewMongoFlightRepository(db),
			observations:  repo.NewMongoPriceObservationRepository(db),
			requests:      repo.NewMongoEcreditRequestRepository(db),
			notifications: repo.NewMongoNotificationRepository(db),
			users:         repo.NewGormUserRepository(gormDB),
			airlines:      repo.NewGormAirlineRepository(gormDB),
		}, nil

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func (a *App) openLocker(ctx context.Context) (usecase.Locker, error) {
	cfg := a.Config
	if cfg.RedisAddr == "" {
		a.Logger.Info("REDIS_ADDR not set, using in-process flight locks")
		return lock.NewMemoryLocker(), nil
	}

	client, err := lock.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error {
		return client.Close()
	})
	a.Logger.Info("Using Redis flight locks", "addr", cfg.RedisAddr)
	return lock.NewRedisLocker(client), nil
}

func (a *App) buildSenders(ctx context.Context) ([]notify.Sender, error) {
	n := a.Config.Notify
	var senders []notify.Sender

	if n.GmailClientID != "" && n.GmailClientSecret != "" && n.GmailRefreshToken != "" {
		gmailOAuth := oauth.NewGmailOAuth(n.GmailClientID, n.GmailClientSecret, n.GmailRefreshToken, "", a.Logger)
		gmailSender, err := notify.NewGmailSender(ctx, n.GmailFrom, a.Logger,
			option.WithTokenSource(gmailOAuth.GetTokenSource(context.WithoutCancel(ctx))))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gmail sender: %w", err)
		}
		senders = append(senders, gmailSender)
	}

	if n.SMTPHost != "" {
		senders = append(senders, notify.NewSMTPSender(n.SMTPHost, n.SMTPPort, n.SMTPUser, n.SMTPPass, n.SMTPFrom))
	}

	if n.WhatsAppEndpoint != "" {
		senders = append(senders, notify.NewWhatsAppSender(n.WhatsAppEndpoint, n.WhatsAppSendPath, n.WhatsAppToken, n.WhatsAppCompanyID, n.WhatsAppAgentID, a.Logger))
	}

	names := make([]string, 0, len(senders))
	for _, s := range senders {
		names = append(names, s.Name())
	}
	a.Logger.Info("Notification senders configured", "senders", names)
	return senders, nil
}

// Close drains the event bus and closes connections in reverse order
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.Logger.Error("Shutdown error", "error", err)
		}
	}
	a.closers = nil
}
