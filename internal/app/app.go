package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/megacine/reservation-system/internal/booking"
	"github.com/megacine/reservation-system/internal/domain"
	"github.com/megacine/reservation-system/internal/hold"
	"github.com/megacine/reservation-system/internal/mailer"
	"github.com/megacine/reservation-system/internal/payment"
	"github.com/megacine/reservation-system/internal/repository"
	"github.com/megacine/reservation-system/internal/scheduler"
	appvalidator "github.com/megacine/reservation-system/internal/validator"
	"github.com/megacine/reservation-system/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const serviceName = "megacine-reservation-api"

var (
	version = vcs.Version()
)

// BookingOrchestrator is what the handlers need from the booking side.
type BookingOrchestrator interface {
	HoldSeats(ctx context.Context, userId, screeningId int, seatIds []int) error
	ReleaseHolds(ctx context.Context, userId int, seatIds []int) error
	CreateReservation(ctx context.Context, userId, screeningId int, seatIds []int) (*domain.ReservationGroup, *domain.Payment, error)
	CancelScreening(ctx context.Context, screeningId int, reason string) error
}

// PaymentSettler is what the handlers need from the settlement side.
type PaymentSettler interface {
	VerifyAndCompletePayment(ctx context.Context, userId, groupId int, merchantUid, gatewayPaymentId string) (*domain.Payment, error)
	CancelReservation(ctx context.Context, userId, groupId int, reason string) (*domain.Payment, error)
}

type Application struct {
	config         Config
	logger         *slog.Logger
	db             *pgxpool.Pool
	redis          redis.UniversalClient
	validator      *validator.Validate
	mailer         mailer.Mailer
	sessionManager *scs.SessionManager

	userRepo        domain.UserRepository
	screeningRepo   domain.ScreeningRepository
	seatRepo        domain.SeatRepository
	reservationRepo domain.ReservationRepository
	paymentRepo     domain.PaymentRepository
	holdStore       domain.SeatHoldStore

	bookingService BookingOrchestrator
	paymentService PaymentSettler
	sweeper        *scheduler.ScreeningSweeper
}

type Config struct {
	Port             int
	Env              string
	OtelCollectorUrl string
	SweepInterval    time.Duration
	DB               struct {
		Dsn          string
		MaxOpenConns int
		MaxIdleTime  time.Duration
	}
	Redis struct {
		Url          string
		MaxOpenConns int
		MaxIdleConns int
		MaxIdleTime  time.Duration
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		Sender   string
	}
	Stripe struct {
		SecretKey string
	}
}

func Run() error {
	var cfg Config

	flag.IntVar(&cfg.Port, "port", 3000, "server port")
	flag.StringVar(&cfg.Env, "env", "dev", "Environment (dev|staging|prod)")
	flag.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", "", "OpenTelemetry collector URL")
	flag.DurationVar(&cfg.SweepInterval, "sweep-interval", scheduler.DefaultSweepInterval, "Interval between screening lifecycle sweeps")

	flag.StringVar(&cfg.DB.Dsn, "db-dsn", "", "PostgreSQL DSN")
	flag.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	flag.StringVar(&cfg.Redis.Url, "redis-url", "", "Redis URL")
	flag.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	flag.StringVar(&cfg.SMTP.Host, "smtp-host", "sandbox.smtp.mailtrap.io", "SMTP host")
	flag.IntVar(&cfg.SMTP.Port, "smtp-port", 2525, "SMTP port")
	flag.StringVar(&cfg.SMTP.Username, "smtp-username", "", "SMTP username")
	flag.StringVar(&cfg.SMTP.Password, "smtp-password", "", "SMTP password")
	flag.StringVar(&cfg.SMTP.Sender, "smtp-sender", "MegaCine <no-reply@megacine.example.com>", "SMTP sender")

	flag.StringVar(&cfg.Stripe.SecretKey, "stripe-key", "", "Stripe secret key")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	db, err := NewDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	app := NewApp(
		cfg,
		logger,
		db,
		redisClient,
		mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender),
		payment.NewStripeGateway(cfg.Stripe.SecretKey),
	)

	shutdownTelemetry, err := app.InitTelemetry()
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	if cfg.OtelCollectorUrl != "" {
		app.logger = slog.New(NewMultiHandler(
			slog.NewTextHandler(os.Stdout, nil),
			otelslog.NewHandler(serviceName),
		))
	}

	return app.run()
}

// NewApp wires the repositories and services onto the given pool, cache and
// gateway. Integration tests call this directly with container-backed
// connections and a fake gateway.
func NewApp(
	cfg Config,
	logger *slog.Logger,
	db *pgxpool.Pool,
	redisClient *redis.Client,
	appMailer mailer.Mailer,
	gateway domain.PaymentGateway) *Application {

	app := &Application{
		config:         cfg,
		logger:         logger,
		db:             db,
		redis:          redisClient,
		validator:      appvalidator.NewValidator(),
		mailer:         appMailer,
		sessionManager: NewSessionManager(redisClient),
	}

	app.userRepo = repository.NewPostgresUserRepository(db)
	app.screeningRepo = repository.NewPostgresScreeningRepository(db)
	app.seatRepo = repository.NewPostgresSeatRepository(db)
	app.reservationRepo = repository.NewPostgresReservationRepository(db)
	app.paymentRepo = repository.NewPostgresPaymentRepository(db)
	app.holdStore = hold.NewRedisSeatHoldStore(redisClient)

	txManager := repository.NewPgxTxManager(db)

	app.bookingService = booking.NewBookingService(
		txManager,
		app.screeningRepo,
		app.seatRepo,
		app.reservationRepo,
		app.paymentRepo,
		app.userRepo,
		app.holdStore,
		gateway,
		app.logger,
	)

	app.paymentService = booking.NewPaymentService(
		txManager,
		app.screeningRepo,
		app.reservationRepo,
		app.paymentRepo,
		app.holdStore,
		gateway,
		app.mailer,
		app.logger,
	)

	app.sweeper = scheduler.NewScreeningSweeper(app.screeningRepo, cfg.SweepInterval, app.logger)

	return app
}

func NewSessionManager(client *redis.Client) *scs.SessionManager {
	sessionManager := scs.New()

	sessionManager.Store = goredisstore.New(client)
	sessionManager.IdleTimeout = 20 * time.Minute
	sessionManager.Cookie.Name = "session_id"

	return sessionManager
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.Url,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	err := redisotel.InstrumentTracing(rdb)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.Dsn)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *Application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()

	go app.sweeper.Start(sweeperCtx)

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
			return
		}

		app.sweeper.Stop()

		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
