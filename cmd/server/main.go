package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/roomescape/internal/booking"
	"github.com/iliyamo/roomescape/internal/clock"
	"github.com/iliyamo/roomescape/internal/config"
	"github.com/iliyamo/roomescape/internal/database"
	"github.com/iliyamo/roomescape/internal/handler"
	"github.com/iliyamo/roomescape/internal/logger"
	"github.com/iliyamo/roomescape/internal/model"
	"github.com/iliyamo/roomescape/internal/queue"
	"github.com/iliyamo/roomescape/internal/ranking"
	"github.com/iliyamo/roomescape/internal/repository"
	"github.com/iliyamo/roomescape/internal/router"
	queue_publisher "github.com/iliyamo/roomescape/internal/service"
	"github.com/iliyamo/roomescape/internal/utils"
)

// reservationStore is what both the engine and the ranker read from.
type reservationStore interface {
	booking.ReservationStore
	ranking.Counter
}

type stores struct {
	db           *sql.DB
	reservations reservationStore
	times        booking.TimeSlotStore
	themes       booking.ThemeStore
	members      handler.MemberAccounts
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal("main: open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	if st.db != nil {
		defer st.db.Close()
	}
	if err := seedAdmin(ctx, cfg, st.members); err != nil {
		log.Fatal("main: seed admin", zap.Error(err))
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("main: redis unavailable; rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	clk := clock.System{Location: cfg.Location}
	opts := []booking.Option{booking.WithLogger(log)}
	if cfg.EventsEnabled {
		opts = append(opts, booking.WithEvents(queue_publisher.NewPublisher(cfg.RabbitURL, cfg.EventsQueue, log)))
		if cfg.EventsConsumer {
			consumer := &queue.Consumer{URL: cfg.RabbitURL, Queue: cfg.EventsQueue, LogPath: cfg.EventsLogPath, Log: log}
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("main: event consumer stopped", zap.Error(err))
				}
			}()
		}
	}
	svc := booking.NewService(st.reservations, st.times, st.themes, st.members, clk, opts...)
	ranker := ranking.NewCachedRanker(ranking.NewRanker(st.reservations, st.themes), rdb, cacheCfg.PopularTTL, cacheCfg.Prefix, log)

	deps := router.Deps{
		JWTSecret:    cfg.JWTSecret,
		Auth:         handler.NewAuthHandler(cfg, st.members),
		Reservations: handler.NewReservationHandler(svc),
		Admin:        handler.NewAdminReservationHandler(svc),
		Catalog: &handler.CatalogHandler{
			Booking:      svc,
			Popular:      ranker,
			Clock:        clk,
			PeriodDays:   cfg.PopularPeriodDays,
			DefaultCount: cfg.PopularCount,
			Cache:        rdb,
			CachePrefix:  cacheCfg.Prefix,
			Log:          log,
		},
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     cacheCfg,
		Log:       log,
	}
	if st.db != nil {
		deps.DB = st.db
	}
	e := router.New(deps)

	addr := ":" + cfg.Port
	go func() {
		log.Info("main: listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("main: server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("main: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("main: shutdown", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		mem := repository.NewMemoryStore()
		return stores{
			reservations: mem.Reservations(),
			times:        mem.TimeSlots(),
			themes:       mem.Themes(),
			members:      mem.Members(),
		}, nil
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return stores{}, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return stores{}, err
	}
	return stores{
		db:           db,
		reservations: repository.NewReservationRepo(db),
		times:        repository.NewTimeSlotRepo(db),
		themes:       repository.NewThemeRepo(db),
		members:      repository.NewMemberRepo(db),
	}, nil
}

// seedAdmin creates the ADMIN_EMAIL account on first start.
func seedAdmin(ctx context.Context, cfg config.Config, members handler.MemberAccounts) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	if _, err := members.FindByEmail(ctx, cfg.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	hash, err := utils.HashPassword(cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		return err
	}
	_, err = members.Create(ctx, model.Member{
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	})
	if errors.Is(err, repository.ErrEmailExists) {
		return nil
	}
	return err
}
