// Command repairer rewrites dangling wallet references. With no arguments it
// sweeps every user; otherwise only the user ids given. When REPAIR_SCHEDULE
// is set it keeps running and sweeps on that cron schedule instead.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/advansoftware/finwise-installments/internal/config"
	"github.com/advansoftware/finwise-installments/internal/domain"
	"github.com/advansoftware/finwise-installments/internal/repository"
	"github.com/advansoftware/finwise-installments/internal/service"
	"github.com/advansoftware/finwise-installments/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()
	db, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		log.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	store := repository.NewStore(db)
	repairer := service.NewInstallmentService(store.Repositories, store, cfg, service.WithLogger(log))
	userIDs := os.Args[1:]

	if cfg.Repair.Schedule == "" {
		if err := sweep(ctx, log, repairer, userIDs); err != nil {
			os.Exit(1)
		}
		return
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.Repair.Schedule, func() {
		_ = sweep(context.Background(), log, repairer, userIDs)
	})
	if err != nil {
		log.Error("failed to schedule repair job", "schedule", cfg.Repair.Schedule, "error", err)
		os.Exit(1)
	}

	c.Start()
	log.Info("repair scheduler started", "schedule", cfg.Repair.Schedule)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down repair scheduler")
	<-c.Stop().Done()
	log.Info("repair scheduler stopped")
}

type repairService interface {
	RepairOrphanedReferences(ctx context.Context, userID string) (*domain.RepairResult, error)
	RepairAllUsers(ctx context.Context) (*domain.RepairResult, error)
}

// sweep repairs the given users, or everyone when none are given. A failing
// user does not stop the others; the last error is returned.
func sweep(ctx context.Context, log *slog.Logger, repairer repairService, userIDs []string) error {
	if len(userIDs) == 0 {
		result, err := repairer.RepairAllUsers(ctx)
		if err != nil {
			log.Error("repair sweep failed", "error", err)
			return err
		}
		log.Info("repair sweep finished",
			"plans_repaired", result.PlansRepaired,
			"transactions_repaired", result.TransactionsRepaired,
		)
		return nil
	}

	var lastErr error
	total := domain.RepairResult{}
	for _, userID := range userIDs {
		result, err := repairer.RepairOrphanedReferences(ctx, userID)
		if err != nil {
			log.Error("repair failed", "user_id", userID, "error", err)
			lastErr = err
			continue
		}
		total.PlansRepaired += result.PlansRepaired
		total.TransactionsRepaired += result.TransactionsRepaired
	}

	log.Info("repair sweep finished",
		"users", len(userIDs),
		"plans_repaired", total.PlansRepaired,
		"transactions_repaired", total.TransactionsRepaired,
	)
	return lastErr
}
