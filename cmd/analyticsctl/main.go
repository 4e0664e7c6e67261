package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jengzang/quota-backend-go/internal/analytics"
	"github.com/jengzang/quota-backend-go/internal/config"
	"github.com/jengzang/quota-backend-go/internal/database"
	"github.com/jengzang/quota-backend-go/internal/logger"
	"github.com/jengzang/quota-backend-go/internal/middleware"
	"github.com/jengzang/quota-backend-go/internal/repository"
	"github.com/jengzang/quota-backend-go/internal/service"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

// app holds what every command needs
type app struct {
	cfg    *config.Config
	loc    *time.Location
	logger *zap.Logger
	db     *sql.DB
	runner *service.BackgroundRunner

	backfill   *service.BackfillService
	priorities *service.PriorityService
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(database.Config{Path: cfg.DBPath}, log)
	if err != nil {
		return nil, err
	}

	users := repository.NewUserRepository(db)
	groups := repository.NewResourceGroupRepository(db)
	records := repository.NewWorkRecordRepository(db)
	daily := repository.NewDailyAnalyticsRepository(db)

	runner := service.NewBackgroundRunner(log, nil, cfg.BackgroundTimeout)
	aggregator := service.NewDailyAggregator(records, repository.NewScheduleRepository(db), daily, loc, nil, log)
	quota := service.NewQuotaService(groups, records)

	return &app{
		cfg:        cfg,
		loc:        loc,
		logger:     log,
		db:         db,
		runner:     runner,
		backfill:   service.NewBackfillService(aggregator, daily, users, repository.NewCronJobLogRepository(db), runner, loc, nil, log),
		priorities: service.NewPriorityService(quota, repository.NewTaskRepository(db), repository.NewPriorityRepository(db), log),
	}, nil
}

func (a *app) close() {
	a.runner.Wait()
	a.db.Close()
	_ = a.logger.Sync()
}

func withApp(fn func(ctx context.Context, a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(context.Background(), a)
}

// RecomputeCommand rebuilds daily analytics for a user and date range
type RecomputeCommand struct {
	User int64  `long:"user" description:"user id" required:"true"`
	From string `long:"from" description:"first day, YYYY-MM-DD" required:"true"`
	To   string `long:"to" description:"last day, YYYY-MM-DD (defaults to --from)"`
}

func (c *RecomputeCommand) Execute([]string) error {
	return withApp(func(ctx context.Context, a *app) error {
		from, err := analytics.ParseDate(c.From, a.loc)
		if err != nil {
			return err
		}
		to := from
		if c.To != "" {
			if to, err = analytics.ParseDate(c.To, a.loc); err != nil {
				return err
			}
		}

		n, err := a.backfill.RecomputeRange(ctx, c.User, from, to)
		if err != nil {
			return err
		}
		fmt.Printf("recomputed %d day(s) for user %d\n", n, c.User)
		return nil
	})
}

// CatchUpCommand replays the days missed since the last completed run
type CatchUpCommand struct {
	Date string `long:"date" description:"run a single day for every user instead of catching up"`
}

func (c *CatchUpCommand) Execute([]string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if c.Date == "" {
			return a.backfill.OnServerStart(ctx)
		}
		day, err := analytics.ParseDate(c.Date, a.loc)
		if err != nil {
			return err
		}
		return a.backfill.RunForDate(ctx, day)
	})
}

// RefreshPrioritiesCommand recomputes one user's task ranking
type RefreshPrioritiesCommand struct {
	User int64 `long:"user" description:"user id" required:"true"`
}

func (c *RefreshPrioritiesCommand) Execute([]string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.priorities.RefreshAll(ctx, c.User); err != nil {
			return err
		}
		tasks, err := a.priorities.GetSortedAllTasks(ctx, c.User)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			fmt.Printf("%8d  %-7s %6d  %s\n", t.PriorityScore, t.TargetType, t.ID, t.Title)
		}
		return nil
	})
}

// TokenCommand prints a bearer token for a user
type TokenCommand struct {
	User int64         `long:"user" description:"user id" required:"true"`
	TTL  time.Duration `long:"ttl" description:"token lifetime" default:"24h"`
}

func (c *TokenCommand) Execute([]string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	token, err := middleware.IssueToken(cfg.JWTSecret, c.User, c.TTL)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func main() {
	parser := flags.NewParser(nil, flags.HelpFlag|flags.PassDoubleDash)
	mustAdd(parser.AddCommand("recompute", "Recompute daily analytics",
		"Rebuilds the daily analytics rows of one user for a date range.", &RecomputeCommand{}))
	mustAdd(parser.AddCommand("catch-up", "Replay missed days",
		"Runs the startup catch-up, or a single day with --date.", &CatchUpCommand{}))
	mustAdd(parser.AddCommand("refresh-priorities", "Refresh task priorities",
		"Rescores every active task of a user and prints the ranking.", &RefreshPrioritiesCommand{}))
	mustAdd(parser.AddCommand("token", "Issue an API token",
		"Signs a bearer token with the configured JWT secret.", &TokenCommand{}))

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Println(err)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func mustAdd(_ *flags.Command, err error) {
	if err != nil {
		panic(err)
	}
}
