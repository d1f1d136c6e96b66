package serverrun

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/the-dev-tools/kanban/internal/api"
	"github.com/the-dev-tools/kanban/internal/api/rproject"
	"github.com/the-dev-tools/kanban/internal/api/rsection"
	"github.com/the-dev-tools/kanban/internal/api/rsubtask"
	"github.com/the-dev-tools/kanban/internal/api/rtask"
	"github.com/the-dev-tools/kanban/pkg/dbsetup"
	"github.com/the-dev-tools/kanban/pkg/service/sproject"
	"github.com/the-dev-tools/kanban/pkg/service/ssection"
	"github.com/the-dev-tools/kanban/pkg/service/ssubtask"
	"github.com/the-dev-tools/kanban/pkg/service/stask"

	"golang.org/x/sync/errgroup"
)

// Run wires the services and handlers and serves until a signal arrives.
//
// Environment variables:
//   - DB_PATH: sqlite database file (defaults to kanban.db)
//   - plus the listener variables read by api.ListenServices
func Run() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "kanban.db"
	}
	db, err := dbsetup.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("close db", "error", err)
		}
	}()
	if err := dbsetup.CreateTables(ctx, db); err != nil {
		return err
	}

	ps := sproject.New(db)
	ses := ssection.New(db, logger)
	ts := stask.New(db, logger)
	sts := ssubtask.New(db, logger)

	var services []api.Service
	services = append(services, rproject.New(db, ps, logger).Services()...)
	services = append(services, rsection.New(db, ses, ps, logger).Services()...)
	services = append(services, rtask.New(db, ts, ses, ps, logger).Services()...)
	services = append(services, rsubtask.New(db, sts, ts, logger).Services()...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.ListenServices(gctx, services)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return gctx.Err()
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
