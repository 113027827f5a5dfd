package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/emiliopalmerini/abkit/internal/adapters/otel"
	"github.com/emiliopalmerini/abkit/internal/adapters/turso"
	"github.com/emiliopalmerini/abkit/internal/adapters/webhook"
	"github.com/emiliopalmerini/abkit/internal/engine"
	"github.com/emiliopalmerini/abkit/internal/infrastructure/config"
	"github.com/emiliopalmerini/abkit/internal/migrate"
	"github.com/emiliopalmerini/abkit/internal/ports"
)

// AppContext holds the shared dependencies for CLI commands.
type AppContext struct {
	DB      *sql.DB
	Service *engine.Service
	Logger  *slog.Logger
	Config  *config.App
}

// NewAppContext loads configuration, connects to the database, runs pending
// migrations and wires the engine service.
func NewAppContext(ctx context.Context) (*AppContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := turso.NewDB(cfg.Database.URL, cfg.Database.AuthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrate.RunAll(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	sink, err := newSink(ctx, cfg.Telemetry, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	svc := engine.New(ctx, engine.Config{
		Experiments: turso.NewExperimentRepository(db, logger),
		Assignments: turso.NewAssignmentRepository(db, logger),
		Results:     turso.NewResultRepository(db),
		Sink:        sink,
		QueueSize:   cfg.Telemetry.QueueSize,
		Logger:      logger,
	})

	return &AppContext{DB: db, Service: svc, Logger: logger, Config: cfg}, nil
}

// Close drains pending telemetry and closes the database.
func (a *AppContext) Close(ctx context.Context) {
	if err := a.Service.Close(ctx); err != nil {
		a.Logger.Warn("failed to close service", "error", err)
	}
	_ = a.DB.Close()
}

func newSink(ctx context.Context, cfg config.Telemetry, logger *slog.Logger) (ports.TelemetrySink, error) {
	switch cfg.Sink {
	case "", "none":
		return webhook.NewNoOpSink(), nil
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("ABKIT_WEBHOOK_URL is required for the webhook sink")
		}
		return webhook.NewSink(cfg.WebhookURL), nil
	case "otel":
		sink, err := otel.NewSink(ctx, otel.LoadConfig())
		if err != nil {
			logger.Warn("OTEL sink unavailable, falling back to no-op", "error", err)
			return webhook.NewNoOpSink(), nil
		}
		return sink, nil
	default:
		return nil, fmt.Errorf("unknown telemetry sink %q", cfg.Sink)
	}
}
