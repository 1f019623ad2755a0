package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/mfadel/spendwell/internal/config"
	"github.com/mfadel/spendwell/internal/httpapi"
	"github.com/mfadel/spendwell/internal/ledger"
	"github.com/mfadel/spendwell/internal/service/stats"
	"github.com/mfadel/spendwell/internal/service/transaction"
	"github.com/mfadel/spendwell/internal/service/wallet"
	fsstore "github.com/mfadel/spendwell/internal/storage/firestore"
	"github.com/mfadel/spendwell/internal/storage/memory"
	pgstore "github.com/mfadel/spendwell/internal/storage/postgres"
	"github.com/mfadel/spendwell/internal/upload"
)

// store is the full persistence surface the services need. Every backend
// implements all of it.
type store interface {
	wallet.Repo
	wallet.Writer
	wallet.TransactionPurger
	transaction.Repo
	transaction.Writer
	stats.Repo
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := buildLogger(cfg)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	var (
		st      store
		closeFn func()
	)
	switch cfg.DataBackend {
	case "postgres":
		if err := pgstore.Migrate(cfg.DatabaseURL); err != nil {
			logger.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		st, closeFn = pg, pg.Close
	case "firestore":
		fs, err := fsstore.Open(ctx, cfg.FirestoreProjectID)
		if err != nil {
			logger.Error("failed to connect to firestore", "err", err)
			os.Exit(1)
		}
		st, closeFn = fs, func() { _ = fs.Close() }
	default:
		mem := memory.New()
		seedDev(mem, logger)
		st = mem
	}
	logger.Info("storage backend selected", "backend", cfg.DataBackend)

	var uploader wallet.Uploader
	switch {
	case cfg.CloudinaryCloudName != "":
		uploader = upload.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset)
		logger.Info("image uploads via cloudinary", "cloud", cfg.CloudinaryCloudName)
	case cfg.DataBackend == "memory":
		// Local dev without cloudinary keeps references as-is.
		uploader = upload.Passthrough{}
	}

	wallets := wallet.New(st, st, st, uploader)
	transactions := transaction.New(st, st, st, wallets, uploader)
	statsSvc := stats.New(st)
	api := httpapi.New(wallets, transactions, statsSvc, st, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("spendwell service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

// seedDev plants one wallet so the memory backend is usable immediately.
func seedDev(mem *memory.Store, l *slog.Logger) {
	zero := decimal.MustNew(0, 0)
	owner := uuid.New()
	w := ledger.Wallet{
		ID:            uuid.New(),
		OwnerID:       owner,
		Name:          "Cash",
		Amount:        zero,
		TotalIncome:   zero,
		TotalExpenses: zero,
		CreatedAt:     time.Now().UTC(),
	}
	mem.SeedWallet(w)
	l.Info("DEV seed (memory)", "user_id", owner.String(), "wallet_id", w.ID.String())
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	if strings.ToLower(strings.TrimSpace(cfg.LogFormat)) == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
