// Package app assembles the sync engine: configuration, logging, storage,
// the shared rate limiter, the Discogs client factory and the orchestrator,
// plus the command surface the CLI drives.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/asetate/asetate/internal/backup"
	"github.com/asetate/asetate/internal/common"
	"github.com/asetate/asetate/internal/config"
	"github.com/asetate/asetate/internal/cryptox"
	"github.com/asetate/asetate/internal/discogs"
	"github.com/asetate/asetate/internal/logging"
	"github.com/asetate/asetate/internal/models"
	"github.com/asetate/asetate/internal/ratelimit"
	"github.com/asetate/asetate/internal/repositories/repomanager"
	"github.com/asetate/asetate/internal/syncer"
)

// TokenPrompt asks the operator for a Discogs personal access token.
type TokenPrompt func(username string) (string, error)

const (
	statusPollInterval = 300 * time.Millisecond
	shutdownTimeout    = 10 * time.Second
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	orch     *syncer.Orchestrator
	backups  *backup.Service
	uploader *backup.Uploader
	tokenKey []byte
}

func NewApp(cfg *config.Config) (*App, error) {
	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	repos, err := repomanager.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return newApp(cfg, logger, repos), nil
}

// newApp finishes assembly on top of any RepositoryManager; tests pass the
// in-memory one.
func newApp(cfg *config.Config, logger logging.Logger, repos repomanager.RepositoryManager) *App {
	tokenKey := cryptox.DeriveKey([]byte(cfg.SecretKey))
	limiter := ratelimit.New(cfg.RateLimitQuota, cfg.RateLimitPeriod, 1)

	factory := func(token string) syncer.CollectionAPI {
		return discogs.NewClient(cfg.DiscogsBaseURL, token, cfg.RequestTimeout)
	}

	orch := syncer.NewOrchestrator(repos, limiter, factory, tokenKey, syncer.Options{
		PageSize:          cfg.PageSize,
		MaxRetries:        cfg.MaxRetries,
		FetchTrackDetails: cfg.FetchTrackDetails,
	}, logger)

	return &App{
		config:  cfg,
		logger:  logger,
		repos:   repos,
		orch:    orch,
		backups: backup.NewService(repos.Releases(), logger),
		uploader: backup.NewUploader(backup.S3Options{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		}),
		tokenKey: tokenKey,
	}
}

// Init connects storage and applies migrations.
func (a *App) Init(ctx context.Context) error {
	return a.repos.Init(ctx)
}

func (a *App) Close() error {
	return a.repos.Close()
}

// EnsureUser looks the user up by Discogs username, creating them (and
// prompting for a token) on first contact. An existing user without a stored
// token is prompted too.
func (a *App) EnsureUser(ctx context.Context, username string, prompt TokenPrompt) (*models.User, error) {
	user, err := a.repos.Users().GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	if user == nil {
		token, err := prompt(username)
		if err != nil {
			return nil, err
		}
		ct, nonce, err := cryptox.EncryptToken(token, a.tokenKey)
		if err != nil {
			return nil, err
		}
		user = &models.User{
			ID:              uuid.NewString(),
			DiscogsUsername: username,
			TokenCiphertext: ct,
			TokenNonce:      nonce,
		}
		if err := a.repos.Users().Create(ctx, user); err != nil {
			return nil, err
		}
		a.logger.Info(ctx, "user registered", "username", username)
		return user, nil
	}

	if !user.HasToken() {
		token, err := prompt(username)
		if err != nil {
			return nil, err
		}
		ct, nonce, err := cryptox.EncryptToken(token, a.tokenKey)
		if err != nil {
			return nil, err
		}
		if err := a.repos.Users().UpdateToken(ctx, user.ID, ct, nonce); err != nil {
			return nil, err
		}
		user.TokenCiphertext = ct
		user.TokenNonce = nonce
	}
	return user, nil
}

// Sync runs a sync to completion in the foreground. SIGINT/SIGTERM pause the
// run; the checkpoint is already durable, so a later resume picks up where
// it left off. With resume set, the latest paused or failed run is continued
// instead of starting fresh.
func (a *App) Sync(ctx context.Context, username string, resume bool, prompt TokenPrompt) (*models.SyncRun, error) {
	user, err := a.EnsureUser(ctx, username, prompt)
	if err != nil {
		return nil, err
	}

	if resume {
		_, err = a.orch.ResumeSync(ctx, user.ID)
	} else {
		_, err = a.orch.StartSync(ctx, user.ID)
	}
	if err != nil && !errors.Is(err, syncer.ErrAlreadyRunning) {
		return nil, err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sigs:
			a.logger.Info(ctx, "interrupt received, pausing sync")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			err := a.orch.Shutdown(shutdownCtx)
			cancel()
			if err != nil {
				return nil, err
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			_ = a.orch.Shutdown(shutdownCtx)
			cancel()
			return nil, ctx.Err()
		case <-ticker.C:
		}

		run, err := a.orch.GetSyncStatus(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if run.IsTerminal() || run.Status == models.SyncPaused {
			if run.Status == models.SyncFailed {
				return run, fmt.Errorf("sync failed: %s", run.LastError)
			}
			return run, nil
		}
	}
}

// Status returns the latest run of the user.
func (a *App) Status(ctx context.Context, username string) (*models.SyncRun, error) {
	user, err := a.repos.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return a.orch.GetSyncStatus(ctx, user.ID)
}

// Pause pauses the user's in-flight run within this process.
func (a *App) Pause(ctx context.Context, username string) error {
	user, err := a.repos.Users().GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return a.orch.PauseSync(user.ID)
}

// Cancel abandons the user's sync, running or paused.
func (a *App) Cancel(ctx context.Context, username string) error {
	user, err := a.repos.Users().GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return a.orch.CancelSync(ctx, user.ID)
}

// Backup exports user annotations to a local file and, when upload is set,
// to S3-compatible storage. It returns the file path and the object key
// (empty when not uploaded).
func (a *App) Backup(ctx context.Context, username string, upload bool) (string, string, error) {
	user, err := a.repos.Users().GetByUsername(ctx, username)
	if err != nil {
		return "", "", err
	}

	archive, err := a.backups.Export(ctx, user.ID)
	if err != nil {
		return "", "", err
	}

	path, err := a.backups.WriteFile(archive, a.config.BackupDir)
	if err != nil {
		return "", "", err
	}

	var key string
	if upload {
		key, err = a.uploader.Upload(ctx, archive)
		if err != nil {
			return path, "", err
		}
	}
	return path, key, nil
}

// Restore applies a previously exported archive onto the user's catalog.
func (a *App) Restore(ctx context.Context, username, path string) (applied, skipped int, err error) {
	user, err := a.repos.Users().GetByUsername(ctx, username)
	if err != nil {
		return 0, 0, err
	}
	archive, err := backup.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	return a.backups.Restore(ctx, user.ID, archive)
}
