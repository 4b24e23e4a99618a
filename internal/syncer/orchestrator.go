package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asetate/asetate/internal/common"
	"github.com/asetate/asetate/internal/cryptox"
	"github.com/asetate/asetate/internal/discogs"
	"github.com/asetate/asetate/internal/logging"
	"github.com/asetate/asetate/internal/models"
	"github.com/asetate/asetate/internal/ratelimit"
	"github.com/asetate/asetate/internal/repositories/repomanager"
)

// Options tunes a sync Orchestrator.
type Options struct {
	PageSize          int
	MaxRetries        int
	FetchTrackDetails bool
}

// ClientFactory builds a Discogs client for one user's token.
type ClientFactory func(token string) CollectionAPI

// Orchestrator owns sync run lifecycles. One run per user at a time; runs
// for different users proceed concurrently but share the credential-wide
// rate limiter.
type Orchestrator struct {
	repos     repomanager.RepositoryManager
	limiter   *ratelimit.Limiter
	newClient ClientFactory
	tokenKey  []byte
	opts      Options
	logger    logging.Logger

	mu      sync.Mutex
	runners map[string]*runner
	wg      sync.WaitGroup
}

// runner is the in-flight state of one user's sync. The slot in
// Orchestrator.runners is claimed before any setup I/O; run stays nil until
// launch and is guarded by the orchestrator's mutex.
type runner struct {
	run    *models.SyncRun
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	stopReason models.SyncRunStatus
}

// setStopReason records why the runner's ctx is about to be cancelled.
// The first reason wins.
func (r *runner) setStopReason(reason models.SyncRunStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopReason == "" {
		r.stopReason = reason
	}
}

func (r *runner) getStopReason() models.SyncRunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopReason
}

func NewOrchestrator(repos repomanager.RepositoryManager, limiter *ratelimit.Limiter,
	newClient ClientFactory, tokenKey []byte, opts Options, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		repos:     repos,
		limiter:   limiter,
		newClient: newClient,
		tokenKey:  tokenKey,
		opts:      opts,
		logger:    logger.With("component", "orchestrator"),
		runners:   make(map[string]*runner),
	}
}

// StartSync begins a fresh run for the user. If a run is already in flight
// its SyncRun is returned together with ErrAlreadyRunning, so callers can
// treat a double start as idempotent.
// The returned run is nil when the competing start is still setting up.
func (o *Orchestrator) StartSync(ctx context.Context, userID string) (*models.SyncRun, error) {
	r, current, err := o.reserve(userID)
	if err != nil {
		return current, err
	}

	token, user, err := o.credentials(ctx, userID)
	if err != nil {
		o.unreserve(userID, r)
		return nil, err
	}

	run := &models.SyncRun{
		ID:     uuid.NewString(),
		UserID: userID,
		Status: models.SyncPending,
	}
	if err := o.repos.SyncRuns().Create(ctx, run); err != nil {
		o.unreserve(userID, r)
		return nil, err
	}

	// A fresh run restarts the removal sweep from scratch.
	if err := NewReconciler(o.repos.Releases(), o.logger).BeginSweep(ctx, userID); err != nil {
		o.unreserve(userID, r)
		return nil, err
	}

	o.launch(r, run, user.DiscogsUsername, token, 1)
	return run, nil
}

// ResumeSync continues the user's latest paused or failed run from its
// checkpoint. The run keeps its identity, counters and sweep state; no
// presence flags are reset, so pages already processed are not re-counted
// as missing.
func (o *Orchestrator) ResumeSync(ctx context.Context, userID string) (*models.SyncRun, error) {
	r, current, err := o.reserve(userID)
	if err != nil {
		return current, err
	}

	run, err := o.repos.SyncRuns().GetLatest(ctx, userID)
	if err != nil {
		o.unreserve(userID, r)
		return nil, err
	}
	if !run.CanResume() {
		o.unreserve(userID, r)
		return nil, fmt.Errorf("%w: status %s", ErrNotResumable, run.Status)
	}

	cp, err := o.repos.Checkpoints().Load(ctx, userID)
	if err != nil {
		o.unreserve(userID, r)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrNoCheckpoint
		}
		return nil, err
	}
	if cp.RunID != run.ID {
		o.unreserve(userID, r)
		return nil, ErrNoCheckpoint
	}

	token, user, err := o.credentials(ctx, userID)
	if err != nil {
		o.unreserve(userID, r)
		return nil, err
	}

	run.LastError = ""
	o.launch(r, run, user.DiscogsUsername, token, cp.NextPage)
	return run, nil
}

// PauseSync stops the user's in-flight run after the current write finishes.
// The checkpoint stays, so the run can be resumed later.
func (o *Orchestrator) PauseSync(userID string) error {
	return o.stop(userID, models.SyncPaused)
}

// CancelSync abandons the user's sync. An in-flight run is stopped and its
// checkpoint discarded; a paused run is finalized as cancelled directly.
func (o *Orchestrator) CancelSync(ctx context.Context, userID string) error {
	err := o.stop(userID, models.SyncCancelled)
	if !errors.Is(err, ErrNotRunning) {
		return err
	}

	run, err := o.repos.SyncRuns().GetLatest(ctx, userID)
	if err != nil {
		return err
	}
	if !run.CanResume() {
		return ErrNotRunning
	}

	run.Cancel(time.Now())
	if err := o.repos.SyncRuns().Update(ctx, run); err != nil {
		return err
	}
	return o.repos.Checkpoints().Clear(ctx, run.ID)
}

// GetSyncStatus returns the user's latest run, live or historical.
func (o *Orchestrator) GetSyncStatus(ctx context.Context, userID string) (*models.SyncRun, error) {
	return o.repos.SyncRuns().GetLatest(ctx, userID)
}

// Shutdown pauses every in-flight run and waits for the runners to persist
// their final state. Paused runs resume cleanly on the next start.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	for _, r := range o.runners {
		r.setStopReason(models.SyncPaused)
		r.cancel()
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) stop(userID string, reason models.SyncRunStatus) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	r, ok := o.runners[userID]
	if !ok {
		return ErrNotRunning
	}
	r.setStopReason(reason)
	r.cancel()
	return nil
}

func (o *Orchestrator) credentials(ctx context.Context, userID string) (string, *models.User, error) {
	user, err := o.repos.Users().GetByID(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	if !user.HasToken() {
		return "", nil, common.ErrNoCredentials
	}
	token, err := cryptox.DecryptToken(user.TokenCiphertext, user.TokenNonce, o.tokenKey)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", common.ErrNoCredentials, err)
	}
	return token, user, nil
}

// reserve claims the user's runner slot before any setup I/O happens, so two
// competing starts can never both launch. The loser sees the winner's run
// (nil while the winner is still between reservation and launch) together
// with ErrAlreadyRunning.
func (o *Orchestrator) reserve(userID string) (*runner, *models.SyncRun, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if r, ok := o.runners[userID]; ok {
		return nil, r.run, ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &runner{ctx: ctx, cancel: cancel}
	o.runners[userID] = r
	return r, nil, nil
}

// unreserve frees the slot if r still owns it.
func (o *Orchestrator) unreserve(userID string, r *runner) {
	o.mu.Lock()
	if o.runners[userID] == r {
		delete(o.runners, userID)
	}
	o.mu.Unlock()
	r.cancel()
}

func (o *Orchestrator) launch(r *runner, run *models.SyncRun, username, token string, startPage int) {
	o.mu.Lock()
	r.run = run
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.unreserve(run.UserID, r)
		o.runLoop(r.ctx, r, username, token, startPage)
	}()
}

// runLoop drives one run from startPage to a terminal or paused state.
// Progress and the checkpoint are persisted after every page, so a crash
// at any point loses at most the in-flight page.
func (o *Orchestrator) runLoop(ctx context.Context, r *runner, username, token string, startPage int) {
	run := r.run
	log := o.logger.With("run_id", run.ID, "user_id", run.UserID)

	fetcher := NewPageFetcher(o.newClient(token), o.limiter, username,
		o.opts.PageSize, o.opts.MaxRetries, startPage)
	rec := NewReconciler(o.repos.Releases(), o.logger)

	// Persistence below uses a background ctx: the run ctx being cancelled
	// is exactly when final state must still be written.
	saveCtx := context.Background()

	run.Start(time.Now())
	if err := o.repos.SyncRuns().Update(saveCtx, run); err != nil {
		log.Error(saveCtx, "persisting run start", "error", err)
	}

	// Checkpoint from the first moment, so a run paused before any page
	// completes is still resumable (and a stale checkpoint from a superseded
	// run is overwritten right away).
	start := &models.Checkpoint{RunID: run.ID, UserID: run.UserID, NextPage: startPage}
	if err := o.repos.Checkpoints().Save(saveCtx, start); err != nil {
		o.interrupt(saveCtx, log, r, err)
		return
	}
	log.Info(ctx, "sync started", "page", startPage)

	for {
		page, err := fetcher.Next(ctx)
		if errors.Is(err, ErrNoMorePages) {
			o.finish(saveCtx, log, rec, run)
			return
		}
		if err != nil {
			o.interrupt(saveCtx, log, r, err)
			return
		}

		if err := o.processPage(ctx, log, rec, fetcher, run, page); err != nil {
			o.interrupt(saveCtx, log, r, err)
			return
		}

		now := time.Now()
		run.TotalPages = fetcher.TotalPages()
		run.TotalItems = fetcher.TotalItems()
		run.PagesCompleted++
		run.LastProgressAt = &now

		cp := &models.Checkpoint{
			RunID:    run.ID,
			UserID:   run.UserID,
			NextPage: fetcher.NextPage(),
		}
		if err := o.repos.Checkpoints().Save(saveCtx, cp); err != nil {
			o.interrupt(saveCtx, log, r, err)
			return
		}
		if err := o.repos.SyncRuns().Update(saveCtx, run); err != nil {
			o.interrupt(saveCtx, log, r, err)
			return
		}

		log.Info(ctx, "page reconciled",
			"page", page.Pagination.Page, "of", run.TotalPages,
			"added", run.Added, "updated", run.Updated, "unchanged", run.Unchanged)
	}
}

func (o *Orchestrator) processPage(ctx context.Context, log logging.Logger, rec *Reconciler,
	fetcher *PageFetcher, run *models.SyncRun, page *discogs.CollectionPage) error {
	for _, item := range page.Releases {
		if err := ctx.Err(); err != nil {
			return err
		}

		var details *discogs.ReleaseDetails
		if o.opts.FetchTrackDetails {
			var err error
			details, err = fetcher.Details(ctx, item.BasicInformation.ID)
			if err != nil {
				// A single bad release record should not sink the run.
				if errors.Is(err, ErrPermanent) && !errors.Is(err, discogs.ErrAuth) {
					log.Warn(ctx, "skipping tracklist", "discogs_id", item.BasicInformation.ID, "error", err)
				} else {
					return err
				}
			}
		}

		outcome, err := rec.Apply(ctx, run.UserID, discogs.ParseRelease(item, details), time.Now())
		if err != nil {
			return err
		}

		switch outcome {
		case OutcomeCreated:
			run.Added++
		case OutcomeUpdated:
			run.Updated++
		case OutcomeUnchanged:
			run.Unchanged++
		}
		run.ProcessedItems++
	}
	return nil
}

// finish completes the sweep and finalizes the run.
func (o *Orchestrator) finish(ctx context.Context, log logging.Logger, rec *Reconciler, run *models.SyncRun) {
	removed, err := rec.FinishSweep(ctx, run.UserID, time.Now())
	if err != nil {
		run.Fail(err.Error())
		o.persistFinal(ctx, log, run, false)
		return
	}
	run.Removed = int(removed)
	run.Complete(time.Now())
	o.persistFinal(ctx, log, run, true)
	log.Info(ctx, "sync completed",
		"added", run.Added, "updated", run.Updated,
		"unchanged", run.Unchanged, "removed", run.Removed)
}

// interrupt resolves a stopped run into paused, cancelled or failed.
// A ctx cancellation without an explicit reason counts as a pause, so an
// external shutdown never loses the checkpoint.
func (o *Orchestrator) interrupt(ctx context.Context, log logging.Logger, r *runner, cause error) {
	run := r.run
	reason := r.getStopReason()

	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		if reason == "" {
			reason = models.SyncPaused
		}
	} else {
		reason = models.SyncFailed
	}

	switch reason {
	case models.SyncCancelled:
		run.Cancel(time.Now())
		o.persistFinal(ctx, log, run, true)
		log.Info(ctx, "sync cancelled")
	case models.SyncFailed:
		run.Fail(cause.Error())
		o.persistFinal(ctx, log, run, false)
		log.Error(ctx, "sync failed", "error", cause)
	default:
		run.Pause()
		o.persistFinal(ctx, log, run, false)
		log.Info(ctx, "sync paused", "pages_completed", run.PagesCompleted)
	}
}

// persistFinal writes the run's final state; clearCheckpoint discards the
// resume pointer for terminal states that must not be resumed.
func (o *Orchestrator) persistFinal(ctx context.Context, log logging.Logger, run *models.SyncRun, clearCheckpoint bool) {
	if err := o.repos.SyncRuns().Update(ctx, run); err != nil {
		log.Error(ctx, "persisting final run state", "error", err)
	}
	if clearCheckpoint {
		if err := o.repos.Checkpoints().Clear(ctx, run.ID); err != nil {
			log.Error(ctx, "clearing checkpoint", "error", err)
		}
	}
}
