package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/akhilbawari/taskpal/internal/models"
	"github.com/akhilbawari/taskpal/internal/server"
	"github.com/akhilbawari/taskpal/internal/shared"
	"github.com/akhilbawari/taskpal/internal/tasks"
)

// CalendarAuth links a user's Google Calendar via the OAuth2 authorization
// code flow, then backfills events for their existing tasks.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) CalendarAuth(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(); err != nil {
		return err
	}

	if _, err := r.requireCalendar(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	token, err := r.doOAuth(user)
	if err != nil {
		return err
	}

	var expiry *time.Time
	if !token.Expiry.IsZero() {
		expiry = &token.Expiry
	}
	user.LinkCalendar(token.AccessToken, token.RefreshToken, expiry)

	if err := r.users.Update(user); err != nil {
		return fmt.Errorf("failed to store tokens: %w", err)
	}

	r.writePlainln("✓ Calendar linked for %s", user.Email())

	result, err := r.runBackfill(ctx, user, tasks.BackfillOpts{
		NumWorkers: r.config.Sync.NumWorkers,
		RateLimit:  r.config.Sync.RateLimit,
	})
	if err != nil {
		return err
	}

	return r.printBackfill(result)
}

// CalendarBackfill creates events for every linked, due-dated task that has
// no event yet.
func (r *Runner) CalendarBackfill(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(); err != nil {
		return err
	}

	if _, err := r.requireCalendar(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	opts := tasks.BackfillOpts{
		NumWorkers: r.config.Sync.NumWorkers,
		RateLimit:  r.config.Sync.RateLimit,
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = cmd.Int("workers")
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}

	result, err := r.runBackfill(ctx, user, opts)
	if err != nil {
		return err
	}

	return r.printBackfill(result)
}

// CalendarUnlink drops the user's stored tokens and forgets every synced
// event id. Remote events are left in place.
func (r *Runner) CalendarUnlink(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	if !user.CalendarLinked() {
		return fmt.Errorf("%w: %s", shared.ErrNotLinked, user.Email())
	}

	user.UnlinkCalendar()
	if err := r.users.Update(user); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}

	if err := r.taskRepo.ClearEventIDs(user.ID()); err != nil {
		return err
	}

	return r.writePlain("✓ Calendar unlinked for %s\n", user.Email())
}

// doOAuth runs the authorization code flow against a loopback callback
// server, using the user id as the state parameter.
func (r *Runner) doOAuth(user *models.User) (*oauth2.Token, error) {
	state := user.ID()
	authURL := r.calendar.AuthURL(state)

	oauthHandler := server.NewOAuthHandler(r.calendar, state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Google authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrAuthFailed)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}

// runBackfill drives a backfill while streaming progress lines to output.
func (r *Runner) runBackfill(ctx context.Context, user *models.User, opts tasks.BackfillOpts) (*tasks.BackfillResult, error) {
	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			if update.Err != nil {
				r.writePlain("✗ %s: %v\n", update.Message, update.Err)
			} else {
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()

	result, err := r.syncer.Backfill(ctx, progress, user, opts)
	close(progress)
	<-done

	return result, err
}

func (r *Runner) printBackfill(result *tasks.BackfillResult) error {
	r.writePlainln("Backfill summary")
	r.writePlain("  Eligible: %d\n", result.TotalTasks)
	r.writePlain("  Skipped:  %d\n", result.Skipped)
	r.writePlain("  Synced:   %d\n", result.Succeeded)
	r.writePlain("  Failed:   %d\n", result.Failed)

	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  ✗ %s: %v\n", res.Title, res.Error)
		}
	}

	return nil
}
