package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/observe"
)

// FailoverConfig configures a FailoverClient.
type FailoverConfig struct {
	// RestoreAfter is how long the backup serves before the primary is
	// tried again.
	// Default: 5m
	RestoreAfter time.Duration

	// Logger receives switch notices. Default: no-op.
	Logger observe.Logger

	// Now overrides the clock.
	Now func() time.Time
}

// FailoverClient sends requests to a primary client and switches to a
// backup when the primary fails. While switched, the primary is retried
// once RestoreAfter has passed.
type FailoverClient struct {
	primary Client
	backup  Client
	config  FailoverConfig
	logger  observe.Logger

	mu         sync.Mutex
	onBackup   bool
	switchedAt time.Time
}

// NewFailoverClient creates a failover pair. A nil backup makes the client
// a pass-through to primary.
func NewFailoverClient(primary, backup Client, config FailoverConfig) (*FailoverClient, error) {
	if primary == nil {
		return nil, ErrNoClient
	}
	if config.RestoreAfter <= 0 {
		config.RestoreAfter = 5 * time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &FailoverClient{
		primary: primary,
		backup:  backup,
		config:  config,
		logger:  observe.OrNop(config.Logger),
	}, nil
}

// Name implements Client.
func (f *FailoverClient) Name() string {
	if f.backup == nil {
		return f.primary.Name()
	}
	return f.primary.Name() + "+" + f.backup.Name()
}

// Active returns the client that will serve the next request.
func (f *FailoverClient) Active() Client {
	if f.useBackup() {
		return f.backup
	}
	return f.primary
}

// Generate implements Client.
func (f *FailoverClient) Generate(ctx context.Context, req Request) (Response, error) {
	if f.useBackup() {
		return f.backup.Generate(ctx, req)
	}

	resp, err := f.primary.Generate(ctx, req)
	if err == nil || f.backup == nil || !switchable(err) {
		return resp, err
	}

	f.mu.Lock()
	f.onBackup = true
	f.switchedAt = f.config.Now()
	f.mu.Unlock()
	f.logger.Warn(ctx, "switching to backup llm provider",
		observe.F("primary", f.primary.Name()),
		observe.F("backup", f.backup.Name()),
		observe.Err(err),
	)

	return f.backup.Generate(ctx, req)
}

func (f *FailoverClient) useBackup() bool {
	if f.backup == nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.onBackup {
		return false
	}
	if f.config.Now().Sub(f.switchedAt) >= f.config.RestoreAfter {
		f.onBackup = false
		f.logger.Info(context.Background(), "restoring primary llm provider",
			observe.F("primary", f.primary.Name()))
		return false
	}
	return true
}

// switchable reports whether a primary failure should move traffic to the
// backup. Bad requests would fail on either provider.
func switchable(err error) bool {
	return !errors.Is(err, context.Canceled) && !faults.IsValidation(err)
}
