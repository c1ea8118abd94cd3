package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/five82/arbox/internal/arbox"
	"github.com/five82/arbox/internal/config"
	"github.com/five82/arbox/internal/logging"
	"github.com/five82/arbox/internal/secrets"
)

// Options configure the arbox application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/arbox/prefs.toml
	PollEvery  int    // seconds; zero uses default
	Stdout     io.Writer
	Stderr     io.Writer
}

func (o Options) withDefaults() Options {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	return o
}

// Env holds the dependencies every command shares.
type Env struct {
	Config  config.Config
	Logger  *zap.Logger
	Client  *arbox.Client
	Session *arbox.Session
}

// Bootstrap loads the config and builds the logger, client and an
// unauthenticated session.
func Bootstrap(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	client, err := arbox.NewClient(cfg.BaseURL,
		arbox.WithTimeout(cfg.Timeout),
		arbox.WithLogger(logger),
	)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("init arbox client: %w", err)
	}

	return &Env{
		Config:  cfg,
		Logger:  logger,
		Client:  client,
		Session: arbox.NewSession(client),
	}, nil
}

// Close flushes buffered log output.
func (e *Env) Close() {
	if e == nil || e.Logger == nil {
		return
	}
	_ = e.Logger.Sync()
}

// Secrets reads the configured secret source.
func (e *Env) Secrets(ctx context.Context) (map[string]string, error) {
	values, err := secretSource(e.Config.Secrets).Lookup(ctx)
	if err != nil {
		return nil, fmt.Errorf("lookup secrets: %w", err)
	}
	return values, nil
}

// Authenticate installs a stored token pair, or logs in with stored
// credentials when no complete pair is available.
func (e *Env) Authenticate(ctx context.Context) error {
	values, err := e.Secrets(ctx)
	if err != nil {
		return err
	}
	creds, tokens, err := secrets.Resolve(values)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	if !tokens.Empty() {
		e.Session.SetTokens(tokens)
		e.Logger.Debug("using stored tokens", zap.String("source", e.Config.Secrets.Source))
		return nil
	}

	start := time.Now()
	if _, err := e.Session.Login(ctx, creds); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	if !e.Session.Authenticated() {
		return fmt.Errorf("authenticate: %w", arbox.ErrNotAuthenticated)
	}
	e.Logger.Info("logged in", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func secretSource(cfg config.Secrets) secrets.Source {
	if cfg.Source == "vault" {
		return secrets.VaultSource{
			Address: cfg.VaultAddress,
			Mount:   cfg.VaultMount,
			Path:    cfg.VaultPath,
		}
	}
	return secrets.EnvSource{File: cfg.EnvFile}
}

// Today returns the local calendar date of now as midnight UTC, which is how
// the schedule is addressed.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayQuery covers the calendar date of day from 00:00:00.000 to
// 23:59:59.999 UTC.
func DayQuery(day time.Time, locationBoxID, boxID int) arbox.ScheduleQuery {
	y, m, d := day.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return arbox.ScheduleQuery{
		From:          from,
		To:            from.Add(24*time.Hour - time.Millisecond),
		LocationBoxID: locationBoxID,
		BoxID:         boxID,
	}
}
