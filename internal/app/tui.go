package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/arbox/internal/prefs"
	"github.com/five82/arbox/internal/state"
	"github.com/five82/arbox/internal/ui"
)

func runTUI(ctx context.Context, env *Env, opts Options, args []string) error {
	fs := newFlagSet("tui", opts.Stderr)
	pollSeconds := fs.Int("poll", opts.PollEvery, "refresh interval in seconds (default 60)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := env.Authenticate(ctx); err != nil {
		return err
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		env.Logger.Warn("prefs unavailable, using defaults", zap.Error(err))
	}

	interval := time.Duration(*pollSeconds) * time.Second
	store := &state.Store{}
	poller := NewPoller(env.Session, store, env.Config.LocationBoxID, env.Config.BoxID, env.Logger, interval)

	env.Logger.Info("polling schedule",
		zap.Duration("interval", poller.Interval()),
		zap.Int("location_box_id", env.Config.LocationBoxID),
		zap.Int("box_id", env.Config.BoxID),
	)

	// Populate the store before the UI starts.
	_ = poller.Refresh(ctx)
	poller.Start(ctx)

	return ui.Run(ui.Options{
		Context:          ctx,
		Bookings:         env.Session,
		Schedule:         poller,
		Store:            store,
		Logger:           env.Logger,
		MembershipUserID: env.Config.MembershipUserID,
		LogPath:          env.Config.LogFile,
		PollTick:         time.Second,
		ThemeName:        userPrefs.Theme,
		PrefsPath:        opts.PrefsPath,
	})
}
