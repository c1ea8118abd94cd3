// Package app is the composition root of arbox.
//
// # Overview
//
// Run loads the config, builds the zap logger and the Arbox client, wraps the
// client in a session and dispatches to a subcommand. Every subcommand except
// login first authenticates: a stored token pair is installed as-is, otherwise
// the stored credentials are used to log in.
//
// # Commands
//
//   - login: log in with stored credentials and print the token pair
//   - profile: print the member profile
//   - schedule: print the schedule for a day or an explicit range
//   - book: book a class for a membership
//   - cancel: cancel a booking, optionally as a late cancel
//   - tui: the interactive schedule browser (default)
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       ├─────> config.Load()        Read ~/.config/arbox/config.toml
//	       ├─────> logging.New()        JSON log file
//	       ├─────> arbox.NewClient()    HTTP client
//	       ├─────> Env.Authenticate()   secrets → tokens or login
//	       └─────> command
//
//	tui:
//	  NewPoller() ──> Refresh() ──> state.Store.Update()
//	       │                               │
//	       └── Start(): every 60s           └──> ui reads Store.Snapshot()
//
// # Polling Behavior
//
// The poller refreshes the day selected in the UI at a fixed interval. A
// failure is recorded in the store and logged; the next attempt is the next
// tick. There is no retry or backoff, and a result for a day the user has
// navigated away from is discarded.
//
// # Usage Example
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := app.Run(ctx, app.Options{}, os.Args[1:]); err != nil {
//		log.Fatalf("arbox: %v", err)
//	}
package app
