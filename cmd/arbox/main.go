package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/arbox/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = usage
	configPath := flag.String("config", "", "override arbox config path (optional)")
	prefsPath := flag.String("prefs", "", "override TUI prefs path (optional)")
	pollSeconds := flag.Int("poll", 0, "TUI refresh interval in seconds (optional, defaults to 60s)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		PollEvery:  *pollSeconds,
	}
	if err := app.Run(ctx, opts, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "arbox: %v\n", err)
		return 1
	}
	return 0
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: arbox [flags] [command] [command flags]

commands:
  login      log in with stored credentials and print the token pair
  profile    print the member profile
  schedule   print a day's schedule (-day, -from, -to, -location, -box)
  book       book a class (-schedule, -membership, -extras)
  cancel     cancel a booking (-schedule, -schedule-user, -late)
  tui        interactive schedule browser (default)

flags:
`)
	flag.PrintDefaults()
}
