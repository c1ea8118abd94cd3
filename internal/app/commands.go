package app

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/five82/arbox/internal/arbox"
	"github.com/five82/arbox/internal/secrets"
)

type command func(ctx context.Context, env *Env, opts Options, args []string) error

var commands = map[string]command{
	"login":    runLogin,
	"profile":  runProfile,
	"schedule": runSchedule,
	"book":     runBook,
	"cancel":   runCancel,
	"tui":      runTUI,
}

// Run executes the subcommand named by args[0]. No arguments starts the TUI.
func Run(ctx context.Context, opts Options, args []string) error {
	opts = opts.withDefaults()

	name := "tui"
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}

	env, err := Bootstrap(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	return cmd(ctx, env, opts, args)
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func runLogin(ctx context.Context, env *Env, opts Options, args []string) error {
	fs := newFlagSet("login", opts.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	values, err := env.Secrets(ctx)
	if err != nil {
		return err
	}
	creds := arbox.Credentials{
		Email:    values[secrets.KeyEmail],
		Password: values[secrets.KeyPassword],
	}
	if creds.Email == "" || creds.Password == "" {
		return fmt.Errorf("login needs email and password: %w", secrets.ErrNoSecrets)
	}

	tokens, err := env.Session.Login(ctx, creds)
	if err != nil {
		return err
	}
	return writeJSON(opts.Stdout, tokens)
}

func runProfile(ctx context.Context, env *Env, opts Options, args []string) error {
	fs := newFlagSet("profile", opts.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := env.Authenticate(ctx); err != nil {
		return err
	}
	raw, err := env.Session.Profile(ctx)
	if err != nil {
		return err
	}
	return writeRaw(opts.Stdout, raw)
}

func runSchedule(ctx context.Context, env *Env, opts Options, args []string) error {
	fs := newFlagSet("schedule", opts.Stderr)
	day := fs.String("day", "", "calendar date YYYY-MM-DD (default today)")
	from := fs.String("from", "", "range start, YYYY-MM-DD or RFC3339 (overrides -day)")
	to := fs.String("to", "", "range end, YYYY-MM-DD or RFC3339 (overrides -day)")
	location := fs.Int("location", env.Config.LocationBoxID, "locations_box_id")
	box := fs.Int("box", env.Config.BoxID, "boxes_id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	base := Today(time.Now())
	if strings.TrimSpace(*day) != "" {
		parsed, err := parseTimeFlag(*day)
		if err != nil {
			return fmt.Errorf("-day: %w", err)
		}
		base = parsed
	}
	query := DayQuery(base, *location, *box)
	if strings.TrimSpace(*from) != "" {
		parsed, err := parseTimeFlag(*from)
		if err != nil {
			return fmt.Errorf("-from: %w", err)
		}
		query.From = parsed
	}
	if strings.TrimSpace(*to) != "" {
		parsed, err := parseTimeFlag(*to)
		if err != nil {
			return fmt.Errorf("-to: %w", err)
		}
		query.To = parsed
	}

	if err := env.Authenticate(ctx); err != nil {
		return err
	}
	raw, err := env.Session.Schedule(ctx, query)
	if err != nil {
		return err
	}
	return writeRaw(opts.Stdout, raw)
}

func runBook(ctx context.Context, env *Env, opts Options, args []string) error {
	fs := newFlagSet("book", opts.Stderr)
	schedule := fs.Int("schedule", 0, "schedule id of the class")
	membership := fs.Int("membership", env.Config.MembershipUserID, "membership_user_id")
	extras := fs.String("extras", "", "extra JSON sent as-is")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *schedule <= 0 {
		return errors.New("book: -schedule is required")
	}
	if *membership <= 0 {
		return errors.New("book: -membership or membership_user_id in config is required")
	}

	req := arbox.BookingRequest{ScheduleID: *schedule, MembershipUserID: *membership}
	if text := strings.TrimSpace(*extras); text != "" {
		if !json.Valid([]byte(text)) {
			return errors.New("book: -extras is not valid JSON")
		}
		req.Extras = json.RawMessage(text)
	}

	if err := env.Authenticate(ctx); err != nil {
		return err
	}
	raw, err := env.Session.Book(ctx, req)
	if err != nil {
		return err
	}
	return writeRaw(opts.Stdout, raw)
}

func runCancel(ctx context.Context, env *Env, opts Options, args []string) error {
	fs := newFlagSet("cancel", opts.Stderr)
	schedule := fs.Int("schedule", 0, "schedule id of the class")
	scheduleUser := fs.Int("schedule-user", 0, "schedule_user_id of the booking")
	late := fs.Bool("late", false, "acknowledge a late cancellation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *schedule <= 0 || *scheduleUser <= 0 {
		return errors.New("cancel: -schedule and -schedule-user are required")
	}

	if err := env.Authenticate(ctx); err != nil {
		return err
	}
	raw, err := env.Session.Cancel(ctx, arbox.CancelRequest{
		ScheduleID:     *schedule,
		ScheduleUserID: *scheduleUser,
		LateCancel:     *late,
	})
	if err != nil {
		return err
	}
	return writeRaw(opts.Stdout, raw)
}

// parseTimeFlag accepts a bare date, read as midnight UTC, or an RFC 3339
// timestamp.
func parseTimeFlag(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: want YYYY-MM-DD or RFC3339", value)
	}
	return t, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func writeRaw(w io.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = fmt.Fprintf(w, "%s\n", raw)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
