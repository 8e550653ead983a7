package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"github.com/utyara3/TimeTracker/internal/analytics"
	"github.com/utyara3/TimeTracker/internal/config"
	"github.com/utyara3/TimeTracker/internal/repository"
	"github.com/utyara3/TimeTracker/internal/tracker"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// Tracker is the part of tracker.Service the admin commands use.
type Tracker interface {
	RegisterUser(ctx context.Context, userID int64, displayName string) (*repository.User, error)
	Switch(ctx context.Context, userID int64, stateName, tag string) (*tracker.Transition, error)
	Fix(ctx context.Context, req tracker.FixRequest) (*tracker.Correction, error)
	History(ctx context.Context, userID int64, day time.Time) ([]repository.Session, error)
	DayStats(ctx context.Context, userID int64, day time.Time) (*analytics.DayReport, error)
	PredictNext(ctx context.Context, userID int64) (*analytics.Prediction, error)
	TopTags(ctx context.Context, userID int64) ([]analytics.TagCount, error)
	Today() time.Time
	Location() *time.Location
	Vocabulary() config.Vocabulary
}

// Env is an opened store with the core on top of it.
type Env struct {
	Backend string
	Tracker Tracker
	Close   func() error
}

// Opener opens the store described by the environment. Opening runs the
// schema migrations.
type Opener func(ctx context.Context) (*Env, error)

type rootOptions struct {
	open    Opener
	output  string
	timeout time.Duration
}

func NewRootCommand(open Opener) *cobra.Command {
	opts := &rootOptions{open: open}
	root := &cobra.Command{
		Use:           "ttctl",
		Short:         "TimeTracker admin tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", outputTable, "output format (table, json)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "store operation timeout")

	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newStatsCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newPredictCmd(opts))
	root.AddCommand(newTagsCmd(opts))
	root.AddCommand(newSwitchCmd(opts))
	root.AddCommand(newFixCmd(opts))
	return root
}

// run opens the store, runs fn and always closes the store.
func (o *rootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, env *Env) error) (err error) {
	if o.output != outputTable && o.output != outputJSON {
		return fmt.Errorf("unsupported output format %q", o.output)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()

	env, err := o.open(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if closeErr := env.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close store: %w", closeErr)
		}
	}()
	return fn(ctx, env)
}

func (o *rootOptions) json() bool {
	return o.output == outputJSON
}

func writeJSON(w io.Writer, v any) error {
	b, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func parseDay(raw string, env *Env) (time.Time, error) {
	if raw == "" {
		return env.Tracker.Today(), nil
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, env.Tracker.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q, want YYYY-MM-DD: %w", raw, err)
	}
	return day, nil
}
