package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/utyara3/TimeTracker/internal/analytics"
	"github.com/utyara3/TimeTracker/internal/repository"
	"github.com/utyara3/TimeTracker/internal/tracker"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(_ context.Context, env *Env) error {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date (%s)\n", env.Backend)
				return err
			})
		},
	}
}

func userFlag(cmd *cobra.Command, userID *int64) {
	cmd.Flags().Int64Var(userID, "user", 0, "user id")
	_ = cmd.MarkFlagRequired("user")
}

type shareOutput struct {
	State   string  `json:"state"`
	Seconds int64   `json:"seconds"`
	Percent float64 `json:"percent"`
}

type statsOutput struct {
	Day            string        `json:"day"`
	CurrentState   string        `json:"current_state"`
	CurrentOpen    bool          `json:"current_open"`
	SessionCount   int           `json:"session_count"`
	TotalSeconds   int64         `json:"total_seconds"`
	Chronology     []string      `json:"chronology"`
	Shares         []shareOutput `json:"shares"`
	Productivity   int           `json:"productivity"`
	AverageSeconds *int64        `json:"average_seconds,omitempty"`
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var (
		userID int64
		date   string
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the day report of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, env *Env) error {
				day, err := parseDay(date, env)
				if err != nil {
					return err
				}
				r, err := env.Tracker.DayStats(ctx, userID, day)
				if err != nil {
					return err
				}
				if opts.json() {
					out := statsOutput{
						Day:          r.Day.Start.Format(time.DateOnly),
						CurrentState: r.CurrentState,
						CurrentOpen:  r.CurrentOpen,
						SessionCount: r.SessionCount,
						TotalSeconds: r.TotalSeconds,
						Chronology:   r.Chronology,
						Productivity: r.Productivity,
					}
					for _, sh := range r.Shares {
						out.Shares = append(out.Shares, shareOutput{State: sh.State, Seconds: sh.Seconds, Percent: sh.Percent})
					}
					if r.HasAverage {
						avg := r.AverageSeconds
						out.AverageSeconds = &avg
					}
					return writeJSON(cmd.OutOrStdout(), out)
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "day:          %s\n", r.Day.Start.Format(time.DateOnly))
				fmt.Fprintf(w, "current:      %s (%s)\n", r.CurrentState, analytics.FormatDuration(r.CurrentSeconds))
				fmt.Fprintf(w, "sessions:     %d\n", r.SessionCount)
				fmt.Fprintf(w, "chronology:   %s\n", r.ChronologyString())
				fmt.Fprintf(w, "productivity: %d%%\n", r.Productivity)
				fmt.Fprintf(w, "average:      %s\n\n", r.AverageSession())

				t := newTable("STATE", "TIME", "SHARE")
				for _, s := range r.Shares {
					t.add(env.Tracker.Vocabulary().Emoji(s.State)+" "+s.State, analytics.FormatDuration(s.Seconds), fmt.Sprintf("%.1f%%", s.Percent))
				}
				return t.render(w)
			})
		},
	}
	userFlag(cmd, &userID)
	cmd.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD (default today)")
	return cmd
}

type sessionOutput struct {
	ID        int64      `json:"id"`
	State     string     `json:"state"`
	Tag       string     `json:"tag,omitempty"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Seconds   int64      `json:"seconds"`
	Mood      *int       `json:"mood,omitempty"`
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		userID int64
		date   string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the sessions a user started on a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, env *Env) error {
				day, err := parseDay(date, env)
				if err != nil {
					return err
				}
				sessions, err := env.Tracker.History(ctx, userID, day)
				if err != nil {
					return err
				}
				now := env.Tracker.Today()
				if opts.json() {
					out := make([]sessionOutput, 0, len(sessions))
					for _, s := range sessions {
						out = append(out, sessionOutput{
							ID: s.ID, State: s.StateName, Tag: s.Tag,
							StartTime: s.StartTime, EndTime: s.EndTime,
							Seconds: s.Seconds(now), Mood: s.Mood,
						})
					}
					return writeJSON(cmd.OutOrStdout(), out)
				}
				return historyTable(sessions, now, env.Tracker.Location()).render(cmd.OutOrStdout())
			})
		},
	}
	userFlag(cmd, &userID)
	cmd.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD (default today)")
	return cmd
}

func historyTable(sessions []repository.Session, now time.Time, loc *time.Location) *table {
	t := newTable("ID", "STATE", "START", "END", "DURATION", "TAG", "MOOD")
	for _, s := range sessions {
		end := "open"
		if s.EndTime != nil {
			end = s.EndTime.In(loc).Format(time.TimeOnly)
		}
		mood := analytics.NoData
		if s.Mood != nil {
			mood = strconv.Itoa(*s.Mood)
		}
		t.add(
			strconv.FormatInt(s.ID, 10),
			s.StateName,
			s.StartTime.In(loc).Format(time.TimeOnly),
			end,
			analytics.FormatDuration(s.Seconds(now)),
			s.Tag,
			mood,
		)
	}
	return t
}

func newPredictCmd(opts *rootOptions) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the next state of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, env *Env) error {
				p, err := env.Tracker.PredictNext(ctx, userID)
				if err != nil {
					return err
				}
				if opts.json() {
					return writeJSON(cmd.OutOrStdout(), map[string]any{
						"current_state": p.CurrentState,
						"level":         p.Level.String(),
						"candidates":    p.Candidates,
					})
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "current: %s\nlevel:   %s\n\n", p.CurrentState, p.Level)
				t := newTable("STATE", "PROBABILITY")
				for _, c := range p.Candidates {
					t.add(c.State, fmt.Sprintf("%.2f%%", c.Percent))
				}
				return t.render(w)
			})
		},
	}
	userFlag(cmd, &userID)
	return cmd
}

func newTagsCmd(opts *rootOptions) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Show the most frequent tags of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, env *Env) error {
				tags, err := env.Tracker.TopTags(ctx, userID)
				if err != nil {
					return err
				}
				if opts.json() {
					return writeJSON(cmd.OutOrStdout(), tags)
				}
				t := newTable("TAG", "COUNT")
				for _, tag := range tags {
					t.add(tag.Tag, strconv.Itoa(tag.Count))
				}
				return t.render(cmd.OutOrStdout())
			})
		},
	}
	userFlag(cmd, &userID)
	return cmd
}

func newSwitchCmd(opts *rootOptions) *cobra.Command {
	var (
		userID int64
		state  string
		tag    string
		name   string
	)
	cmd := &cobra.Command{
		Use:   "switch",
		Short: "Switch a user into a state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, env *Env) error {
				if name != "" {
					if _, err := env.Tracker.RegisterUser(ctx, userID, name); err != nil {
						return err
					}
				}
				tr, err := env.Tracker.Switch(ctx, userID, state, tag)
				if err != nil {
					return err
				}
				if opts.json() {
					return writeJSON(cmd.OutOrStdout(), tr)
				}
				w := cmd.OutOrStdout()
				if tr.HasPrevious() {
					fmt.Fprintf(w, "closed session %d (%s, %s)\n", tr.PreviousSessionID, tr.PreviousState, analytics.FormatDuration(tr.PreviousSeconds))
				}
				_, err = fmt.Fprintf(w, "opened session %d (%s)\n", tr.NewSessionID, tr.NewState)
				return err
			})
		},
	}
	userFlag(cmd, &userID)
	cmd.Flags().StringVar(&state, "state", "", "state to switch into")
	cmd.Flags().StringVar(&tag, "tag", "", "optional tag")
	cmd.Flags().StringVar(&name, "name", "", "register the user with this display name first")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

func newFixCmd(opts *rootOptions) *cobra.Command {
	var (
		userID int64
		at     string
		state  string
		tag    string
	)
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Split the open session at a past boundary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := tracker.ParseTimeSpec(at)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, env *Env) error {
				c, err := env.Tracker.Fix(ctx, tracker.FixRequest{UserID: userID, Spec: spec, State: state, Tag: tag})
				if err != nil {
					return err
				}
				if opts.json() {
					return writeJSON(cmd.OutOrStdout(), c)
				}
				loc := env.Tracker.Location()
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "closed session %d (%s, %s) at %s\nopened session %d (%s)\n",
					c.HeadSessionID, c.HeadState, analytics.FormatDuration(c.HeadSeconds),
					c.Boundary.In(loc).Format(time.DateTime), c.NewSessionID, c.NewState)
				return err
			})
		},
	}
	userFlag(cmd, &userID)
	cmd.Flags().StringVar(&at, "time", "", "boundary as a duration ago (1h30m) or a clock time (14:30)")
	cmd.Flags().StringVar(&state, "state", "", "state since the boundary")
	cmd.Flags().StringVar(&tag, "tag", "", "optional tag")
	_ = cmd.MarkFlagRequired("time")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}
