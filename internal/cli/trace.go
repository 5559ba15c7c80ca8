package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/streamparse/internal/ir"
	"github.com/roach88/streamparse/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // show this run's events
	Scenario string // filter the run list
	Channel  string // optional - filter events to one channel
}

// RunSummary is one row of the run list.
type RunSummary struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	Scenario   string `json:"scenario"`
	Recognizer string `json:"recognizer"`
	Status     string `json:"status"`
	Pass       bool   `json:"pass"`
	Digest     string `json:"digest"`
}

// TraceEvent represents a single recorded event.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Channel string `json:"channel"`
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`

	raw ir.Value
}

// TraceResult holds the events of one run.
type TraceResult struct {
	Run    RunSummary   `json:"run"`
	Events []TraceEvent `json:"events"`
	Stats  TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents  int `json:"total_events"`
	OutputEvents int `json:"output_events"`
	SuffixEvents int `json:"suffix_events"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs",
		Long: `Inspect runs recorded by "test --db".

Without --run, lists recorded runs in the order they were written.
With --run, shows that run's events in sequence order.

Examples:
  streamparse trace --db ./runs.db
  streamparse trace --db ./runs.db --scenario odd_then_even
  streamparse trace --db ./runs.db --run run-0192... --channel suffix
  streamparse trace --db ./runs.db --run run-0192... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "list only runs of this scenario")
	cmd.Flags().StringVar(&opts.Channel, "channel", "", "show only output or suffix events")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Channel != "" && opts.Channel != "output" && opts.Channel != "suffix" {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid channel %q: must be output or suffix", opts.Channel))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		return listRuns(ctx, st, opts, formatter)
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	var events []store.Event
	if opts.Channel != "" {
		events, err = st.ReadChannel(ctx, opts.RunID, opts.Channel)
	} else {
		events, err = st.ReadEvents(ctx, opts.RunID)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	result := buildTraceResult(run, events)
	if formatter.JSON() {
		return formatter.Respond(CLIResponse{Status: "ok", Data: result, RunID: run.ID})
	}
	return outputTraceText(formatter.Writer, result, opts.Verbose)
}

func listRuns(ctx context.Context, st *store.Store, opts *TraceOptions, formatter *OutputFormatter) error {
	runs, err := st.ListRuns(ctx, opts.Scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	summaries := make([]RunSummary, len(runs))
	for i, r := range runs {
		summaries[i] = summarize(r)
	}
	if formatter.JSON() {
		return formatter.Success(summaries)
	}

	w := formatter.Writer
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range summaries {
		fmt.Fprintf(w, "[%d] %s %s %s %s\n", r.Seq, r.ID, r.Scenario, r.Status, passMark(r.Pass))
	}
	return nil
}

func summarize(r store.Run) RunSummary {
	return RunSummary{
		ID:         r.ID,
		Seq:        r.Seq,
		Scenario:   r.Scenario,
		Recognizer: r.Recognizer,
		Status:     r.Status,
		Pass:       r.Pass,
		Digest:     r.Digest,
	}
}

// buildTraceResult converts stored events for output.
func buildTraceResult(run store.Run, events []store.Event) TraceResult {
	result := TraceResult{
		Run:    summarize(run),
		Events: make([]TraceEvent, len(events)),
	}
	for i, e := range events {
		result.Events[i] = TraceEvent{
			Seq:     e.Seq,
			Channel: e.Channel,
			Kind:    e.Kind,
			Payload: ir.ToGo(e.Payload),
			raw:     e.Payload,
		}
		switch e.Channel {
		case "output":
			result.Stats.OutputEvents++
		case "suffix":
			result.Stats.SuffixEvents++
		}
	}
	result.Stats.TotalEvents = len(events)
	return result
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Trace for Run: %s\n", result.Run.ID)
	fmt.Fprintf(w, "Scenario: %s (%s)\n", result.Run.Scenario, result.Run.Recognizer)
	fmt.Fprintf(w, "Status: %s %s\n", result.Run.Status, passMark(result.Run.Pass))
	if verbose {
		fmt.Fprintf(w, "Digest: %s\n", result.Run.Digest)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Events ===")
	if len(result.Events) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, e := range result.Events {
		fmt.Fprintf(w, "  [%d] %s %s", e.Seq, e.Channel, e.Kind)
		if verbose {
			fmt.Fprintf(w, " %s", formatPayload(e.raw))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events:  %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Output Events: %d\n", result.Stats.OutputEvents)
	fmt.Fprintf(w, "  Suffix Events: %d\n", result.Stats.SuffixEvents)
	return nil
}

// formatPayload renders a payload as canonical JSON.
func formatPayload(v ir.Value) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func passMark(pass bool) string {
	if pass {
		return "(pass)"
	}
	return "(fail)"
}
