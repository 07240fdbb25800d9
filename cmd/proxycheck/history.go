package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/proxycheck/internal/config"
	"github.com/nao1215/proxycheck/internal/database"
	"github.com/nao1215/proxycheck/internal/model"
	"github.com/nao1215/proxycheck/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed without --limit.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// It lists the run summaries recorded by check.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past validation runs",
		Long: `History lists the summaries of previous check runs, newest first.

Only run-level counts are recorded: how many candidates were checked, how
many were accepted, and why the others failed. Individual proxies are
never stored.

Examples:
  # List the 20 most recent runs
  proxycheck history

  # Show one run with its per-round failure breakdown
  proxycheck history 12

  # Output the last 5 runs as JSON
  proxycheck history -n 5 --json

  # Delete all recorded runs
  proxycheck history --clear`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output history in JSON format")
	cmd.Flags().Bool("clear", false,
		"Delete all recorded runs")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	// Parse the run ID before touching the database.
	var runID int64
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid run ID %q: must be a positive integer", args[0])
		}
		runID = id
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	if limit < 0 {
		return errors.New("invalid limit: must be non-negative")
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	clearHistory, err := cmd.Flags().GetBool("clear")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	out := cmd.OutOrStdout()

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if errors.Is(err, database.ErrDatabaseNotFound) {
		if runID != 0 {
			return fmt.Errorf("%w: %d", database.ErrRunNotFound, runID)
		}
		fmt.Fprintln(out, "No runs recorded yet.")
		fmt.Fprintln(out, "\nUse 'proxycheck check <input> <output>' to validate a proxy list.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case clearHistory:
		n, err := db.ClearRuns(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Fprintf(out, "Deleted %d run(s).\n", n)
		return nil
	case runID != 0:
		return showRun(ctx, out, db, runID, jsonOutput)
	default:
		return listRuns(ctx, out, db, limit, jsonOutput)
	}
}

// historyRound is the JSON form of a stored round.
type historyRound struct {
	Round          int                   `json:"round"`
	State          model.RunState        `json:"state"`
	Total          int                   `json:"total"`
	Completed      int                   `json:"completed"`
	Accepted       int                   `json:"accepted"`
	Rejected       int                   `json:"rejected"`
	StartedAt      time.Time             `json:"started_at"`
	ElapsedSeconds float64               `json:"elapsed_seconds"`
	Failures       map[model.Failure]int `json:"failures"`
}

// historyRun is the JSON form of a stored run.
type historyRun struct {
	ID             int64                 `json:"id"`
	Timestamp      time.Time             `json:"timestamp"`
	InputFile      string                `json:"input_file"`
	OutputFile     string                `json:"output_file"`
	Endpoint       string                `json:"endpoint"`
	MaxWorkers     int                   `json:"max_workers"`
	State          model.RunState        `json:"state"`
	Total          int                   `json:"total"`
	Accepted       int                   `json:"accepted"`
	Rejected       int                   `json:"rejected"`
	Pending        int                   `json:"pending"`
	ElapsedSeconds float64               `json:"elapsed_seconds"`
	Failures       map[model.Failure]int `json:"failures"`
	Rounds         []historyRound        `json:"rounds,omitempty"`
}

func newHistoryRun(rec *database.RunRecord) historyRun {
	h := historyRun{
		ID:             rec.ID,
		Timestamp:      rec.Timestamp,
		InputFile:      rec.InputFile,
		OutputFile:     rec.OutputFile,
		Endpoint:       rec.Endpoint,
		MaxWorkers:     rec.MaxWorkers,
		State:          rec.State,
		Total:          rec.Total,
		Accepted:       rec.Accepted,
		Rejected:       rec.Rejected,
		Pending:        rec.Pending,
		ElapsedSeconds: rec.Elapsed.Seconds(),
		Failures:       rec.Failures,
	}
	for _, r := range rec.Rounds {
		h.Rounds = append(h.Rounds, historyRound{
			Round:          r.Round,
			State:          r.State,
			Total:          r.Total,
			Completed:      r.Completed,
			Accepted:       r.Accepted,
			Rejected:       r.Rejected,
			StartedAt:      r.StartedAt,
			ElapsedSeconds: r.Elapsed.Seconds(),
			Failures:       r.Failures,
		})
	}
	return h
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// listRuns prints the most recent runs, newest first.
func listRuns(ctx context.Context, out io.Writer, db *database.RunDB, limit int, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if jsonOutput {
		entries := make([]historyRun, 0, len(runs))
		for i := range runs {
			entries = append(entries, newHistoryRun(&runs[i]))
		}
		return writeJSON(out, entries)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "Recent runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-19s  %-9s  %-15s  %-9s  %s\n", "ID", "Date", "State", "Accepted", "Elapsed", "Input")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 76))
	for _, run := range runs {
		fmt.Fprintf(out, "  %-6d  %-19s  %-9s  %-15s  %-9s  %s\n",
			run.ID,
			run.Timestamp.Local().Format(time.DateTime),
			run.State,
			fmt.Sprintf("%d/%d", run.Accepted, run.Total),
			run.Elapsed.Round(100*time.Millisecond),
			run.InputFile,
		)
	}
	fmt.Fprintln(out, "\nUse 'proxycheck history <id>' to see the failure breakdown of a run.")

	return nil
}

// showRun prints one run with its rounds.
func showRun(ctx context.Context, out io.Writer, db *database.RunDB, id int64, jsonOutput bool) error {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(out, newHistoryRun(run))
	}

	fmt.Fprintf(out, "Run #%d\n", run.ID)
	fmt.Fprintf(out, "  Date:      %s\n", run.Timestamp.Local().Format(time.DateTime))
	fmt.Fprintf(out, "  Input:     %s\n", run.InputFile)
	fmt.Fprintf(out, "  Output:    %s\n", run.OutputFile)
	fmt.Fprintf(out, "  Endpoint:  %s\n", run.Endpoint)
	fmt.Fprintf(out, "  Workers:   %d\n", run.MaxWorkers)
	fmt.Fprintf(out, "  State:     %s\n", run.State)
	fmt.Fprintf(out, "  Accepted:  %d/%d\n", run.Accepted, run.Total)
	if run.Pending > 0 {
		fmt.Fprintf(out, "  Pending:   %d\n", run.Pending)
	}
	fmt.Fprintf(out, "  Elapsed:   %s\n", run.Elapsed.Round(time.Millisecond))

	for _, r := range run.Rounds {
		fmt.Fprintf(out, "\nRound %d (%s, %s)\n", r.Round, r.State, r.Elapsed.Round(time.Millisecond))
		fmt.Fprintf(out, "  Accepted %d, rejected %d of %d\n", r.Accepted, r.Rejected, r.Total)
		writeFailureTally(out, r.Failures)
	}

	return nil
}

// writeFailureTally prints a tally ordered by kind.
func writeFailureTally(out io.Writer, failures map[model.Failure]int) {
	r := model.NewValidationReport(0)
	r.Failures = failures
	for _, fc := range r.SortedFailures() {
		fmt.Fprintf(out, "    %-18s %d\n", report.FailureLabel(fc.Failure), fc.Count)
	}
}
