package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/proxycheck/internal/database"
	"github.com/nao1215/proxycheck/internal/model"
)

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	if cmd.Use != "history [run-id]" {
		t.Errorf("expected use 'history [run-id]', got %q", cmd.Use)
	}

	limit := cmd.Flags().Lookup("limit")
	if limit == nil || limit.Shorthand != "n" || limit.DefValue != strconv.Itoa(defaultHistoryLimit) {
		t.Errorf("unexpected limit flag %+v", limit)
	}
	for _, name := range []string{"json", "clear", "db-dir"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
}

// seedHistory records n runs in a new database under a temp dir.
func seedHistory(t *testing.T, n int) (string, []int64) {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ids := make([]int64, 0, n)
	for i := range n {
		r := model.NewValidationReport(1)
		r.State = model.RunDone
		r.Total = 3
		r.Completed = 3
		r.Accepted = []string{"1.1.1.1:80"}
		r.Failures[model.Failure{Kind: model.FailureConnectTimeout}] = 1
		r.Failures[model.HTTPStatus(503)] = 1
		r.Elapsed = 2 * time.Second

		rec := database.NewRunRecord("input-"+strconv.Itoa(i)+".txt", "out.txt", "http://httpbin.org/ip", 20,
			[]*model.ValidationReport{r})
		if err := db.SaveRun(context.Background(), rec); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		ids = append(ids, rec.ID)
	}
	return dir, ids
}

// runHistory executes the history command and returns its output.
func runHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewHistoryCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// TestRunHistoryCmd tests listing, showing and clearing runs.
func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("no database yet", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "none")
		out, err := runHistory(t, "--db-dir", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No runs recorded yet.") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("lists runs newest first", func(t *testing.T) {
		t.Parallel()

		dir, _ := seedHistory(t, 3)
		out, err := runHistory(t, "--db-dir", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Recent runs (3)") {
			t.Errorf("expected three runs:\n%s", out)
		}
		if strings.Index(out, "input-2.txt") > strings.Index(out, "input-0.txt") {
			t.Errorf("expected newest run first:\n%s", out)
		}
		if !strings.Contains(out, "1/3") {
			t.Errorf("expected accepted/total column:\n%s", out)
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		t.Parallel()

		dir, _ := seedHistory(t, 3)
		out, err := runHistory(t, "--db-dir", dir, "-n", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Recent runs (1)") || strings.Contains(out, "input-0.txt") {
			t.Errorf("expected only the newest run:\n%s", out)
		}
	})

	t.Run("json list", func(t *testing.T) {
		t.Parallel()

		dir, _ := seedHistory(t, 2)
		out, err := runHistory(t, "--db-dir", dir, "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var runs []historyRun
		if err := json.Unmarshal([]byte(out), &runs); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if len(runs) != 2 || runs[0].Accepted != 1 || runs[0].ElapsedSeconds != 2 {
			t.Errorf("unexpected runs %+v", runs)
		}
		if runs[0].Failures[model.HTTPStatus(503)] != 1 {
			t.Errorf("failure tally not encoded: %v", runs[0].Failures)
		}
	})

	t.Run("shows one run", func(t *testing.T) {
		t.Parallel()

		dir, ids := seedHistory(t, 1)
		out, err := runHistory(t, "--db-dir", dir, strconv.FormatInt(ids[0], 10))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"Run #", "input-0.txt", "Round 1", "Connect Timeout", "HTTP 503"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()

		dir, _ := seedHistory(t, 1)
		_, err := runHistory(t, "--db-dir", dir, "999")
		if !errors.Is(err, database.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("invalid run ID", func(t *testing.T) {
		t.Parallel()

		if _, err := runHistory(t, "--db-dir", t.TempDir(), "abc"); err == nil {
			t.Error("expected error for non-numeric ID")
		}
	})

	t.Run("clear", func(t *testing.T) {
		t.Parallel()

		dir, _ := seedHistory(t, 2)
		out, err := runHistory(t, "--db-dir", dir, "--clear")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Deleted 2 run(s).") {
			t.Errorf("unexpected output %q", out)
		}

		out, err = runHistory(t, "--db-dir", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No runs recorded yet.") {
			t.Errorf("expected empty history, got %q", out)
		}
	})
}
