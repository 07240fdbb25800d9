package model

import "testing"

// TestValidationReport tests the report helpers.
func TestValidationReport(t *testing.T) {
	t.Parallel()

	t.Run("new report is empty and pending", func(t *testing.T) {
		t.Parallel()

		r := NewValidationReport(1)
		if r.State != RunPending {
			t.Errorf("expected pending, got %s", r.State)
		}
		if r.AcceptedCount() != 0 || r.RejectedCount() != 0 {
			t.Error("expected empty counts")
		}
		if r.Accepted == nil {
			t.Error("accepted must be non-nil so it encodes as []")
		}
	})

	t.Run("sorted failures are ordered by kind then code", func(t *testing.T) {
		t.Parallel()

		r := NewValidationReport(1)
		r.Failures[HTTPStatus(503)] = 1
		r.Failures[Failure{Kind: FailureUnknown}] = 2
		r.Failures[HTTPStatus(429)] = 3
		r.Failures[Failure{Kind: FailureInvalidFormat}] = 4

		got := r.SortedFailures()
		want := []Failure{
			{Kind: FailureInvalidFormat},
			HTTPStatus(429),
			HTTPStatus(503),
			{Kind: FailureUnknown},
		}
		if len(got) != len(want) {
			t.Fatalf("expected %d entries, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i].Failure != want[i] {
				t.Errorf("entry %d: got %s, want %s", i, got[i].Failure, want[i])
			}
		}
		if r.RejectedCount() != 10 {
			t.Errorf("expected 10 rejected, got %d", r.RejectedCount())
		}
		if r.CountByKind(FailureHTTPStatus) != 4 {
			t.Errorf("expected 4 http_status, got %d", r.CountByKind(FailureHTTPStatus))
		}
	})

	t.Run("pending counts missing outcomes", func(t *testing.T) {
		t.Parallel()

		r := NewValidationReport(1)
		r.Total = 10
		r.Completed = 4
		if r.Pending() != 6 {
			t.Errorf("expected 6 pending, got %d", r.Pending())
		}
	})
}

// TestRunState tests state names and terminal detection.
func TestRunState(t *testing.T) {
	t.Parallel()

	states := map[RunState]bool{
		RunPending:     false,
		RunDispatching: false,
		RunDraining:    false,
		RunDone:        true,
		RunCancelled:   true,
	}

	for state, terminal := range states {
		if state.IsTerminal() != terminal {
			t.Errorf("%s: IsTerminal() = %v", state, !terminal)
		}

		text, err := state.MarshalText()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var decoded RunState
		if err := decoded.UnmarshalText(text); err != nil {
			t.Fatalf("unmarshal %q: %v", text, err)
		}
		if decoded != state {
			t.Errorf("round trip: got %s, want %s", decoded, state)
		}
	}
}
