package storage

import (
	"context"
	"testing"
	"time"

	"mercator-hq/jobhook/pkg/evidence"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// sampleRecords returns four decisions spaced one hour apart, oldest first.
func sampleRecords() []*evidence.DecisionRecord {
	return []*evidence.DecisionRecord{
		{
			ID:               "rec-1",
			EvaluationID:     "eval-1",
			EvaluatedAt:      baseTime,
			RecordedTime:     baseTime.Add(time.Millisecond),
			JobID:            "job-1",
			Username:         "alice",
			PrinterName:      "Front Office",
			DocumentName:     "memo.docx",
			SubmittedAt:      baseTime.Add(-time.Second),
			AnalysisComplete: true,
			IsColor:          false,
			TotalPages:       3,
			Cost:             0.15,
			Disposition:      "proceed",
			FinalState:       "proceeding",
			Rules: []evidence.RuleOutcome{
				{Rule: "color_confirmation", Matched: false},
				{Rule: "volume_redirect", Matched: false},
			},
			EvaluationTime: 2 * time.Millisecond,
			RecordHash:     "h1",
		},
		{
			ID:               "rec-2",
			EvaluationID:     "eval-2",
			EvaluatedAt:      baseTime.Add(time.Hour),
			RecordedTime:     baseTime.Add(time.Hour),
			JobID:            "job-2",
			Username:         "bob",
			PrinterName:      "Front Office",
			AnalysisComplete: true,
			IsColor:          true,
			TotalPages:       2,
			Cost:             1.2,
			Disposition:      "canceled",
			FinalState:       "canceled",
			PromptResponse:   "CANCEL",
			Rules: []evidence.RuleOutcome{
				{Rule: "color_confirmation", Matched: true, Canceled: true, Actions: []string{"promptConfirm", "cancelJob"}},
			},
			EvaluationTime: 3 * time.Second,
			RecordHash:     "h2",
		},
		{
			ID:               "rec-3",
			EvaluationID:     "eval-3",
			EvaluatedAt:      baseTime.Add(2 * time.Hour),
			RecordedTime:     baseTime.Add(2 * time.Hour),
			JobID:            "job-3",
			Username:         "alice",
			PrinterName:      "Lab",
			AnalysisComplete: true,
			TotalPages:       40,
			Cost:             2,
			Disposition:      "proceed",
			FinalState:       "proceeding",
			RedirectTarget:   "Perrysburg Showroom M3150",
			Rules: []evidence.RuleOutcome{
				{Rule: "color_confirmation", Matched: false},
				{Rule: "volume_redirect", Matched: true, Actions: []string{"bypassReleaseQueue", "redirect", "sendMessage", "logInfo"}},
			},
			FailedActions:  []evidence.ActionFailure{{Action: "sendMessage", Error: "client offline"}},
			EvaluationTime: 4 * time.Millisecond,
			RecordHash:     "h3",
		},
		{
			ID:           "rec-4",
			EvaluationID: "eval-4",
			EvaluatedAt:  baseTime.Add(3 * time.Hour),
			RecordedTime: baseTime.Add(3 * time.Hour),
			PrinterName:  "Lab",
			Disposition:  "proceed",
			FinalState:   "proceeding",
			RecordHash:   "h4",
		},
	}
}

func ids(records []*evidence.DecisionRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }

// backends maps each storage implementation to a constructor.
var backends = map[string]func(t *testing.T) evidence.Storage{
	"memory": func(t *testing.T) evidence.Storage { return NewMemoryStorage() },
	"sqlite": func(t *testing.T) evidence.Storage {
		s, _ := createTempDB(t)
		return s
	},
}

func seed(t *testing.T, s evidence.Storage) {
	t.Helper()
	for _, r := range sampleRecords() {
		if err := s.Store(context.Background(), r); err != nil {
			t.Fatalf("Store(%s) failed: %v", r.ID, err)
		}
	}
}

func TestStorage_QueryFilters(t *testing.T) {
	tests := []struct {
		name  string
		query *evidence.Query
		want  []string
	}{
		{"no filters newest first", &evidence.Query{}, []string{"rec-4", "rec-3", "rec-2", "rec-1"}},
		{"ascending", &evidence.Query{SortOrder: "asc"}, []string{"rec-1", "rec-2", "rec-3", "rec-4"}},
		{"by user", &evidence.Query{Username: "alice"}, []string{"rec-3", "rec-1"}},
		{"by printer", &evidence.Query{PrinterName: "Lab"}, []string{"rec-4", "rec-3"}},
		{"by job", &evidence.Query{JobID: "job-2"}, []string{"rec-2"}},
		{"canceled", &evidence.Query{Disposition: "canceled"}, []string{"rec-2"}},
		{"matched rule", &evidence.Query{Rule: "volume_redirect"}, []string{"rec-3"}},
		{"matched color rule", &evidence.Query{Rule: "color_confirmation"}, []string{"rec-2"}},
		{"redirect target", &evidence.Query{RedirectTarget: "Perrysburg Showroom M3150"}, []string{"rec-3"}},
		{"with failures", &evidence.Query{HasFailures: boolPtr(true)}, []string{"rec-3"}},
		{"without failures", &evidence.Query{HasFailures: boolPtr(false), SortOrder: "asc"}, []string{"rec-1", "rec-2", "rec-4"}},
		{
			"time range inclusive",
			&evidence.Query{StartTime: timePtr(baseTime.Add(time.Hour)), EndTime: timePtr(baseTime.Add(2 * time.Hour))},
			[]string{"rec-3", "rec-2"},
		},
		{"limit", &evidence.Query{Limit: 2}, []string{"rec-4", "rec-3"}},
		{"limit and offset", &evidence.Query{Limit: 2, Offset: 1}, []string{"rec-3", "rec-2"}},
		{"offset past end", &evidence.Query{Offset: 10}, []string{}},
		{"no match", &evidence.Query{Username: "nobody"}, []string{}},
	}

	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			defer store.Close()
			seed(t, store)

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := store.Query(context.Background(), tt.query)
					if err != nil {
						t.Fatalf("Query() failed: %v", err)
					}
					if !equalIDs(ids(got), tt.want) {
						t.Errorf("Query() = %v, want %v", ids(got), tt.want)
					}
				})
			}
		})
	}
}

func TestStorage_RoundTrip(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			defer store.Close()
			seed(t, store)

			got, err := store.Query(context.Background(), &evidence.Query{JobID: "job-3"})
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("expected 1 record, got %d", len(got))
			}
			want := sampleRecords()[2]
			r := got[0]

			if !r.EvaluatedAt.Equal(want.EvaluatedAt) {
				t.Errorf("EvaluatedAt = %v, want %v", r.EvaluatedAt, want.EvaluatedAt)
			}
			if r.TotalPages != 40 || r.Cost != 2 || !r.AnalysisComplete || r.IsColor {
				t.Errorf("analysis fields not preserved: %+v", r)
			}
			if r.RedirectTarget != want.RedirectTarget {
				t.Errorf("RedirectTarget = %q, want %q", r.RedirectTarget, want.RedirectTarget)
			}
			if len(r.Rules) != 2 || r.Rules[1].Rule != "volume_redirect" || len(r.Rules[1].Actions) != 4 {
				t.Errorf("Rules not preserved: %+v", r.Rules)
			}
			if len(r.FailedActions) != 1 || r.FailedActions[0].Error != "client offline" {
				t.Errorf("FailedActions not preserved: %+v", r.FailedActions)
			}
			if r.EvaluationTime != want.EvaluationTime {
				t.Errorf("EvaluationTime = %v, want %v", r.EvaluationTime, want.EvaluationTime)
			}
			if r.RecordHash != "h3" {
				t.Errorf("RecordHash = %q, want h3", r.RecordHash)
			}
		})
	}
}

func TestStorage_ZeroTimesAndOptionalFields(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			defer store.Close()
			seed(t, store)

			got, err := store.Query(context.Background(), &evidence.Query{Limit: 1})
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			r := got[0]
			if r.ID != "rec-4" {
				t.Fatalf("expected rec-4, got %s", r.ID)
			}
			if !r.SubmittedAt.IsZero() {
				t.Errorf("SubmittedAt = %v, want zero", r.SubmittedAt)
			}
			if r.JobID != "" || r.Username != "" || r.PromptResponse != "" {
				t.Errorf("optional fields should be empty: %+v", r)
			}
			if r.HasFailures() {
				t.Error("HasFailures() = true, want false")
			}
		})
	}
}

func TestStorage_Count(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			defer store.Close()
			seed(t, store)

			ctx := context.Background()
			total, err := store.Count(ctx, &evidence.Query{})
			if err != nil {
				t.Fatalf("Count() failed: %v", err)
			}
			if total != 4 {
				t.Errorf("Count() = %d, want 4", total)
			}

			// Pagination does not affect counts.
			n, err := store.Count(ctx, &evidence.Query{Disposition: "proceed", Limit: 1})
			if err != nil {
				t.Fatalf("Count() failed: %v", err)
			}
			if n != 3 {
				t.Errorf("Count(proceed) = %d, want 3", n)
			}
		})
	}
}

func TestStorage_Delete(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("by end time", func(t *testing.T) {
				store := newStore(t)
				defer store.Close()
				seed(t, store)

				deleted, err := store.Delete(ctx, &evidence.Query{EndTime: timePtr(baseTime.Add(90 * time.Minute))})
				if err != nil {
					t.Fatalf("Delete() failed: %v", err)
				}
				if deleted != 2 {
					t.Errorf("Delete() = %d, want 2", deleted)
				}
				rest, _ := store.Query(ctx, &evidence.Query{SortOrder: "asc"})
				if !equalIDs(ids(rest), []string{"rec-3", "rec-4"}) {
					t.Errorf("remaining = %v", ids(rest))
				}
			})

			t.Run("oldest with limit", func(t *testing.T) {
				store := newStore(t)
				defer store.Close()
				seed(t, store)

				deleted, err := store.Delete(ctx, &evidence.Query{Limit: 3})
				if err != nil {
					t.Fatalf("Delete() failed: %v", err)
				}
				if deleted != 3 {
					t.Errorf("Delete() = %d, want 3", deleted)
				}
				rest, _ := store.Query(ctx, &evidence.Query{})
				if !equalIDs(ids(rest), []string{"rec-4"}) {
					t.Errorf("remaining = %v, want [rec-4]", ids(rest))
				}
			})

			t.Run("no match", func(t *testing.T) {
				store := newStore(t)
				defer store.Close()
				seed(t, store)

				deleted, err := store.Delete(ctx, &evidence.Query{Username: "nobody"})
				if err != nil {
					t.Fatalf("Delete() failed: %v", err)
				}
				if deleted != 0 {
					t.Errorf("Delete() = %d, want 0", deleted)
				}
			})
		})
	}
}
