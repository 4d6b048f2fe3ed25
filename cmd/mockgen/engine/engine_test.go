package engine

import (
	"path/filepath"
	"testing"
	"time"

	"agile-analytics/internal/ticket"
)

func TestGenerate_FlowIsOrdered(t *testing.T) {
	now := time.Date(2016, 6, 21, 12, 0, 0, 0, time.UTC)

	for _, scenario := range []string{"mild", "chaos", "drift"} {
		for _, dist := range []string{"uniform", "weibull"} {
			tickets := Generate(GeneratorConfig{Scenario: scenario, Distribution: dist, Count: 60, Now: now, Seed: 7})
			if len(tickets) != 60 {
				t.Fatalf("%s/%s: expected 60 tickets, got %d", scenario, dist, len(tickets))
			}

			for _, tk := range tickets {
				if len(tk.FlowLog) == 0 || tk.FlowLog[0].State != "Open" {
					t.Fatalf("%s: flow must begin in Open", tk.Key)
				}
				for i := 1; i < len(tk.FlowLog); i++ {
					if tk.FlowLog[i].State != Workflow[i] {
						t.Errorf("%s: step %d is %s, want %s", tk.Key, i, tk.FlowLog[i].State, Workflow[i])
					}
					if tk.FlowLog[i].EnteredAt.Before(tk.FlowLog[i-1].EnteredAt) {
						t.Errorf("%s: flow goes back in time at step %d", tk.Key, i)
					}
					if !tk.FlowLog[i].EnteredAt.Before(now) {
						t.Errorf("%s: step %d is in the future", tk.Key, i)
					}
				}
			}
		}
	}
}

func TestGenerate_SeedIsDeterministic(t *testing.T) {
	now := time.Date(2016, 6, 21, 12, 0, 0, 0, time.UTC)
	a := Generate(GeneratorConfig{Scenario: "chaos", Count: 20, Now: now, Seed: 42})
	b := Generate(GeneratorConfig{Scenario: "chaos", Count: 20, Now: now, Seed: 42})

	for i := range a {
		if a[i].CurrentState() != b[i].CurrentState() || !a[i].Updated.Equal(b[i].Updated) {
			t.Fatalf("ticket %d differs between runs with the same seed", i)
		}
	}
}

func TestSave_WritesAnalyzedTickets(t *testing.T) {
	now := time.Date(2016, 6, 21, 12, 0, 0, 0, time.UTC)
	tickets := Generate(GeneratorConfig{Scenario: "mild", Count: 30, Now: now, Seed: 1})

	dir := t.TempDir()
	path, err := Save(dir, "MOCK", tickets)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != filepath.Join(dir, "MOCK.json") {
		t.Errorf("Unexpected path %s", path)
	}

	analyzed, err := ticket.LoadAnalyzed(path)
	if err != nil {
		t.Fatalf("LoadAnalyzed: %v", err)
	}
	if len(analyzed) != len(tickets) {
		t.Fatalf("Expected %d analyzed tickets, got %d", len(tickets), len(analyzed))
	}

	done := 0
	for i, at := range analyzed {
		if _, ok := at.Ended(); ok {
			done++
			if tickets[i].CurrentState() != "Done" {
				t.Errorf("%s ended but is in %s", at.Key, tickets[i].CurrentState())
			}
		}
	}
	if done == 0 {
		t.Error("Expected some generated tickets to be done")
	}
}
