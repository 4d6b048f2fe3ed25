// Package engine generates synthetic ticket histories for demos and tests.
package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"agile-analytics/internal/analysis"
	"agile-analytics/internal/ticket"
)

// Workflow states used by generated tickets, in order.
var Workflow = []string{"Open", "Refinement", "In Progress", "Done"}

type GeneratorConfig struct {
	Scenario     string // "mild", "chaos" or "drift"
	Distribution string // "uniform" or "weibull"
	Count        int
	Now          time.Time
	Seed         int64
}

// Generate creates Count tickets arriving one per day up to Now. Each ticket walks
// the workflow with a sampled cycle time; tickets whose cycle has not elapsed
// stop in the state they would currently be in.
func Generate(cfg GeneratorConfig) []ticket.AgileTicket {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	tickets := make([]ticket.AgileTicket, 0, cfg.Count)
	firstArrival := cfg.Now.AddDate(0, 0, -cfg.Count)

	for i := 0; i < cfg.Count; i++ {
		arrival := firstArrival.Add(time.Duration(i*24) * time.Hour)
		days := cycleDays(rng, cfg, i)

		t := ticket.AgileTicket{
			Key:     fmt.Sprintf("MOCK-%d", i+1),
			Title:   fmt.Sprintf("Generated story %d", i+1),
			Type:    "Story",
			Created: arrival,
			FlowLog: []ticket.FlowEntry{{State: Workflow[0], EnteredAt: arrival}},
		}

		// Refinement at 15%, In Progress at 40%, Done at 100% of the cycle
		for j, share := range []float64{0.15, 0.40, 1.0} {
			at := arrival.Add(time.Duration(days * share * 24 * float64(time.Hour)))
			if !at.Before(cfg.Now) {
				break
			}
			t.FlowLog = append(t.FlowLog, ticket.FlowEntry{State: Workflow[j+1], EnteredAt: at})
		}
		t.Updated = t.FlowLog[len(t.FlowLog)-1].EnteredAt
		tickets = append(tickets, t)
	}
	return tickets
}

func cycleDays(rng *rand.Rand, cfg GeneratorConfig, i int) float64 {
	k, lambda := 2.5, 9.5
	switch cfg.Scenario {
	case "chaos":
		k = 0.8
		if cfg.Distribution == "weibull" {
			lambda = 12.0
		}
	case "drift":
		ratio := float64(i) / float64(cfg.Count)
		k = 2.5 - (1.7 * ratio)
		lambda = 9.5 + (2.5 * ratio)
	}

	if cfg.Distribution == "weibull" {
		return weibullSample(rng, k, lambda)
	}

	days := 6.0 + rng.Float64()*5.0
	if cfg.Scenario == "chaos" && rng.Float64() < 0.2 {
		days += 10 + rng.Float64()*15
	}
	if cfg.Scenario == "drift" && i > cfg.Count/2 {
		days *= 2.0
	}
	return days
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

// Save writes the raw tickets and their analyzed form into outDir as
// <name>.raw.json and <name>.json. The latter is the input of analyze-file.
func Save(outDir, name string, tickets []ticket.AgileTicket) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}

	raw, err := json.MarshalIndent(tickets, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(outDir, name+".raw.json"), raw, 0644); err != nil {
		return "", err
	}

	analyzer, err := analysis.NewDateAnalyzer([]string{"In Progress"}, []string{"Done"})
	if err != nil {
		return "", err
	}
	analyzed, _ := analyzer.Analyze(tickets)

	path := filepath.Join(outDir, name+".json")
	return path, ticket.SaveAnalyzed(path, analyzed)
}
