package analysis

import (
	"fmt"
	"sort"

	"inverter-simulator/internal/model"
	"inverter-simulator/internal/simulator"
	"inverter-simulator/internal/strategy"

	"github.com/shopspring/decimal"
)

// BaselineName labels the battery-idle run every comparison is measured against.
const BaselineName = "baseline"

// Candidate is one strategy entered into a comparison.
type Candidate struct {
	// Label defaults to Strategy.Name().
	Label    string
	Strategy strategy.Strategy
}

type Ranked struct {
	Summary
	Rank int `json:"rank"`
	// Savings is baseline cost minus this run's cost; positive is better.
	Savings decimal.Decimal `json:"savings"`
}

// Comparison is the outcome of Compare.
type Comparison struct {
	Baseline Summary  `json:"baseline"`
	Ranked   []Ranked `json:"ranked"`
}

// Compare runs every candidate on its own simulator over the same records, plus a
// baseline with the battery stopped, and ranks the candidates by total cost
// (cheapest first).
func Compare(records []model.IntervalRecord, opts simulator.Options, candidates []Candidate) (*Comparison, error) {
	baseline, err := runOne(records, opts, &strategy.FixedStrategy{Action: model.ActionStopped, Reason: "battery idle"})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", BaselineName, err)
	}
	out := &Comparison{Baseline: Summarize(BaselineName, baseline)}

	seen := map[string]int{}
	for _, c := range candidates {
		if c.Strategy == nil {
			return nil, fmt.Errorf("candidate %q has no strategy", c.Label)
		}
		label := c.Label
		if label == "" {
			label = c.Strategy.Name()
		}
		// Disambiguate repeated labels (e.g. two fixed strategies).
		seen[label]++
		if n := seen[label]; n > 1 {
			label = fmt.Sprintf("%s#%d", label, n)
		}

		res, err := runOne(records, opts, c.Strategy)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		sum := Summarize(label, res)
		out.Ranked = append(out.Ranked, Ranked{
			Summary: sum,
			Savings: out.Baseline.TotalCost.Sub(sum.TotalCost),
		})
	}
	RankByCost(out.Ranked)
	return out, nil
}

// RankByCost sorts ascending by total cost and numbers the entries from 1.
// Ties keep their input order.
func RankByCost(rs []Ranked) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].TotalCost.LessThan(rs[j].TotalCost)
	})
	for i := range rs {
		rs[i].Rank = i + 1
	}
}

func runOne(records []model.IntervalRecord, opts simulator.Options, s strategy.Strategy) (*simulator.Result, error) {
	sim, err := simulator.New(records, strategy.Func(s), opts)
	if err != nil {
		return nil, err
	}
	return sim.Run()
}
