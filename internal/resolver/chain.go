package resolver

import (
	"context"

	"github.com/tuowzz/lazada-bot/internal/lazada"
	"github.com/tuowzz/lazada-bot/internal/models"
)

// Outcome tags a single step's answer.
type Outcome int

const (
	Matched Outcome = iota
	NoMatch
	TransientFailure
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case NoMatch:
		return "no_match"
	default:
		return "transient_failure"
	}
}

// StepResult is what a step returns instead of an error.
type StepResult struct {
	Outcome Outcome
	Product lazada.Product
	Err     error
}

// Step is one link of the fallback chain.
type Step struct {
	Name string
	// Outcome is the lookup outcome recorded when this step matches.
	Outcome string
	Run     func(ctx context.Context, q models.OutboundQuery) StepResult
}

// Evaluate runs steps in order and stops at the first Matched result. Both
// NoMatch and TransientFailure advance to the next step. observe, if non-nil,
// sees every evaluated step.
func Evaluate(ctx context.Context, q models.OutboundQuery, steps []Step, observe func(Step, StepResult)) (lazada.Product, Step, bool) {
	for _, step := range steps {
		if ctx.Err() != nil {
			break
		}
		res := step.Run(ctx, q)
		if observe != nil {
			observe(step, res)
		}
		if res.Outcome == Matched {
			return res.Product, step, true
		}
	}
	return lazada.Product{}, Step{}, false
}
