// Package workflow composes one image agent with an ordered chain of text agents.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/snappy-loop/blogs/internal/agents"
	"github.com/snappy-loop/blogs/internal/apperr"
	"github.com/snappy-loop/blogs/internal/metrics"
)

// Result is the joined output of one workflow run.
type Result struct {
	BlogContent string `json:"blogContent"`
	ImageURL    string `json:"imageUrl"`
	// IntermediateResults holds the draft after every chain step except the last, keyed step1, step2, ...
	IntermediateResults map[string]string `json:"intermediateResults"`
}

// Runner runs a workflow for one keyword.
type Runner interface {
	Run(ctx context.Context, keyword string) (*Result, error)
}

// Workflow runs the image agent concurrently with a strictly sequential text chain.
// It holds no per-run state and is safe for concurrent use.
type Workflow struct {
	image agents.ImageAgent
	chain []agents.TextAgent
}

// New returns a workflow. The chain must contain at least one agent.
func New(image agents.ImageAgent, chain ...agents.TextAgent) (*Workflow, error) {
	if image == nil {
		return nil, errors.New("workflow: image agent is required")
	}
	if len(chain) == 0 {
		return nil, errors.New("workflow: at least one text agent is required")
	}
	for i, a := range chain {
		if a == nil {
			return nil, fmt.Errorf("workflow: text agent %d is nil", i+1)
		}
	}
	return &Workflow{image: image, chain: chain}, nil
}

// Run starts the image agent, folds the text chain, then joins the image call.
// The first agent failure cancels the other branch and aborts the run; no partial
// result is returned.
func (w *Workflow) Run(ctx context.Context, keyword string) (*Result, error) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	var imageURL string
	g.Go(func() error {
		url, err := w.image.Generate(gctx, keyword)
		imageURL = url
		return err
	})

	var (
		draft string
		steps map[string]string
	)
	g.Go(func() error {
		var err error
		draft, steps, err = w.runChain(gctx, keyword)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, w.fail(keyword, start, err)
	}

	metrics.WorkflowRuns.WithLabelValues("succeeded").Inc()
	metrics.WorkflowDuration.Observe(time.Since(start).Seconds())
	log.Info().
		Str("keyword", keyword).
		Int("steps", len(w.chain)).
		Bool("has_image", imageURL != "").
		Dur("elapsed", time.Since(start)).
		Msg("Workflow completed")

	return &Result{BlogContent: draft, ImageURL: imageURL, IntermediateResults: steps}, nil
}

// runChain is a left fold over the chain: the accumulator is the current draft,
// the side log records each step's snapshot except the final one.
func (w *Workflow) runChain(ctx context.Context, keyword string) (string, map[string]string, error) {
	steps := make(map[string]string, len(w.chain)-1)
	draft := ""
	for i, agent := range w.chain {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		next, err := agent.Generate(ctx, keyword, draft)
		if err != nil {
			return "", nil, err
		}
		draft = next
		if i < len(w.chain)-1 {
			steps[fmt.Sprintf("step%d", i+1)] = draft
		}
		log.Debug().Str("keyword", keyword).Int("step", i+1).Str("agent", agent.Name()).Msg("Chain step done")
	}
	return draft, steps, nil
}

func (w *Workflow) fail(keyword string, start time.Time, err error) error {
	metrics.WorkflowRuns.WithLabelValues("failed").Inc()
	metrics.WorkflowDuration.Observe(time.Since(start).Seconds())
	log.Error().Err(err).Str("keyword", keyword).Msg("Workflow failed")
	if apperr.IsGeneration(err) {
		return err
	}
	return &apperr.GenerationError{Agent: "workflow", Err: err}
}
