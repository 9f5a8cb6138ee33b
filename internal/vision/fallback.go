package vision

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"spotter/internal/domain"
	"spotter/internal/extraction"
	"spotter/internal/port"
	"spotter/internal/validator"
)

// triesPerModel is the first call plus one in-place retry after a TransientError.
const triesPerModel = 2

// State is the position of a chain run.
type State int

const (
	StateTrying State = iota
	StateAccepted
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateTrying:
		return "trying"
	case StateAccepted:
		return "accepted"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// AttemptState identifies the model currently being tried for one image.
type AttemptState struct {
	Model    string
	Position int
	Try      int
}

// Attempt records one model call made during a run.
type Attempt struct {
	AttemptState
	Err      error
	Products int
	Verdict  validator.Verdict
	Duration time.Duration
}

// Outcome is the result of running one image through the chain.
type Outcome struct {
	State    State
	Result   *domain.PageExtractionResult
	Model    string
	Attempts []Attempt
}

// Accepted reports whether a model produced an accepted result.
func (o *Outcome) Accepted() bool {
	return o.State == StateAccepted
}

// LastError returns the error of the final attempt, if any.
func (o *Outcome) LastError() error {
	if len(o.Attempts) == 0 {
		return nil
	}
	return o.Attempts[len(o.Attempts)-1].Err
}

// Chain tries an ordered list of vision models for each image and stops at
// the first reply that parses and passes validation. The list never changes
// after construction; each Run keeps its own attempt state, so a Chain is
// safe for concurrent use.
type Chain struct {
	models    []string
	client    port.VisionClient
	mode      domain.ResponseMode
	prompt    string
	validator validator.ResultValidator
}

// NewChain creates a Chain. A nil validator only rejects empty pages.
func NewChain(models []string, client port.VisionClient, mode domain.ResponseMode, v validator.ResultValidator) (*Chain, error) {
	if len(models) == 0 {
		return nil, domain.ErrNoModels
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown response mode %q", mode)
	}
	if v == nil {
		v = validator.NewAnchorValidator(nil)
	}
	return &Chain{
		models:    append([]string(nil), models...),
		client:    client,
		mode:      mode,
		prompt:    BuildPrompt(mode),
		validator: v,
	}, nil
}

// Models returns a copy of the model order.
func (c *Chain) Models() []string {
	return append([]string(nil), c.models...)
}

// Run sends img to each model in order until one result is accepted or the
// list is exhausted. Per-model failures never escape; they are recorded in
// Outcome.Attempts.
func (c *Chain) Run(ctx context.Context, img port.VisionImage) *Outcome {
	out := &Outcome{State: StateTrying}
	st := AttemptState{}

	for st.Position < len(c.models) {
		if ctx.Err() != nil {
			zap.L().Warn("vision.Chain: context done, giving up", zap.String("image", img.Path), zap.Error(ctx.Err()))
			out.State = StateExhausted
			return out
		}

		st.Model = c.models[st.Position]
		st.Try++

		att, res := c.attempt(ctx, st, img)
		out.Attempts = append(out.Attempts, att)

		if att.Err != nil {
			if IsTransient(att.Err) && st.Try < triesPerModel {
				zap.L().Warn("vision.Chain: transient failure, retrying",
					zap.String("model", st.Model), zap.String("image", img.Path), zap.Error(att.Err))
				continue
			}
			zap.L().Warn("vision.Chain: model failed, advancing",
				zap.String("model", st.Model), zap.String("image", img.Path), zap.Error(att.Err))
			st = AttemptState{Position: st.Position + 1}
			continue
		}

		if att.Verdict.Accepted() {
			res.ModelUsed = st.Model
			out.State = StateAccepted
			out.Result = res
			out.Model = st.Model
			zap.L().Info("vision.Chain: result accepted",
				zap.String("model", st.Model), zap.String("image", img.Path), zap.Int("products", att.Products))
			return out
		}

		zap.L().Warn("vision.Chain: result rejected, advancing",
			zap.String("model", st.Model), zap.String("image", img.Path),
			zap.String("verdict", string(att.Verdict)), zap.Int("products", att.Products))
		st = AttemptState{Position: st.Position + 1}
	}

	out.State = StateExhausted
	zap.L().Error("vision.Chain: all models exhausted", zap.String("image", img.Path), zap.Int("attempts", len(out.Attempts)))
	return out
}

func (c *Chain) attempt(ctx context.Context, st AttemptState, img port.VisionImage) (Attempt, *domain.PageExtractionResult) {
	start := time.Now()
	att := Attempt{AttemptState: st}

	raw, err := c.client.Complete(ctx, port.VisionRequest{
		Model:  st.Model,
		Image:  img,
		Prompt: c.prompt,
	})
	if err != nil {
		att.Err = err
		att.Duration = time.Since(start)
		return att, nil
	}

	res, err := extraction.Parse(raw, c.mode)
	att.Duration = time.Since(start)
	if err != nil {
		att.Err = err
		return att, nil
	}

	att.Products = len(res.Products)
	if EchoesExample(c.mode, raw, res) {
		att.Verdict = validator.VerdictRejectEcho
		return att, res
	}
	att.Verdict = c.verdict(res)
	return att, res
}

// verdict uses the validator's reason when it gives one.
func (c *Chain) verdict(res *domain.PageExtractionResult) validator.Verdict {
	if checker, ok := c.validator.(interface {
		Check(*domain.PageExtractionResult) validator.Verdict
	}); ok {
		return checker.Check(res)
	}
	if c.validator.Validate(res) {
		return validator.VerdictAccept
	}
	return validator.VerdictReject
}
