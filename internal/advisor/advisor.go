// Package advisor resolves inconclusive requests with a language model, informed by
// similar past decisions.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

const (
	DefaultTopK           = 3
	DefaultMaxAttempts    = 3
	DefaultAttemptTimeout = 20 * time.Second
	DefaultInitialBackoff = 200 * time.Millisecond
)

type Options struct {
	// TopK is the number of precedents included in the prompt.
	TopK int
	// MinScore drops precedents below this similarity.
	MinScore float64

	MaxAttempts    int
	AttemptTimeout time.Duration
	InitialBackoff time.Duration

	// RatePerSecond limits model calls. Zero means unlimited.
	RatePerSecond float64
	Burst         int

	Cache Cache
}

// Advice is the model's answer for a case.
type Advice struct {
	Verdict    core.Verdict
	Rationale  string
	Precedents []core.Precedent
	Raw        string
	Cached     bool
}

// retryable is implemented by errors that know whether a retry may succeed.
type retryable interface {
	Retryable() bool
}

type Advisor struct {
	completer core.Completer
	retriever core.Retriever
	opts      Options
	limiter   *rate.Limiter
}

// New creates an advisor. retriever may be nil, then no precedents are used.
func New(completer core.Completer, retriever core.Retriever, opts Options) *Advisor {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultInitialBackoff
	}

	a := &Advisor{
		completer: completer,
		retriever: retriever,
		opts:      opts,
	}
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return a
}

// Advise asks the model to decide c.
//
// Errors wrap core.ErrRetrieverUnavailable or core.ErrModelUnavailable when a collaborator
// fails after retries, and are a core.UnparsableResponseError when the answer does not
// follow the decision grammar. If ctx ends, ctx.Err() is returned.
func (a *Advisor) Advise(ctx context.Context, c Case) (*Advice, error) {
	precedents, err := a.precedents(ctx, c.Record.Reason)
	if err != nil {
		return nil, err
	}

	prompt, err := RenderPrompt(c, precedents)
	if err != nil {
		return nil, err
	}
	key := Key(prompt)

	advice := &Advice{Precedents: precedents}

	if a.opts.Cache != nil {
		cached, ok, err := a.opts.Cache.Get(ctx, key)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("completion cache lookup failed")
		}
		if ok {
			if v, r, perr := ParseResponse(cached); perr == nil {
				advice.Verdict, advice.Rationale, advice.Raw, advice.Cached = v, r, cached, true
				return advice, nil
			}
		}
	}

	raw, err := a.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	advice.Raw = raw

	verdict, rationale, err := ParseResponse(raw)
	if err != nil {
		return advice, err
	}
	advice.Verdict, advice.Rationale = verdict, rationale

	if a.opts.Cache != nil {
		if err := a.opts.Cache.Set(ctx, key, raw); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("completion cache store failed")
		}
	}
	return advice, nil
}

func (a *Advisor) precedents(ctx context.Context, query string) ([]core.Precedent, error) {
	if a.retriever == nil {
		return nil, nil
	}

	found, err := backoff.Retry(ctx, func() ([]core.Precedent, error) {
		return a.retriever.Search(ctx, query, a.opts.TopK)
	}, a.retryOptions("retriever")...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", core.ErrRetrieverUnavailable, err)
	}

	out := make([]core.Precedent, 0, len(found))
	for _, p := range found {
		if p.Score >= a.opts.MinScore {
			out = append(out, p)
		}
	}
	return out, nil
}

func (a *Advisor) complete(ctx context.Context, prompt string) (string, error) {
	raw, err := backoff.Retry(ctx, func() (string, error) {
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return "", backoff.Permanent(err)
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, a.opts.AttemptTimeout)
		defer cancel()

		out, err := a.completer.Complete(attemptCtx, prompt)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		var r retryable
		if errors.As(err, &r) && !r.Retryable() {
			return "", backoff.Permanent(err)
		}
		return "", err
	}, a.retryOptions("model")...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
	}
	return raw, nil
}

func (a *Advisor) retryOptions(what string) []backoff.RetryOption {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.opts.InitialBackoff
	b.MaxInterval = 10 * a.opts.InitialBackoff

	return []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(a.opts.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Str("collaborator", what).Dur("retry_in", next).Msg("call failed, retrying")
		}),
	}
}
