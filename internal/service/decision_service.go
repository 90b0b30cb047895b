package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyejinbaek/cognition-ai-proj/internal/advisor"
	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/engine"
	"github.com/hyejinbaek/cognition-ai-proj/internal/retrieval"
)

// DecisionService decides requests, consults the model for inconclusive ones and
// records every decision.
type DecisionService struct {
	policyManager *engine.PolicyManager
	auditor       core.Auditor
	advisor       *advisor.Advisor
	examples      core.ExampleStore
	index         *retrieval.Index
	now           func() time.Time
}

type Option func(*DecisionService)

// WithAdvisor enables the model fallback for inconclusive requests.
func WithAdvisor(a *advisor.Advisor) Option {
	return func(s *DecisionService) { s.advisor = a }
}

// WithHistory enables the historical example endpoints. New examples are written to
// examples and added to index immediately.
func WithHistory(examples core.ExampleStore, index *retrieval.Index) Option {
	return func(s *DecisionService) {
		s.examples = examples
		s.index = index
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *DecisionService) { s.now = now }
}

func NewDecisionService(policyManager *engine.PolicyManager, auditor core.Auditor, opts ...Option) *DecisionService {
	s := &DecisionService{
		policyManager: policyManager,
		auditor:       auditor,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decide returns a verdict for req. The only errors are bad input
// (UnrecognizedCategory, empty reason) and cancellation of ctx; collaborator failures
// degrade to the rule table verdict.
func (s *DecisionService) Decide(ctx context.Context, req DecideRequest) (*core.Decision, error) {
	logger := log.Ctx(ctx)
	submittedAt := s.now()

	auditEntry := core.AuditEntry{
		ID:     core.CorrelationID(ctx),
		Time:   submittedAt,
		Action: core.ActionDecide,
		Label:  req.Category,
		Reason: req.Reason,
	}
	defer func() {
		// fire and forget, the auditor reports persistence failures itself
		if err := s.auditor.Log(auditEntry); err != nil {
			logger.Error().Err(err).Msg("failed to write audit log entry for decision")
		}
	}()

	if err := ctx.Err(); err != nil {
		auditEntry.Error = "cancelled"
		return nil, requestError(err)
	}

	// all steps of this decision use the same rule table, even if it is swapped meanwhile
	eng := s.policyManager.GetEngine()

	record, err := eng.Normalize(req.Category, req.Reason, submittedAt)
	if err != nil {
		logger.Warn().Err(err).Str("label", req.Category).Msg("request refused")
		auditEntry.Error = err.Error()
		return nil, requestError(err)
	}
	auditEntry.Category = record.Category

	logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("category", string(record.Category))
	})

	result, err := eng.Evaluate(record)
	if err != nil {
		auditEntry.Error = err.Error()
		logger.Error().Err(err).Msg("rule evaluation failed")
		if errors.Is(err, engine.ErrNoRule) {
			return nil, httpError(http.StatusUnprocessableEntity, err)
		}
		return nil, httpError(http.StatusInternalServerError, err)
	}
	auditEntry.RuleName = result.RuleName

	decision := &core.Decision{
		ID:        uuid.NewString(),
		Verdict:   result.Verdict,
		Rationale: result.Rationale,
		Category:  record.Category,
		Source:    core.SourceRules,
		RuleName:  result.RuleName,
		Evidence:  result.Evidence,
		DecidedAt: submittedAt,
	}

	if !result.Conclusive && s.advisor != nil {
		if err := s.consult(ctx, eng, record, result, decision); err != nil {
			auditEntry.Error = err.Error()
			return nil, requestError(err)
		}
	}
	decision.DecidedAt = s.now()

	auditEntry.DecisionID = decision.ID
	auditEntry.Decision = decision.Verdict
	auditEntry.Rationale = decision.Rationale
	auditEntry.Source = decision.Source
	auditEntry.Degraded = decision.Source == core.SourceDegraded

	logger.Info().
		Str("decision_id", decision.ID).
		Str("decision", string(decision.Verdict)).
		Str("source", string(decision.Source)).
		Msg("request decided")

	return decision, nil
}

// consult asks the advisor to resolve an inconclusive rule verdict and updates decision.
// Only cancellation of ctx is returned as an error.
func (s *DecisionService) consult(
	ctx context.Context,
	eng *engine.Engine,
	record core.RequestRecord,
	result *engine.Result,
	decision *core.Decision,
) error {
	logger := log.Ctx(ctx)

	c := advisor.Case{
		Record:   record,
		Evidence: result.Evidence,
		RuleName: result.RuleName,
		Fields:   result.Fields,
	}
	if rule, ok := eng.Table().Rule(record.Category); ok {
		c.RuleDescription = rule.Description
	}

	advice, err := s.advisor.Advise(ctx, c)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		var unparsable core.UnparsableResponseError
		switch {
		case errors.As(err, &unparsable):
			logger.Warn().Err(err).Str("raw_response", unparsable.Raw).Msg("model.unparsable_response, keeping rule verdict")
		case errors.Is(err, core.ErrRetrieverUnavailable), errors.Is(err, core.ErrModelUnavailable):
			logger.Warn().Err(err).Msg("model.degraded, keeping rule verdict")
		default:
			logger.Error().Err(err).Msg("model fallback failed, keeping rule verdict")
		}
		// inconclusive rule verdicts are Held
		decision.Verdict = core.VerdictHeld
		decision.Source = core.SourceDegraded
		return nil
	}

	decision.Verdict = advice.Verdict
	decision.Rationale = modelRationale(advice, result.Fields)
	decision.Source = core.SourceModel
	decision.Precedents = advice.Precedents
	return nil
}

// modelRationale makes sure a non-approving model rationale names the undecided fields.
func modelRationale(advice *advisor.Advice, fields []string) string {
	if advice.Verdict == core.VerdictApproved || len(fields) == 0 {
		return advice.Rationale
	}
	for _, f := range fields {
		if strings.Contains(advice.Rationale, f) {
			return advice.Rationale
		}
	}
	return advice.Rationale + " (fields: " + strings.Join(fields, ", ") + ")"
}
