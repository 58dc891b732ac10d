package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	campus "github.com/lychee-technology/campus"
)

// ProcessedResult pairs the primary entity of one input with the side-effect
// records its processing changed.
type ProcessedResult[E any] struct {
	Output   E
	Modified []campus.Record
}

// Mutation is the capability set one mutation kind supplies to Run.
// Only GenerateEntityMaps can read storage and only ApplyToDatabase can write it.
type Mutation[In, M, E, N any] interface {
	EntityName() string
	Normalize(inputs []In) []In
	GenerateEntityMaps(ctx context.Context, r campus.Reader, inputs []In) (M, error)
	Authorize(ctx context.Context, auth campus.Authorizer, inputs []In, maps M) error
	ValidateOverAllInputs(inputs []In, maps M) ([]Indexed[In], []*campus.APIError)
	Validate(index int, input In, maps M) []*campus.APIError
	Process(index int, input In, maps M) ProcessedResult[E]
	ApplyToDatabase(ctx context.Context, tx campus.Tx, results []ProcessedResult[E]) error
	BuildOutput(result ProcessedResult[E]) N
}

// Engine holds what every mutation run shares: the store, batch limits and metrics.
type Engine struct {
	store   campus.Store
	limits  campus.LimitsConfig
	metrics *MutationMetrics
}

// NewEngine creates an engine. metrics may be nil.
func NewEngine(store campus.Store, limits campus.LimitsConfig, metrics *MutationMetrics) *Engine {
	return &Engine{store: store, limits: limits, metrics: metrics}
}

// Run executes one mutation call. It returns outputs in input order, or one of:
// a *campus.APIError for length bounds and save failures, the authorizer's
// error, or a *campus.APIErrorCollection holding every validation problem.
func Run[In, M, E, N any](ctx context.Context, e *Engine, auth campus.Authorizer, m Mutation[In, M, E, N], inputs []In) (out []N, err error) {
	name := m.EntityName()
	start := time.Now()
	defer func() {
		e.metrics.Observe(name, outcomeOf(err), len(inputs), time.Since(start))
	}()

	if err := checkInputLength(name, len(inputs), e.limits); err != nil {
		return nil, err
	}

	normalized := m.Normalize(inputs)
	if len(normalized) != len(inputs) {
		return nil, fmt.Errorf("%s: normalize changed input length from %d to %d", name, len(inputs), len(normalized))
	}

	maps, err := m.GenerateEntityMaps(ctx, e.store, normalized)
	if err != nil {
		return nil, fmt.Errorf("%s: generate entity maps: %w", name, err)
	}

	if err := m.Authorize(ctx, auth, normalized, maps); err != nil {
		return nil, err
	}

	valid, errs := m.ValidateOverAllInputs(normalized, maps)

	results := make([]ProcessedResult[E], 0, len(valid))
	for _, v := range valid {
		if inputErrs := m.Validate(v.Index, v.Input, maps); len(inputErrs) > 0 {
			errs = append(errs, inputErrs...)
			continue
		}
		results = append(results, m.Process(v.Index, v.Input, maps))
	}

	if len(errs) > 0 {
		campus.SortAPIErrors(errs)
		zap.S().Debugw("mutation rejected", "mutation", name, "inputs", len(inputs), "errors", len(errs))
		return nil, campus.NewAPIErrorCollection(errs)
	}

	err = e.store.RunInTransaction(ctx, func(ctx context.Context, tx campus.Tx) error {
		return m.ApplyToDatabase(ctx, tx, results)
	})
	if err != nil {
		zap.S().Errorw("mutation save failed", "mutation", name, "error", err)
		return nil, campus.NewDatabaseSaveError(name, err.Error())
	}

	out = make([]N, 0, len(results))
	for _, r := range results {
		out = append(out, m.BuildOutput(r))
	}
	zap.S().Debugw("mutation applied", "mutation", name, "inputs", len(inputs))
	return out, nil
}

func checkInputLength(entity string, n int, limits campus.LimitsConfig) error {
	if n < limits.MutationMinInputArraySize {
		return campus.NewInputLengthError(entity, campus.LimitMin, limits.MutationMinInputArraySize, "input array", nil)
	}
	if n > limits.MutationMaxInputArraySize {
		return campus.NewInputLengthError(entity, campus.LimitMax, limits.MutationMaxInputArraySize, "input array", nil)
	}
	return nil
}

// Outcome labels used for metrics.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalid      = "invalid"
	OutcomeInputLength  = "input_length"
	OutcomeUnauthorized = "unauthorized"
	OutcomeSaveFailed   = "save_failed"
	OutcomeError        = "error"
)

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if campus.IsPermissionError(err) {
		return OutcomeUnauthorized
	}
	if campus.IsAPIErrorCollection(err) {
		return OutcomeInvalid
	}
	var apiErr *campus.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case campus.ErrCodeDatabaseSave:
			return OutcomeSaveFailed
		case campus.ErrCodeInvalidArrayMinLength, campus.ErrCodeInvalidArrayMaxLength:
			return OutcomeInputLength
		}
	}
	return OutcomeError
}
