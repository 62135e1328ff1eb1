package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/bibbank/loan-approval/internal/application/dto"
	"github.com/bibbank/loan-approval/internal/domain/event"
	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/port"
	"github.com/bibbank/loan-approval/internal/domain/service"
	"github.com/bibbank/loan-approval/pkg/auth"
)

const instrumentationName = "github.com/bibbank/loan-approval/internal/application/usecase"

// PredictLoan scores one application against the loaded model.
type PredictLoan struct {
	model     port.Model
	preparer  *service.FeaturePreparer
	policy    *service.DecisionPolicy
	publisher port.EventPublisher
	logger    *slog.Logger

	tracer    trace.Tracer
	decisions metric.Int64Counter
	failures  metric.Int64Counter
	latency   metric.Float64Histogram
}

// NewPredictLoan creates the use case. It fails when the model expects a
// feature the request does not carry.
func NewPredictLoan(
	m port.Model,
	policy *service.DecisionPolicy,
	publisher port.EventPublisher,
	logger *slog.Logger,
) (*PredictLoan, error) {
	schema := m.Metadata().Schema
	var missing []string
	for _, name := range schema.Names() {
		if !slices.Contains(model.ApplicationFields, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("model %s expects features the API does not accept: %w",
			m.Metadata().Version, &model.SchemaMismatchError{Missing: missing})
	}

	meter := otel.Meter(instrumentationName)
	decisions, err := meter.Int64Counter("loan_decisions_total",
		metric.WithDescription("Loan decisions served, by result."))
	if err != nil {
		return nil, fmt.Errorf("failed to create decision counter: %w", err)
	}
	failures, err := meter.Int64Counter("loan_decision_failures_total",
		metric.WithDescription("Requests that did not produce a decision, by reason."))
	if err != nil {
		return nil, fmt.Errorf("failed to create failure counter: %w", err)
	}
	latency, err := meter.Float64Histogram("loan_prediction_duration_seconds",
		metric.WithDescription("Time spent preparing and scoring an application."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create latency histogram: %w", err)
	}

	return &PredictLoan{
		model:     m,
		preparer:  service.NewFeaturePreparer(schema),
		policy:    policy,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
		decisions: decisions,
		failures:  failures,
		latency:   latency,
	}, nil
}

// ModelVersion returns the version of the model decisions are made with.
func (uc *PredictLoan) ModelVersion() string {
	return uc.model.Metadata().Version
}

// Execute validates the application, scores it and applies the decision threshold.
func (uc *PredictLoan) Execute(ctx context.Context, req dto.PredictRequest) (dto.PredictResponse, error) {
	ctx, span := uc.tracer.Start(ctx, "PredictLoan.Execute")
	defer span.End()
	start := time.Now()

	prediction, err := uc.predict(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", failureReason(err))))
		return dto.PredictResponse{}, err
	}

	uc.latency.Record(ctx, time.Since(start).Seconds())
	uc.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("result", prediction.Decision.String())))
	span.SetAttributes(
		attribute.String("loan.decision", prediction.Decision.String()),
		attribute.Float64("loan.probability_bad", prediction.ProbabilityBad),
		attribute.String("loan.model_version", prediction.ModelVersion),
	)

	evt := event.NewLoanDecisionMade(prediction.ID, prediction.ModelVersion,
		prediction.Decision.String(), prediction.ProbabilityBad, prediction.Threshold)
	if err := uc.publisher.Publish(ctx, evt); err != nil {
		uc.logger.WarnContext(ctx, "failed to publish decision event",
			"prediction_id", prediction.ID,
			"error", err,
		)
	}

	uc.logger.DebugContext(ctx, "loan decision",
		"prediction_id", prediction.ID,
		"result", prediction.Decision.String(),
		"probability_bad", prediction.ProbabilityBad,
		"threshold", prediction.Threshold,
		"caller", caller(ctx),
	)

	return dto.FromPrediction(prediction), nil
}

// caller names the authenticated client, or "anonymous" when auth is off.
func caller(ctx context.Context) string {
	if claims, ok := auth.ClaimsFromContext(ctx); ok && claims.Subject != "" {
		return claims.Subject
	}
	return "anonymous"
}

func (uc *PredictLoan) predict(req dto.PredictRequest) (model.Prediction, error) {
	app, err := model.NewLoanApplication(req.LoanAmount, req.Term, req.AnnualIncome, req.FICORangeLow, req.DTI)
	if err != nil {
		return model.Prediction{}, err
	}

	row, err := uc.preparer.Prepare(app.Raw())
	if err != nil {
		return model.Prediction{}, err
	}

	proba, err := uc.model.PredictProba([]model.PreparedRow{row})
	if err != nil {
		return model.Prediction{}, fmt.Errorf("%w: %v", model.ErrDecisionUnavailable, err)
	}
	if len(proba) != 1 {
		return model.Prediction{}, fmt.Errorf("%w: model returned %d scores for one row", model.ErrDecisionUnavailable, len(proba))
	}

	return uc.policy.Decide(proba[0], uc.ModelVersion())
}

func failureReason(err error) string {
	var (
		verr *model.ValidationError
		perr *model.ParseError
		terr *model.TypeConversionError
	)
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &perr), errors.As(err, &terr):
		return "parse"
	case errors.Is(err, model.ErrDecisionUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}
