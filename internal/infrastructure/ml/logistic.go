package ml

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression is an L2-regularised binary classifier fitted with L-BFGS.
// Class 1 is the positive class.
type LogisticRegression struct {
	C          float64   `json:"c"`
	MaxIter    int       `json:"max_iter"`
	Tol        float64   `json:"tol"`
	Coef       []float64 `json:"coef"`
	Intercept  float64   `json:"intercept"`
	Iterations int       `json:"iterations"`
	Status     string    `json:"status"`
}

// NewLogisticRegression creates an unfitted classifier.
func NewLogisticRegression(c float64, maxIter int) *LogisticRegression {
	return &LogisticRegression{C: c, MaxIter: maxIter, Tol: 1e-4}
}

// Fit minimises mean log-loss plus ||w||^2 / (2 C n), starting from zero
// weights. The intercept is not penalised.
func (m *LogisticRegression) Fit(ctx context.Context, X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("logistic regression: %d rows but %d labels", len(X), len(y))
	}
	if m.C <= 0 {
		return fmt.Errorf("logistic regression: C must be positive, got %v", m.C)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	n, d := float64(len(X)), len(X[0])
	alpha := 1 / (m.C * n)
	target := make([]float64, len(y))
	for i, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("logistic regression: label %d at row %d is not binary", v, i)
		}
		target[i] = float64(v)
	}

	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			w, b := params[:d], params[d]
			loss := 0.0
			for i, row := range X {
				z := floats.Dot(w, row) + b
				loss += softplus(z) - target[i]*z
			}
			return loss/n + 0.5*alpha*floats.Dot(w, w)
		},
		Grad: func(grad, params []float64) {
			w, b := params[:d], params[d]
			for j := range grad {
				grad[j] = 0
			}
			for i, row := range X {
				r := (sigmoid(floats.Dot(w, row)+b) - target[i]) / n
				floats.AddScaled(grad[:d], r, row)
				grad[d] += r
			}
			floats.AddScaled(grad[:d], alpha, w)
		},
	}

	settings := &optimize.Settings{
		MajorIterations:   m.MaxIter,
		GradientThreshold: m.Tol,
		Recorder:          contextRecorder{ctx: ctx},
	}
	result, err := optimize.Minimize(problem, make([]float64, d+1), settings, &optimize.LBFGS{})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("logistic regression: %w", ctxErr)
	}
	if result == nil {
		return fmt.Errorf("logistic regression: optimise: %w", err)
	}
	for _, v := range result.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("logistic regression: optimiser diverged (%s)", result.Status)
		}
	}

	m.Coef = append([]float64(nil), result.X[:d]...)
	m.Intercept = result.X[d]
	m.Iterations = result.Stats.MajorIterations
	m.Status = result.Status.String()
	if err != nil {
		// Line-search stalls near the optimum still leave a usable location.
		m.Status = err.Error()
	}
	return nil
}

// Converged reports whether the optimiser stopped on the gradient tolerance.
func (m *LogisticRegression) Converged() bool {
	return m.Status == optimize.GradientThreshold.String()
}

func (m *LogisticRegression) validate(width int) error {
	if len(m.Coef) != width {
		return fmt.Errorf("transformer produces %d columns, classifier has %d coefficients", width, len(m.Coef))
	}
	if err := checkFinite("logistic regression coefficients", m.Coef); err != nil {
		return err
	}
	return checkFinite("logistic regression intercept", []float64{m.Intercept})
}

// PredictProba returns P(y = 1 | x) for every row.
func (m *LogisticRegression) PredictProba(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != len(m.Coef) {
			return nil, fmt.Errorf("logistic regression: row %d has %d columns, model expects %d", i, len(row), len(m.Coef))
		}
		out[i] = sigmoid(floats.Dot(m.Coef, row) + m.Intercept)
	}
	return out, nil
}

// contextRecorder stops the optimiser at the next evaluation once ctx is done.
type contextRecorder struct {
	ctx context.Context
}

func (r contextRecorder) Init() error { return r.ctx.Err() }

func (r contextRecorder) Record(*optimize.Location, optimize.Operation, *optimize.Stats) error {
	return r.ctx.Err()
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus computes log(1 + e^z) without overflow.
func softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}
