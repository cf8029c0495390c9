// Package bayes implements the Bayesian regression backend: a conjugate
// normal linear model whose fitted state is a set of posterior coefficient
// draws. Predictions and impacts carry the full draw array so interval
// statements propagate through the experiment layer.
package bayes

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"gocausal/domain/core"
	"gocausal/domain/model"
	"gocausal/ports"
)

const defaultDraws = 2000

// Config controls posterior sampling.
type Config struct {
	Draws int   // posterior draws, defaultDraws when zero
	Seed  int64 // sampler seed
}

// LinearRegression is a conjugate Bayesian linear model: with a flat prior
// the coefficient posterior is beta | sigma ~ N(beta_hat, sigma^2 (X'X)^-1)
// and sigma^2 ~ RSS / ChiSquared(n-k).
type LinearRegression struct {
	cfg Config

	coefPoint  []float64
	coefDraws  [][]float64 // draws x k
	sigmaDraws []float64
	labels     []string
	fitted     bool
}

// NewLinearRegression creates an unfitted Bayesian backend.
func NewLinearRegression(cfg Config) *LinearRegression {
	if cfg.Draws <= 0 {
		cfg.Draws = defaultDraws
	}
	return &LinearRegression{cfg: cfg}
}

// Kind reports the Bayesian capability tag.
func (m *LinearRegression) Kind() model.Kind { return model.KindBayesian }

// Fit estimates the posterior. Coords are mandatory: the coefficient labels
// name the posterior's coefficient dimension and the observation indices its
// observation dimension.
func (m *LinearRegression) Fit(x [][]float64, y []float64, coords *model.Coords) error {
	if coords == nil {
		return core.NewConfigurationError("bayesian backend requires coords")
	}
	a, err := denseFrom(x)
	if err != nil {
		return err
	}
	n, k := a.Dims()
	if n != len(y) {
		return core.NewDataValidationError("y",
			fmt.Sprintf("%d outcomes against %d matrix rows", len(y), n))
	}
	if len(coords.Coeffs) != k {
		return core.NewConfigurationError(
			fmt.Sprintf("%d coefficient labels for %d covariates", len(coords.Coeffs), k))
	}
	if len(coords.ObsIdx) != n {
		return core.NewConfigurationError(
			fmt.Sprintf("%d observation indices for %d observations", len(coords.ObsIdx), n))
	}
	if n <= k {
		return core.NewDataValidationError("x",
			fmt.Sprintf("%d observations cannot identify %d coefficients plus noise", n, k))
	}

	// Point solve via QR.
	var qr mat.QR
	qr.Factorize(a)
	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, mat.NewDense(n, 1, y)); err != nil {
		return fmt.Errorf("least squares solve: %w", err)
	}
	point := make([]float64, k)
	for j := 0; j < k; j++ {
		point[j] = sol.At(j, 0)
	}

	// Residual sum of squares.
	rss := 0.0
	for i, row := range x {
		pred := 0.0
		for j := range point {
			pred += point[j] * row[j]
		}
		r := y[i] - pred
		rss += r * r
	}

	// Coefficient covariance shape: (X'X)^-1, Cholesky-factored so draws
	// are beta_hat + sigma_s * L z.
	var xtx mat.Dense
	xtx.Mul(a.T(), a)
	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return core.NewDataValidationError("x",
			fmt.Sprintf("singular design matrix: %v", err))
	}
	sym := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			sym.SetSym(i, j, 0.5*(inv.At(i, j)+inv.At(j, i)))
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return core.NewDataValidationError("x", "coefficient covariance is not positive definite")
	}
	var lower mat.TriDense
	chol.LTo(&lower)

	src := rand.NewPCG(uint64(m.cfg.Seed), uint64(m.cfg.Seed)+1)
	stdNormal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	chi2 := distuv.ChiSquared{K: float64(n - k), Src: src}

	m.coefDraws = make([][]float64, m.cfg.Draws)
	m.sigmaDraws = make([]float64, m.cfg.Draws)
	z := make([]float64, k)
	for s := 0; s < m.cfg.Draws; s++ {
		sigma := math.Sqrt(rss / chi2.Rand())
		m.sigmaDraws[s] = sigma
		for j := range z {
			z[j] = stdNormal.Rand()
		}
		draw := make([]float64, k)
		for i := 0; i < k; i++ {
			v := point[i]
			for j := 0; j <= i; j++ {
				v += sigma * lower.At(i, j) * z[j]
			}
			draw[i] = v
		}
		m.coefDraws[s] = draw
	}

	m.coefPoint = point
	m.labels = append([]string(nil), coords.Coeffs...)
	m.fitted = true
	return nil
}

// Predict evaluates the posterior mean function on a covariate matrix: the
// point estimate per row plus one predicted series per posterior draw.
func (m *LinearRegression) Predict(x [][]float64) (*model.Distribution, error) {
	if !m.fitted {
		return nil, core.NewConfigurationError("predict before fit")
	}
	point := make([]float64, len(x))
	draws := make([][]float64, len(m.coefDraws))
	for s := range draws {
		draws[s] = make([]float64, len(x))
	}
	for i, row := range x {
		if len(row) != len(m.coefPoint) {
			return nil, core.NewDataValidationError("x",
				fmt.Sprintf("row %d has %d columns, fit used %d", i, len(row), len(m.coefPoint)))
		}
		for j, c := range m.coefPoint {
			point[i] += c * row[j]
		}
		for s, coef := range m.coefDraws {
			v := 0.0
			for j, c := range coef {
				v += c * row[j]
			}
			draws[s][i] = v
		}
	}
	return &model.Distribution{Point: point, Draws: draws}, nil
}

// Score reports the coefficient of determination: the posterior mean R2
// across draws, with the draw spread in Std.
func (m *LinearRegression) Score(x [][]float64, y []float64) (model.GoodnessOfFit, error) {
	pred, err := m.Predict(x)
	if err != nil {
		return model.GoodnessOfFit{}, err
	}
	r2 := make([]float64, len(pred.Draws))
	for s, draw := range pred.Draws {
		r2[s] = rSquared(draw, y)
	}
	mean, err := stats.Mean(r2)
	if err != nil {
		return model.GoodnessOfFit{}, err
	}
	std, err := stats.StandardDeviation(r2)
	if err != nil {
		return model.GoodnessOfFit{}, err
	}
	return model.GoodnessOfFit{Name: "r2", Value: mean, Std: std}, nil
}

// CalculateImpact computes observed minus predicted, per draw.
func (m *LinearRegression) CalculateImpact(observed []float64, predicted *model.Distribution) (*model.Distribution, error) {
	return model.ImpactOf(observed, predicted)
}

// CalculateCumulativeImpact computes the running sum of an impact series.
func (m *LinearRegression) CalculateCumulativeImpact(impact *model.Distribution) (*model.Distribution, error) {
	return model.CumulativeOf(impact)
}

// CoefficientDraws returns the posterior draws of the named coefficient.
func (m *LinearRegression) CoefficientDraws(label string) ([]float64, error) {
	if !m.fitted {
		return nil, core.NewConfigurationError("coefficient draws before fit")
	}
	for j, l := range m.labels {
		if l == label {
			draws := make([]float64, len(m.coefDraws))
			for s := range m.coefDraws {
				draws[s] = m.coefDraws[s][j]
			}
			return draws, nil
		}
	}
	return nil, core.NewCoefficientLookupError(label, m.labels)
}

// SigmaDraws returns the posterior draws of the noise scale.
func (m *LinearRegression) SigmaDraws() []float64 {
	return append([]float64(nil), m.sigmaDraws...)
}

// PlotComponent returns the posterior renderer.
func (m *LinearRegression) PlotComponent() ports.PlotComponent {
	return &plotComponent{}
}

// PrintCoefficients writes each coefficient's posterior mean with a 94%
// credible interval, plus the noise scale sigma.
func (m *LinearRegression) PrintCoefficients(w io.Writer, labels []string, roundTo int) error {
	if !m.fitted {
		return core.NewConfigurationError("coefficients before fit")
	}
	if len(labels) != len(m.coefPoint) {
		return core.NewDataValidationError("labels",
			fmt.Sprintf("%d labels for %d coefficients", len(labels), len(m.coefPoint)))
	}
	if _, err := fmt.Fprintln(w, "Model coefficients:"); err != nil {
		return err
	}
	width := maxLabelWidth(append(append([]string(nil), labels...), "sigma"))
	for j, label := range labels {
		draws := make([]float64, len(m.coefDraws))
		for s := range m.coefDraws {
			draws[s] = m.coefDraws[s][j]
		}
		if err := writeCoefficientLine(w, label, width, draws, roundTo); err != nil {
			return err
		}
	}
	return writeCoefficientLine(w, "sigma", width, m.sigmaDraws, roundTo)
}

func writeCoefficientLine(w io.Writer, label string, width int, draws []float64, roundTo int) error {
	mean, err := stats.Mean(draws)
	if err != nil {
		return err
	}
	lo, err := stats.Percentile(draws, 3)
	if err != nil {
		return err
	}
	hi, err := stats.Percentile(draws, 97)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "    %-*s  %s, 94%% HDI [%s, %s]\n", width, label,
		core.FormatNum(mean, roundTo), core.FormatNum(lo, roundTo), core.FormatNum(hi, roundTo))
	return err
}

func rSquared(estimates, values []float64) float64 {
	meanY := 0.0
	for _, v := range values {
		meanY += v
	}
	meanY /= float64(len(values))
	ssRes, ssTot := 0.0, 0.0
	for i, v := range values {
		r := v - estimates[i]
		d := v - meanY
		ssRes += r * r
		ssTot += d * d
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func denseFrom(x [][]float64) (*mat.Dense, error) {
	if len(x) == 0 || len(x[0]) == 0 {
		return nil, core.NewDataValidationError("x", "empty covariate matrix")
	}
	cols := len(x[0])
	flat := make([]float64, 0, len(x)*cols)
	for i, row := range x {
		if len(row) != cols {
			return nil, core.NewDataValidationError("x",
				fmt.Sprintf("ragged matrix: row %d has %d columns, expected %d", i, len(row), cols))
		}
		flat = append(flat, row...)
	}
	return mat.NewDense(len(x), cols, flat), nil
}

func maxLabelWidth(labels []string) int {
	width := 0
	for _, l := range labels {
		if len(l) > width {
			width = len(l)
		}
	}
	return width
}
