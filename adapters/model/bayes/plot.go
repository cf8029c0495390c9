package bayes

import (
	"fmt"
	"io"

	"github.com/montanaflynn/stats"

	"gocausal/domain/experiment"
	"gocausal/domain/model"
	"gocausal/ports"
)

// plotComponent renders posterior results as text with 94% credible bands.
type plotComponent struct{}

var _ ports.PlotComponent = (*plotComponent)(nil)

func (p *plotComponent) PlotPrePost(w io.Writer, res *experiment.PrePostResult) error {
	meanImpact, lo, hi, err := rowMeanInterval(res.PostImpact)
	if err != nil {
		return err
	}
	cum := res.PostImpactCumulative.Point
	_, err = fmt.Fprintf(w,
		"%s (Bayesian)\nFormula: %s\nPre-period fit: %s\nMean post-period impact: %.3f, 94%% HDI [%.3f, %.3f]\nCumulative impact: %.3f over %d observations\n",
		res.Kind, res.Formula, res.Score, meanImpact, lo, hi, cum[len(cum)-1], len(cum))
	return err
}

func (p *plotComponent) PlotNEGD(w io.Writer, res *experiment.NEGDResult) error {
	mean, err := stats.Mean(res.CausalImpact)
	if err != nil {
		return err
	}
	lo, err := stats.Percentile(res.CausalImpact, 3)
	if err != nil {
		return err
	}
	hi, err := stats.Percentile(res.CausalImpact, 97)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w,
		"%s (Bayesian)\nFormula: %s\nTreatment effect (%s): %.3f, 94%% HDI [%.3f, %.3f]\nCounterfactual grids: %d points over [%.3f, %.3f] of %s\n",
		res.Kind, res.Formula, res.CausalImpactLabel, mean, lo, hi,
		len(res.PredGrid), res.PredGrid[0], res.PredGrid[len(res.PredGrid)-1], res.PretreatmentVariable)
	return err
}

// rowMeanInterval averages the per-row impact means and takes 94% bounds of
// the per-draw mean impact.
func rowMeanInterval(d *model.Distribution) (mean, lo, hi float64, err error) {
	mean, err = stats.Mean(d.Point)
	if err != nil {
		return 0, 0, 0, err
	}
	drawMeans := make([]float64, len(d.Draws))
	for s, draw := range d.Draws {
		m, err := stats.Mean(draw)
		if err != nil {
			return 0, 0, 0, err
		}
		drawMeans[s] = m
	}
	lo, err = stats.Percentile(drawMeans, 3)
	if err != nil {
		return 0, 0, 0, err
	}
	hi, err = stats.Percentile(drawMeans, 97)
	if err != nil {
		return 0, 0, 0, err
	}
	return mean, lo, hi, nil
}
