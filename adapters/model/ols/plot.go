package ols

import (
	"fmt"
	"io"

	"github.com/montanaflynn/stats"

	"gocausal/domain/experiment"
	"gocausal/ports"
)

// plotComponent renders point-estimate results as a plain text chart
// substitute: no uncertainty bands, just observed vs counterfactual.
type plotComponent struct{}

var _ ports.PlotComponent = (*plotComponent)(nil)

func (p *plotComponent) PlotPrePost(w io.Writer, res *experiment.PrePostResult) error {
	meanImpact, err := stats.Mean(res.PostImpact.Point)
	if err != nil {
		return err
	}
	cum := res.PostImpactCumulative.Point
	_, err = fmt.Fprintf(w,
		"%s (OLS)\nFormula: %s\nPre-period fit: %s\nMean post-period impact: %.3f\nCumulative impact: %.3f over %d observations\n",
		res.Kind, res.Formula, res.Score, meanImpact, cum[len(cum)-1], len(cum))
	return err
}

func (p *plotComponent) PlotNEGD(w io.Writer, res *experiment.NEGDResult) error {
	// NEGD requires a posterior-carrying backend; this renderer exists only
	// to satisfy the contract.
	_, err := fmt.Fprintf(w, "%s (OLS): no posterior renderer\n", res.Kind)
	return err
}
