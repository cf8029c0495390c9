// Package report renders experiment results as markdown and HTML, and maps
// them to the flat records the result repository persists.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/montanaflynn/stats"

	"gocausal/domain/experiment"
	"gocausal/domain/model"
	"gocausal/ports"
)

// PrePostMarkdown renders a pre/post result as a markdown report.
func PrePostMarkdown(res *experiment.PrePostResult) (string, error) {
	meanImpact, lo, hi, err := impactInterval(res.PostImpact)
	if err != nil {
		return "", err
	}
	cum := res.PostImpactCumulative.Point

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", res.Kind)
	fmt.Fprintf(&b, "- **Formula:** `%s`\n", res.Formula)
	fmt.Fprintf(&b, "- **Treatment time:** %v\n", res.TreatmentTime)
	fmt.Fprintf(&b, "- **Observations:** %d pre, %d post\n", res.DataPre.Len(), res.DataPost.Len())
	fmt.Fprintf(&b, "- **Pre-period fit:** %s\n\n", res.Score)
	fmt.Fprintf(&b, "## Impact\n\n")
	if res.PostImpact.HasDraws() {
		fmt.Fprintf(&b, "Mean post-period impact: **%.3f**, 94%% HDI [%.3f, %.3f]\n\n", meanImpact, lo, hi)
	} else {
		fmt.Fprintf(&b, "Mean post-period impact: **%.3f**\n\n", meanImpact)
	}
	fmt.Fprintf(&b, "Cumulative impact over the post period: **%.3f**\n", cum[len(cum)-1])
	return b.String(), nil
}

// NEGDMarkdown renders a nonequivalent-group-design result as markdown.
func NEGDMarkdown(res *experiment.NEGDResult) (string, error) {
	mean, err := stats.Mean(res.CausalImpact)
	if err != nil {
		return "", err
	}
	lo, err := stats.Percentile(res.CausalImpact, 3)
	if err != nil {
		return "", err
	}
	hi, err := stats.Percentile(res.CausalImpact, 97)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", res.Kind)
	fmt.Fprintf(&b, "- **Formula:** `%s`\n", res.Formula)
	fmt.Fprintf(&b, "- **Group variable:** `%s`\n", res.GroupVariable)
	fmt.Fprintf(&b, "- **Pretreatment variable:** `%s`\n", res.PretreatmentVariable)
	fmt.Fprintf(&b, "- **Observations:** %d\n\n", res.Data.Len())
	fmt.Fprintf(&b, "## Causal impact\n\n")
	fmt.Fprintf(&b, "Treatment effect (`%s`): **%.3f**, 94%% HDI [%.3f, %.3f]\n",
		res.CausalImpactLabel, mean, lo, hi)
	return b.String(), nil
}

// ToHTML converts a markdown report to standalone HTML.
func ToHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.CompletePage})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// PrePostRecord flattens a pre/post result for persistence.
func PrePostRecord(res *experiment.PrePostResult) (*ports.ResultRecord, error) {
	meanImpact, lo, hi, err := impactInterval(res.PostImpact)
	if err != nil {
		return nil, err
	}
	md, err := PrePostMarkdown(res)
	if err != nil {
		return nil, err
	}
	return &ports.ResultRecord{
		ID:           res.ID,
		Kind:         string(res.Kind),
		Formula:      res.Formula,
		ScoreName:    res.Score.Name,
		ScoreValue:   res.Score.Value,
		CausalImpact: meanImpact,
		ImpactLower:  lo,
		ImpactUpper:  hi,
		Summary:      md,
		CreatedAt:    res.CreatedAt,
	}, nil
}

// NEGDRecord flattens a nonequivalent-group-design result for persistence.
func NEGDRecord(res *experiment.NEGDResult) (*ports.ResultRecord, error) {
	mean, err := stats.Mean(res.CausalImpact)
	if err != nil {
		return nil, err
	}
	lo, err := stats.Percentile(res.CausalImpact, 3)
	if err != nil {
		return nil, err
	}
	hi, err := stats.Percentile(res.CausalImpact, 97)
	if err != nil {
		return nil, err
	}
	md, err := NEGDMarkdown(res)
	if err != nil {
		return nil, err
	}
	return &ports.ResultRecord{
		ID:           res.ID,
		Kind:         string(res.Kind),
		Formula:      res.Formula,
		ScoreName:    "treatment_effect",
		ScoreValue:   mean,
		CausalImpact: mean,
		ImpactLower:  lo,
		ImpactUpper:  hi,
		Summary:      md,
		CreatedAt:    res.CreatedAt,
	}, nil
}

// impactInterval reports the mean point impact and, when draws are present,
// the 94% bounds of the per-draw mean impact.
func impactInterval(d *model.Distribution) (mean, lo, hi float64, err error) {
	mean, err = stats.Mean(d.Point)
	if err != nil {
		return 0, 0, 0, err
	}
	if !d.HasDraws() {
		return mean, mean, mean, nil
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
