package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gocausal/adapters/model/bayes"
	"gocausal/adapters/model/ols"
	"gocausal/adapters/tabular"
	"gocausal/app"
	"gocausal/domain/core"
	"gocausal/domain/dataset"
	"gocausal/internal/report"
	"gocausal/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gocausal-cli",
		Short: "Run quasi-experimental causal analyses on tabular data",
	}

	rootCmd.AddCommand(
		newITSCmd(),
		newSynthCmd(),
		newNEGDCmd(),
		newPlaceboCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// experimentFlags are shared by every subcommand that fits a model.
type experimentFlags struct {
	dataPath    string
	indexColumn string
	sheet       string
	backend     string
	draws       int
	seed        int64
	roundTo     int
	htmlOut     string
}

func (f *experimentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dataPath, "data", "", "Path to a CSV or XLSX data file")
	cmd.Flags().StringVar(&f.indexColumn, "index", "", "Column to use as the observation index")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet name for XLSX files")
	cmd.Flags().StringVar(&f.backend, "backend", "bayesian", "Model backend: bayesian or ols")
	cmd.Flags().IntVar(&f.draws, "draws", 2000, "Posterior draws for the Bayesian backend")
	cmd.Flags().Int64Var(&f.seed, "seed", 42, "Random seed for the Bayesian backend")
	cmd.Flags().IntVar(&f.roundTo, "round-to", core.NoRounding, "Decimal places in printed output (-1 for none)")
	cmd.Flags().StringVar(&f.htmlOut, "html", "", "Write an HTML report to this path")
	cmd.MarkFlagRequired("data")
}

func (f *experimentFlags) loadFrame() (*dataset.Frame, error) {
	reader := tabular.NewReader(f.dataPath)
	if f.sheet != "" {
		reader = reader.WithSheet(f.sheet)
	}
	return reader.Read(f.indexColumn)
}

func (f *experimentFlags) newModel() (ports.Model, error) {
	switch f.backend {
	case "bayesian":
		return bayes.NewLinearRegression(bayes.Config{Draws: f.draws, Seed: f.seed}), nil
	case "ols":
		return ols.NewLinearRegression(), nil
	default:
		return nil, core.NewConfigurationError(fmt.Sprintf("unknown backend %q", f.backend))
	}
}

func newITSCmd() *cobra.Command {
	var flags experimentFlags
	var plot bool

	cmd := &cobra.Command{
		Use:   "its [treatment-time] [formula]",
		Short: "Run an interrupted time series analysis",
		Long: `Fit a model on pre-treatment data and measure the post-treatment impact.

Example: gocausal-cli its 2017.0 "y ~ 1 + t + C(month)" --data data.csv --index t`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrePost(cmd, &flags, args, plot, app.NewInterruptedTimeSeries)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&plot, "plot", false, "Render a text plot of the result")
	return cmd
}

func newSynthCmd() *cobra.Command {
	var flags experimentFlags
	var plot bool

	cmd := &cobra.Command{
		Use:   "synth [treatment-time] [formula]",
		Short: "Run a synthetic control analysis",
		Long: `Build a synthetic control from untreated units and measure the treated
unit's divergence after treatment.

Example: gocausal-cli synth 70 "actual ~ 0 + a + b + c" --data data.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrePost(cmd, &flags, args, plot, app.NewSyntheticControl)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&plot, "plot", false, "Render a text plot of the result")
	return cmd
}

type prePostConstructor func(*dataset.Frame, float64, string, ports.Model) (*app.PrePostFit, error)

func runPrePost(cmd *cobra.Command, flags *experimentFlags, args []string, plot bool, construct prePostConstructor) error {
	treatmentTime, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid treatment time %q: %w", args[0], err)
	}
	formula := args[1]

	frame, err := flags.loadFrame()
	if err != nil {
		return err
	}
	m, err := flags.newModel()
	if err != nil {
		return err
	}

	exp, err := construct(frame, treatmentTime, formula, m)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := exp.Summary(out, flags.roundTo); err != nil {
		return err
	}
	if plot {
		fmt.Fprintln(out)
		if err := exp.Plot(out); err != nil {
			return err
		}
	}
	if flags.htmlOut != "" {
		md, err := report.PrePostMarkdown(exp.Result())
		if err != nil {
			return err
		}
		if err := os.WriteFile(flags.htmlOut, report.ToHTML(md), 0o644); err != nil {
			return fmt.Errorf("failed to write HTML report: %w", err)
		}
	}
	return nil
}

func newNEGDCmd() *cobra.Command {
	var flags experimentFlags
	var plot bool

	cmd := &cobra.Command{
		Use:   "negd [formula] [group-variable] [pretreatment-variable]",
		Short: "Run a pretest/posttest nonequivalent group design analysis",
		Long: `Estimate the treatment effect when groups were not randomly assigned,
adjusting for a pretreatment measure. Requires the Bayesian backend.

Example: gocausal-cli negd "post ~ 1 + C(group) + pre" group pre --data data.csv`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			formula, group, pretreat := args[0], args[1], args[2]

			frame, err := flags.loadFrame()
			if err != nil {
				return err
			}
			m, err := flags.newModel()
			if err != nil {
				return err
			}

			exp, err := app.NewPrePostNEGD(frame, formula, group, pretreat, m)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := exp.Summary(out, flags.roundTo); err != nil {
				return err
			}
			if plot {
				fmt.Fprintln(out)
				if err := exp.Plot(out); err != nil {
					return err
				}
			}
			if flags.htmlOut != "" {
				md, err := report.NEGDMarkdown(exp.Result())
				if err != nil {
					return err
				}
				if err := os.WriteFile(flags.htmlOut, report.ToHTML(md), 0o644); err != nil {
					return fmt.Errorf("failed to write HTML report: %w", err)
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&plot, "plot", false, "Render a text plot of the result")
	return cmd
}

func newPlaceboCmd() *cobra.Command {
	var flags experimentFlags
	var times string

	cmd := &cobra.Command{
		Use:   "placebo [formula]",
		Short: "Sweep placebo treatment times and report the impact at each",
		Long: `Re-run a pre/post fit at several candidate treatment times. Genuine
effects should stand out against the placebo boundaries.

Example: gocausal-cli placebo "y ~ 1 + t" --data data.csv --times 60,65,70,75`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := parseTimes(times)
			if err != nil {
				return err
			}

			frame, err := flags.loadFrame()
			if err != nil {
				return err
			}
			if _, err := flags.newModel(); err != nil {
				return err
			}

			points, err := app.RunPlacebo(cmd.Context(), frame, args[0], candidates, func() ports.Model {
				m, _ := flags.newModel()
				return m
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(points)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&times, "times", "", "Comma-separated candidate treatment times")
	cmd.MarkFlagRequired("times")
	return cmd
}

func parseTimes(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	times := make([]float64, 0, len(parts))
	for _, part := range parts {
		t, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid treatment time %q: %w", part, err)
		}
		times = append(times, t)
	}
	return times, nil
}
