package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-arena/internal/application"
	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/report"
)

// scoreFile holds pre-computed evaluations for the rank command.
type scoreFile struct {
	Backends    []string             `yaml:"backends"`
	Evaluations map[string][]float64 `yaml:"evaluations"`
	Weights     map[string]float64   `yaml:"weights"`
}

type rankOptions struct {
	path    string
	weights []string
	format  string
}

func newRankCmd() *cobra.Command {
	opts := &rankOptions{}
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank backends from pre-computed metric scores",
		Long: `Rank reads a YAML file of per-metric scores, one score per backend:

  backends: ["openai,gpt-4o", "anthropic,claude"]
  evaluations:
    bleu: [0.31, 0.42]
    rougel: [0.50, 0.47]
  weights:
    bleu: 1
    rougel: 2

Each metric ranks the backends (higher score is better, ties share the
first rank), the ranks are summed with the weights, and the sums are
densely ranked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := rankScores(opts)
			if err != nil {
				return err
			}
			return report.Write(rep, opts.format, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.path, "evaluations", "e", "", "YAML file with backends, evaluations and weights")
	flags.StringSliceVarP(&opts.weights, "weight", "w", nil, "metric weight as metric=value, overriding the file")
	flags.StringVarP(&opts.format, "format", "f", report.FormatTable, "report format: table or json")
	_ = cmd.MarkFlagRequired("evaluations")
	return cmd
}

func rankScores(opts *rankOptions) (*domain.Report, error) {
	data, err := os.ReadFile(opts.path)
	if err != nil {
		return nil, fmt.Errorf("read evaluations: %w", err)
	}
	var sf scoreFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, domain.NewConfigurationError(opts.path, "parse: %v", err)
	}

	evals := make(domain.Evaluations, len(sf.Evaluations))
	for k, v := range sf.Evaluations {
		evals[domain.NormalizeMetric(k)] = v
	}
	if err := evals.Validate(); err != nil {
		return nil, err
	}

	weights := domain.Weights(sf.Weights).Normalized()
	for _, w := range opts.weights {
		metric, value, err := parseWeight(w)
		if err != nil {
			return nil, err
		}
		weights[metric] = value
	}

	n := evals.NumBackends()
	names := sf.Backends
	if len(names) == 0 {
		names = make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("backend-%d", i+1)
		}
	}
	if len(names) != n {
		return nil, domain.NewConfigurationError("backends", "%d names for %d scores per metric", len(names), n)
	}

	sums, err := application.WeightedRankSums(evals, weights)
	if err != nil {
		return nil, err
	}
	return &domain.Report{
		Backends:    names,
		Evaluations: evals,
		Weights:     weights,
		RankSums:    sums,
		Ranks:       domain.RankTable(application.DenseRank(sums)),
	}, nil
}

func parseWeight(s string) (string, float64, error) {
	metric, raw, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(metric) == "" {
		return "", 0, domain.NewConfigurationError("weight", "expected metric=value, got %q", s)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || value < 0 {
		return "", 0, domain.NewConfigurationError("weight", "invalid weight %q for %s", raw, metric)
	}
	return domain.NormalizeMetric(metric), value, nil
}
