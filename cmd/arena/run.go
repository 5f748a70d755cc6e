package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-arena/infrastructure/backends"
	"github.com/ahrav/go-arena/infrastructure/llm"
	"github.com/ahrav/go-arena/infrastructure/scoring"
	"github.com/ahrav/go-arena/internal/application"
	"github.com/ahrav/go-arena/internal/report"
)

type runOptions struct {
	suitePath string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a benchmark suite against the configured backends",
		Example: `  arena run --config arena.yaml --suite suites/news.yaml
  ARENA_OUTPUT_FORMAT=json arena run -c arena.yaml -s suites/qa.yaml -o report.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBenchmark(cmd, root, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.suitePath, "suite", "s", "", "benchmark suite file (YAML)")
	flags.StringP("format", "f", application.DefaultOutputFormat, "report format: table or json")
	flags.StringP("output", "o", "", "write the report to this file instead of stdout")
	flags.StringSlice("metrics", nil, "metrics to compute, overriding the suite (e.g. bleu,rouge)")
	flags.Duration("task-timeout", 0, "deadline for a single backend call")
	flags.StringSlice("backend", nil, "backend as source/model, repeatable; replaces the configured backends")
	_ = cmd.MarkFlagRequired("suite")
	return cmd
}

func runBenchmark(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	ctx := cmd.Context()
	logger := slog.Default()

	cfg, scoringCfg, err := loadRunConfig(root.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	suite, err := application.LoadSuite(opts.suitePath)
	if err != nil {
		return err
	}
	logger.Info("Loaded benchmark suite", "name", suite.Name, "task", suite.Task, "items", len(suite.Items))

	tel, err := startTelemetry(root.metricsAddr, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Close(shutdownCtx); err != nil {
			logger.Warn("Failed to stop metrics server", "error", err)
		}
	}()

	registry := llm.NewRegistry(llm.RegistryConfig{
		Middleware: newMiddlewareBuilder(cfg.Providers, tel.metrics, nil).build,
	})
	factory := &backends.Factory{
		Registry:       registry,
		RequestOptions: requestOptions(cfg.Providers),
	}
	bs, err := factory.NewAll(ctx, cfg.Backends)
	if err != nil {
		return err
	}
	defer func() {
		if err := backends.Close(bs); err != nil {
			logger.Warn("Failed to close backends", "error", err)
		}
	}()

	evaluator := application.NewEvaluator(
		application.NewDispatcher(cfg.Dispatcher, logger, tel.metrics),
		application.NewAggregator(logger, scoring.All(scoringCfg)...),
		logger,
	)
	rep, err := evaluator.Run(ctx, suite, bs, cfg.Metrics, cfg.DomainWeights())
	if err != nil {
		return err
	}

	if cfg.Output.Path == "" {
		return report.Write(rep, cfg.Output.Format, cmd.OutOrStdout())
	}
	if err := report.WriteFile(rep, cfg.Output.Format, cfg.Output.Path); err != nil {
		return err
	}
	logger.Info("Wrote report", "path", cfg.Output.Path, "format", cfg.Output.Format)
	return nil
}
