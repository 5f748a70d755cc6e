package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-arena/infrastructure/backends"
	"github.com/ahrav/go-arena/infrastructure/llm"
	"github.com/ahrav/go-arena/internal/application"
	"github.com/ahrav/go-arena/internal/domain"
)

type probeOptions struct {
	task    string
	source  string
	target  string
	options []string
}

func newProbeCmd(root *rootOptions) *cobra.Command {
	opts := &probeOptions{}
	cmd := &cobra.Command{
		Use:   "probe PROMPT",
		Short: "Send one prompt to every backend and print the outputs",
		Example: `  arena probe --backend openai/gpt-4o-mini --backend anthropic "Hello there"
  arena probe -b googletranslate -b groq --task translate --source en --target de "Good morning"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return probe(cmd, root, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringSliceP("backend", "b", nil, "backend as source/model, repeatable")
	flags.StringVarP(&opts.task, "task", "t", string(domain.TaskCall), "task kind")
	flags.StringVar(&opts.source, "source", "", "source language for translate")
	flags.StringVar(&opts.target, "target", "", "target language for translate")
	flags.StringSliceVar(&opts.options, "option", nil, "option for complete_missing_word, repeatable")
	_ = cmd.MarkFlagRequired("backend")
	return cmd
}

func probe(cmd *cobra.Command, root *rootOptions, opts *probeOptions, prompt string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	kind, err := domain.ParseTaskKind(opts.task)
	if err != nil {
		return err
	}
	specs, _, err := backendFlag(cmd.Flags())
	if err != nil {
		return err
	}

	var aux domain.AuxInputs
	switch kind {
	case domain.TaskTranslate:
		aux.LanguagePairs = []domain.LanguagePair{{Source: opts.source, Target: opts.target}}
	case domain.TaskCompleteMissingWord:
		aux.Options = [][]string{opts.options}
	}

	tel, err := startTelemetry(root.metricsAddr, logger)
	if err != nil {
		return err
	}
	defer func() { _ = tel.Close(context.Background()) }()

	factory := &backends.Factory{Registry: llm.NewRegistry(llm.RegistryConfig{
		Middleware: newMiddlewareBuilder(application.ProvidersConfig{}, tel.metrics, nil).build,
	})}
	bs, err := factory.NewAll(ctx, specs)
	if err != nil {
		return err
	}
	defer func() {
		if err := backends.Close(bs); err != nil {
			logger.Warn("Failed to close backends", "error", err)
		}
	}()

	outputs, err := application.NewDispatcher(application.DispatcherConfig{}, logger, tel.metrics).
		DispatchOne(ctx, prompt, bs, kind, aux)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tOUTPUT")
	for i, b := range bs {
		fmt.Fprintf(w, "%s\t%s\n", b.Name(), strings.ReplaceAll(strings.TrimSpace(outputs[i]), "\n", " "))
	}
	return w.Flush()
}
