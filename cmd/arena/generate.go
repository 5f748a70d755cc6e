package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/suitegen"
)

type generateOptions struct {
	task       string
	name       string
	size       int
	seed       uint64
	difficulty string
	output     string
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic arithmetic suite",
		Long: `Generate writes a synthetic suite of arithmetic items for smoke testing
backends. It is not a substitute for a curated, licensed dataset.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			suite, err := suitegen.Generate(suitegen.Config{
				Name:       opts.name,
				Task:       domain.TaskKind(opts.task),
				Size:       opts.size,
				Seed:       opts.seed,
				Difficulty: suitegen.Difficulty(opts.difficulty),
			})
			if err != nil {
				return err
			}

			if opts.output == "" {
				return suitegen.Write(suite, cmd.OutOrStdout())
			}
			f, err := os.Create(opts.output)
			if err != nil {
				return fmt.Errorf("create suite file: %w", err)
			}
			if err := suitegen.Write(suite, f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("write suite file: %w", err)
			}
			slog.Info("Generated suite", "path", opts.output, "task", suite.Task, "items", len(suite.Items))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.task, "task", "t", string(domain.TaskCompleteMissingWord),
		"task: complete_missing_word, answer_question or complete_sentence")
	flags.StringVar(&opts.name, "name", "", "suite name")
	flags.IntVarP(&opts.size, "size", "n", 100, "number of items")
	flags.Uint64Var(&opts.seed, "seed", 1, "random seed")
	flags.StringVar(&opts.difficulty, "difficulty", string(suitegen.Easy), "operand range: easy, medium or hard")
	flags.StringVarP(&opts.output, "output", "o", "", "write the suite to this file instead of stdout")
	return cmd
}
