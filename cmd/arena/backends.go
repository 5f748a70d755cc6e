package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-arena/infrastructure/backends"
	"github.com/ahrav/go-arena/infrastructure/llm"
	"github.com/ahrav/go-arena/internal/domain"
)

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List supported backend sources and their credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeBackends(cmd, llm.NewRegistry(llm.RegistryConfig{}))
		},
	}
}

func writeBackends(cmd *cobra.Command, registry *llm.Registry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tDEFAULT MODEL\tCREDENTIALS\tCONFIGURED")
	fmt.Fprintln(w, "------\t-------------\t-----------\t----------")

	for _, source := range domain.BackendSources {
		if source == domain.SourceGoogleTranslate {
			configured := "adc"
			if os.Getenv(backends.TranslateAPIKeyEnv) != "" {
				configured = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", source, "nmt", backends.TranslateAPIKeyEnv, configured)
			continue
		}

		pc, ok := registry.ProviderConfig(source)
		if !ok {
			fmt.Fprintf(w, "%s\t-\t-\tno\n", source)
			continue
		}
		configured := "no"
		if _, err := registry.Credential(source); err == nil {
			configured = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", source, pc.DefaultModel, strings.Join(pc.EnvVars, ","), configured)
	}

	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), "Usage: arena run --config arena.yaml --suite suite.yaml")
	return nil
}
