package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/randomtoy/arcana/internal/domain"
)

func newDrawCmd() *cobra.Command {
	var (
		catalogPath string
		seed        uint64
	)

	cmd := &cobra.Command{
		Use:   "draw [question]",
		Short: "Draw a spread without asking the model",
		Long: `Draw prints a fresh past/present/future spread. When a question is given
it also prints the prompt fragment that a reading would send upstream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}

			var rng domain.RNG = domain.SystemRNG{}
			if seed != 0 {
				rng = domain.NewSeededRNG(seed)
			}
			hand, err := domain.DrawHand(store.Deck().Cards, rng)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printHand(out, hand)

			if question := strings.TrimSpace(strings.Join(args, " ")); question != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, color.YellowString("Prompt:"))
				fmt.Fprintln(out, domain.BuildPromptFragment(question, hand))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", os.Getenv("CATALOG_PATH"), "catalog TOML file (default: built-in deck)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for a reproducible draw (0 uses the system source)")
	return cmd
}
