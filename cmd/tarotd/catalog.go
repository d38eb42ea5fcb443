package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/randomtoy/arcana/internal/adapters/decks"
	"github.com/randomtoy/arcana/internal/domain"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect card catalogs",
	}
	cmd.AddCommand(newCatalogValidateCmd())
	return cmd
}

func newCatalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a catalog file (default: the built-in deck)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, raw := "built-in", decks.EmbeddedCatalog()
			if len(args) == 1 {
				name = args[0]
				var err error
				if raw, err = os.ReadFile(name); err != nil {
					return fmt.Errorf("read catalog: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			deck, err := decks.Build(raw)
			if err != nil {
				fmt.Fprintf(out, "%s %s: %v\n", color.RedString("FAIL"), name, err)
				return err
			}

			errs := decks.Validate(deck)
			if len(errs) > 0 {
				fmt.Fprintf(out, "%s %s has %d problems:\n", color.RedString("FAIL"), name, len(errs))
				for i, e := range errs {
					fmt.Fprintf(out, "%d. %s\n", i+1, e)
				}
				return fmt.Errorf("catalog %s is invalid", name)
			}

			counts := make(map[domain.Suit]int)
			for _, c := range deck.Cards {
				counts[c.Suit]++
			}
			fmt.Fprintf(out, "%s %s: deck %q, %d cards\n", color.GreenString("OK"), name, deck.ID, len(deck.Cards))
			for _, s := range []domain.Suit{domain.SuitMajor, domain.SuitWands, domain.SuitCups, domain.SuitSwords, domain.SuitPentacles} {
				fmt.Fprintf(out, "  %-10s %d\n", s, counts[s])
			}
			return nil
		},
	}
}
