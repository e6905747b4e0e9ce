package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/formulary/backend/internal/domain"
	"github.com/formulary/backend/internal/usecase"
	"github.com/spf13/cobra"
)

func newParseCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "parse <line>...",
		Short: "Split ingredient lines into name candidates and quantities",
		Example: `  formulary parse "Ren Shen (Panax ginseng) 9-12g"
  formulary parse --output yaml "Da Zao 3 pieces" "Gan Cao 6g"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make([]domain.ParsedIngredient, len(args))
			for i, line := range args {
				parsed[i] = usecase.ParseIngredient(line)
			}
			return printResult(cmd.OutOrStdout(), output, parsed)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format (json, yaml)")
	return cmd
}

func newFormatDosageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "format-dosage <dosage>",
		Short: "Validate and normalize a dosage such as \"6 - 9 grams\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatted, err := usecase.FormatDosage(args[0])
			if err != nil {
				return fmt.Errorf("%q: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatted)
			return nil
		},
	}
}

func newAggregateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "aggregate <herb=dosage>...",
		Short:   "Sum herb dosages into one summary line",
		Example: `  formulary aggregate "Ren Shen=9g" "Bai Zhu=6-9g" "Da Zao=3 pieces"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := parseHerbDosages(args)
			if err != nil {
				return err
			}

			summary, ok := usecase.Aggregate(pairs)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No quantities found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

// parseHerbDosages splits "herb=dosage" arguments on the first '='.
func parseHerbDosages(args []string) ([]domain.HerbDosage, error) {
	pairs := make([]domain.HerbDosage, 0, len(args))
	for _, arg := range args {
		herb, dosage, found := strings.Cut(arg, "=")
		herb = strings.TrimSpace(herb)
		if !found || herb == "" {
			return nil, fmt.Errorf("%w: expected herb=dosage, got %q", domain.ErrInvalidRequest, arg)
		}
		pairs = append(pairs, domain.HerbDosage{
			HerbDisplayName: herb,
			RawDosage:       strings.TrimSpace(dosage),
		})
	}
	if len(pairs) == 0 {
		return nil, errors.New("no herb dosages given")
	}
	return pairs, nil
}
