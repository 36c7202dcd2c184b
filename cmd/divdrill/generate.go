package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hperssn/divdrill/internal/domain"
)

type generateOptions struct {
	seed      int64
	count     int
	format    string
	divisor   string
	dividends []string
}

// generated is a problem with its answer spelled out for printing.
type generated struct {
	Divisor   int           `json:"divisor" yaml:"divisor"`
	Dividend  int           `json:"dividend" yaml:"dividend"`
	Quotient  int           `json:"quotient" yaml:"quotient"`
	Remainder int           `json:"remainder" yaml:"remainder"`
	Borrows   int           `json:"borrows" yaml:"borrows"`
	Steps     []domain.Step `json:"steps" yaml:"steps"`
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print generated problems with worked solutions",
		Example: `  divdrill generate --count 5
  divdrill generate --seed 42 --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (0 seeds from the clock)")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 1, "number of problems")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json or yaml")
	cmd.Flags().StringVar(&opts.divisor, "divisor", domain.Range{Min: domain.DefaultRanges.DivisorMin, Max: domain.DefaultRanges.DivisorMax}.String(), "divisor range")
	cmd.Flags().StringSliceVar(&opts.dividends, "dividend", []string{"10-99", "100-999"}, "dividend ranges")

	return cmd
}

func runGenerate(w io.Writer, opts *generateOptions) error {
	if opts.count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", opts.count)
	}

	rg, err := rangesFlag(opts.divisor, opts.dividends)
	if err != nil {
		return err
	}

	rnd := newRand(opts.seed)
	problems := make([]generated, 0, opts.count)
	for i := 0; i < opts.count; i++ {
		p := domain.GenerateProblemIn(rnd, rg)
		problems = append(problems, generated{
			Divisor:   p.Divisor,
			Dividend:  p.Dividend,
			Quotient:  p.Quotient(),
			Remainder: p.Remainder(),
			Borrows:   domain.BorrowCount(p.Steps),
			Steps:     p.Steps,
		})
	}

	switch opts.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(problems)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(problems); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		for _, p := range problems {
			fmt.Fprintf(w, "%d ÷ %d = %d r %d\n", p.Dividend, p.Divisor, p.Quotient, p.Remainder)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}
}
