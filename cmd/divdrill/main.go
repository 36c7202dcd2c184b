package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hperssn/divdrill/internal/domain"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "divdrill",
		Short: "Long-division practice problems",
		Long: `divdrill generates long-division problems for one-digit divisors that
leave a remainder and need at least one borrow, and lets you work them
digit by digit in the terminal.`,
		SilenceUsage: true,
	}

	root.AddCommand(newGenerateCmd(), newPlayCmd())
	return root
}

// newRand seeds from the clock when seed is zero.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func rangesFlag(divisor string, dividends []string) (domain.Ranges, error) {
	d, err := domain.ParseRange(divisor)
	if err != nil {
		return domain.Ranges{}, err
	}

	rg := domain.Ranges{DivisorMin: d.Min, DivisorMax: d.Max}
	for _, s := range dividends {
		r, err := domain.ParseRange(s)
		if err != nil {
			return domain.Ranges{}, err
		}
		rg.DividendRanges = append(rg.DividendRanges, r)
	}

	if err := rg.Validate(); err != nil {
		return domain.Ranges{}, err
	}
	return rg, nil
}
