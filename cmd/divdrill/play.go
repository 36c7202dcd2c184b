package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hperssn/divdrill/internal/domain"
)

type playOptions struct {
	seed   int64
	count  int
	solved int
}

type playSummary struct {
	solved   int
	skipped  int
	mistakes int
}

func newPlayCmd() *cobra.Command {
	opts := &playOptions{}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Work problems digit by digit on the terminal",
		Long: `play shows one problem at a time and asks for the next quotient digit.
Type a digit and press enter. "s" skips the problem, "q" quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (0 seeds from the clock)")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 0, "number of problems (0 plays until quit)")
	cmd.Flags().IntVar(&opts.solved, "solved", 0, "problems already solved, for picture progress")

	return cmd
}

func runPlay(in io.Reader, out io.Writer, opts *playOptions) error {
	if opts.count < 0 || opts.solved < 0 {
		return fmt.Errorf("count and solved must not be negative")
	}

	rnd := newRand(opts.seed)
	lines := bufio.NewScanner(in)
	progress := domain.Progress{TotalSolved: opts.solved}
	var sum playSummary

	defer func() {
		fmt.Fprintf(out, "\nsolved %d, skipped %d, mistakes %d\n", sum.solved, sum.skipped, sum.mistakes)
	}()

	for n := 0; opts.count == 0 || n < opts.count; n++ {
		s := domain.NewSession("", "", domain.GenerateProblem(rnd))
		fmt.Fprintf(out, "\n%s\n", header(s.Problem))

	problem:
		for !s.IsComplete() {
			step, _ := s.CurrentStep()
			fmt.Fprintf(out, "%d ÷ %d = ? ", step.CurrentValue, s.Problem.Divisor)

			if !lines.Scan() {
				sum.mistakes += s.Mistakes
				return lines.Err()
			}

			switch input := strings.TrimSpace(lines.Text()); input {
			case "q":
				sum.mistakes += s.Mistakes
				return nil
			case "s":
				sum.skipped++
				fmt.Fprintf(out, "skipped: %d ÷ %d = %d r %d\n",
					s.Problem.Dividend, s.Problem.Divisor, s.Problem.Quotient(), s.Problem.Remainder())
				break problem
			default:
				if _, ok := domain.ParseDigit(input); !ok {
					fmt.Fprintln(out, "enter a single digit")
					continue
				}

				res, err := s.SubmitInput(input)
				if err != nil {
					return err
				}
				if !res.Correct {
					fmt.Fprintln(out, "not quite, try again")
					continue
				}
				fmt.Fprintln(out, workLine(step, s.Problem.Divisor))
			}
		}

		sum.mistakes += s.Mistakes
		if !s.IsComplete() {
			continue
		}

		sum.solved++
		fmt.Fprintf(out, "solved! %d ÷ %d = %d r %d\n",
			s.Problem.Dividend, s.Problem.Divisor, s.Problem.Quotient(), s.Problem.Remainder())

		if progress.Record() {
			fmt.Fprintf(out, "picture %d unlocked!\n", progress.Album()-1)
		} else {
			fmt.Fprintf(out, "%d more for the next piece of picture %d\n", progress.ToNextPiece(), progress.Album())
		}
	}

	return nil
}

func header(p domain.Problem) string {
	return fmt.Sprintf("%d ) %d", p.Divisor, p.Dividend)
}

// workLine shows the subtraction a correct digit produces and the digit
// brought down next to it.
func workLine(s domain.Step, divisor int) string {
	line := fmt.Sprintf("  %d - %d×%d = %d", s.CurrentValue, s.QuotientDigit, divisor, s.Remainder)
	if s.HasBroughtDown() {
		line += fmt.Sprintf(", bring down %d", *s.BroughtDown)
	}
	return line
}
