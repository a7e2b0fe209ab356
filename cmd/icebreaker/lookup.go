package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/manthysbr/icebreaker/internal/core/domain"
	"github.com/spf13/cobra"
)

func newLookupCmd(flags *rootFlags) *cobra.Command {
	var (
		name      string
		showSteps bool
	)

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Resolve a name to a LinkedIn profile URL without fetching the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()

			profileURL, steps, err := app.Pipeline.Lookup(ctx, name)
			out := cmd.OutOrStdout()
			if showSteps {
				for i, step := range steps {
					printStep(out, i+1, step)
				}
			}
			if err != nil {
				return fmt.Errorf("%s: %w", kindOf(err), err)
			}
			if profileURL == "" {
				return fmt.Errorf("%s: no profile found for %q", kindOf(domain.ErrProfileNotFound), name)
			}
			fmt.Fprintln(out, profileURL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Full name of the person to look up")
	cmd.Flags().BoolVar(&showSteps, "steps", false, "Print the reasoning steps before the result")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func printStep(w io.Writer, n int, step domain.ActionStep) {
	fmt.Fprintf(w, "step %d\n", n)
	if step.Thought != "" {
		fmt.Fprintf(w, "  thought: %s\n", step.Thought)
	}
	if step.IsFinal {
		fmt.Fprintf(w, "  final answer: %s\n", step.FinalAnswer)
		return
	}
	if step.Action != nil {
		fmt.Fprintf(w, "  action: %s(%q)\n", step.Action.ToolName, step.Action.ToolInput)
	}
	if step.Observation != "" {
		fmt.Fprintf(w, "  observation: %s\n", step.Observation)
	}
}

func kindOf(err error) string {
	return domain.ErrorKind(err)
}
