package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"reuseit/delivery/flows"
	"reuseit/delivery/types"
)

// start: open a new delivery session.
func (a *app) startCmd() *cobra.Command {
	var (
		input types.WorkflowInput
		flow  string
		wait  bool
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a delivery selection session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Flow = types.Flow(flow)
			if _, err := flows.For(input.Flow); err != nil {
				return err
			}
			id, err := a.sessions.Start(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			if !wait {
				return nil
			}
			res, err := a.sessions.Result(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&flow, "flow", "", "purchase, sale, disposal or repair-pickup")
	cmd.Flags().StringVar(&input.SessionID, "id", "", "session ID (generated when empty)")
	cmd.Flags().StringVar(&input.UserID, "user", "", "user the session belongs to")
	cmd.Flags().StringVar(&input.ItemTitle, "item", "", "title of the item changing hands")
	cmd.Flags().StringVar(&input.Price, "price", "", "price entered on the screen")
	cmd.Flags().BoolVar(&wait, "wait", false, "block until the session finishes and print its result")
	_ = cmd.MarkFlagRequired("flow")
	return cmd
}

// wait <session>: block until the session finishes.
func (a *app) waitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wait <session>",
		Short: "Wait for a session to finish and print its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.sessions.Result(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

// state <session>: print the current session state.
func (a *app) stateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state <session>",
		Short: "Print the session state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.sessions.State(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
}

// cancel <session>: leave the screen without confirming.
func (a *app) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <session>",
		Short: "Tear a session down",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sessions.Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
			return nil
		},
	}
}
