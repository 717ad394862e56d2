package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"reuseit/delivery/flows"
	"reuseit/delivery/types"
)

var demoValues = map[types.Field]string{
	types.FieldStreet:      "Via Po 12",
	types.FieldHouseNumber: "12",
	types.FieldUnit:        "3B",
	types.FieldPostalCode:  "10124",
	types.FieldPrice:       "25",
}

// demo: run a whole session end to end, filling whatever the option needs.
func (a *app) demoCmd() *cobra.Command {
	var flow, option, user, item string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a complete session with sample answers and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := flows.For(types.Flow(flow))
			if err != nil {
				return err
			}
			opt := cfg.DefaultOption
			if option != "" {
				if opt, err = types.ParseDeliveryOption(option); err != nil {
					return err
				}
			}
			if opt == "" {
				opt = cfg.Options[0]
			}
			if !cfg.Offers(opt) {
				return fmt.Errorf("flow %s does not offer %s", cfg.Flow, opt)
			}

			input := types.WorkflowInput{Flow: cfg.Flow, UserID: user, ItemTitle: item}
			if cfg.RequirePrice {
				input.Price = demoValues[types.FieldPrice]
			}
			id, err := a.sessions.Start(ctx, input)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "started", id)

			if err := a.sessions.Signal(ctx, id, types.SignalSelectOption, opt); err != nil {
				return err
			}
			for _, f := range cfg.Required[opt] {
				if err := a.fillDemoField(ctx, id, opt, f); err != nil {
					return err
				}
			}
			if err := a.sessions.Signal(ctx, id, types.SignalConfirm, types.ConfirmRequest{}); err != nil {
				return err
			}
			fmt.Fprintln(out, "confirmed, waiting for the session to finish")

			res, err := a.sessions.Result(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(out, res)
		},
	}
	cmd.Flags().StringVar(&flow, "flow", string(types.FlowSale), "flow to run")
	cmd.Flags().StringVar(&option, "option", "", "delivery option (the flow default when empty)")
	cmd.Flags().StringVar(&user, "user", "demo-user", "user the session belongs to")
	cmd.Flags().StringVar(&item, "item", "iPhone 13 Pro", "item title")
	return cmd
}

func (a *app) fillDemoField(ctx context.Context, id string, opt types.DeliveryOption, f types.Field) error {
	if f != types.FieldLocation {
		return a.sessions.Signal(ctx, id, types.SignalSetField, types.FieldUpdate{Field: f, Value: demoValues[f]})
	}
	if err := a.sessions.Signal(ctx, id, types.SignalOpenPicker, types.PickerRequest{}); err != nil {
		return err
	}
	desc := "Via Roma 4 — Demo " + string(opt)
	for _, p := range a.cfg.Seed.PickupPoints {
		if string(p.Kind) == string(opt) {
			desc = p.Description()
			break
		}
	}
	return a.sessions.Signal(ctx, id, types.SignalLocationPicked, types.LocationResult{Description: desc})
}

