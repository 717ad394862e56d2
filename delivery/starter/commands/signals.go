package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reuseit/delivery/types"
	"reuseit/internal/logging"
	"reuseit/internal/pickup"
	"reuseit/internal/stores"
)

// select <session> <option>
func (a *app) selectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <session> <option>",
		Short: "Choose a delivery option (private_hand, home_delivery, locker, safe_zone)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			option, err := types.ParseDeliveryOption(args[1])
			if err != nil {
				return err
			}
			return a.signal(cmd, args[0], types.SignalSelectOption, option)
		},
	}
}

// set <session> <field> <value>
func (a *app) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <session> <field> <value>",
		Short: "Fill a form field (street, house_number, unit, postal_code, price)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			field := types.Field(args[1])
			if field == types.FieldLocation {
				return errors.New("the location is chosen with the picker, use pick")
			}
			return a.signal(cmd, args[0], types.SignalSetField, types.FieldUpdate{Field: field, Value: args[2]})
		},
	}
}

// picker <session>: open the location picker.
func (a *app) pickerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "picker <session>",
		Short: "Open the location picker for the selected option",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.signal(cmd, args[0], types.SignalOpenPicker, types.PickerRequest{})
		},
	}
}

// pick <session>: answer an open location picker.
func (a *app) pickCmd() *cobra.Command {
	var (
		pointID     string
		description string
		cancelled   bool
	)
	cmd := &cobra.Command{
		Use:   "pick <session>",
		Short: "Return a location from the picker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := types.LocationResult{Description: description, Cancelled: cancelled}
			if pointID != "" {
				p, err := a.pickupPoint(cmd, pointID)
				if err != nil {
					return err
				}
				res.Description = p.Description()
			}
			if !res.Cancelled && strings.TrimSpace(res.Description) == "" {
				return errors.New("one of --point, --description or --cancel is required")
			}
			return a.signal(cmd, args[0], types.SignalLocationPicked, res)
		},
	}
	cmd.Flags().StringVar(&pointID, "point", "", "ID of a pickup point in the directory")
	cmd.Flags().StringVar(&description, "description", "", "free-text location description")
	cmd.Flags().BoolVar(&cancelled, "cancel", false, "dismiss the picker without a choice")
	return cmd
}

// confirm <session>
func (a *app) confirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <session>",
		Short: "Confirm the delivery choice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			valid, err := a.sessions.Valid(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !valid {
				st, err := a.sessions.State(cmd.Context(), id)
				if err != nil {
					return err
				}
				return fmt.Errorf("session %s is not ready to confirm: %s", id, describeMissing(st))
			}
			return a.signal(cmd, id, types.SignalConfirm, types.ConfirmRequest{})
		},
	}
}

func (a *app) signal(cmd *cobra.Command, id, name string, arg interface{}) error {
	if err := a.sessions.Signal(cmd.Context(), id, name, arg); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "sent", name)
	return nil
}

// pickupPoint looks id up in the pickup directory the gateway serves from
func (a *app) pickupPoint(cmd *cobra.Command, id string) (pickup.Point, error) {
	st, err := stores.Open(cmd.Context(), a.cfg, logging.Nop())
	if err != nil {
		return pickup.Point{}, err
	}
	defer st.Close()

	p, err := st.Pickup.Get(cmd.Context(), id)
	if err != nil {
		return pickup.Point{}, fmt.Errorf("pickup point %s: %w", id, err)
	}
	return p, nil
}

func describeMissing(st types.WorkflowState) string {
	if !st.HasOption() {
		return "no delivery option selected"
	}
	if st.Phase != types.PhaseSelecting {
		return "phase is " + string(st.Phase)
	}
	if len(st.Missing) == 0 {
		return "option not available for this flow"
	}
	names := make([]string, len(st.Missing))
	for i, f := range st.Missing {
		names[i] = string(f)
	}
	return "missing " + strings.Join(names, ", ")
}
