// Package flows holds the per-screen configuration of the delivery workflow:
// which options a screen offers, which fields each option requires and the
// confirmation copy it shows.
package flows

import (
	"fmt"
	"strings"

	"reuseit/delivery/types"
)

// Config parameterizes one delivery workflow variant
type Config struct {
	Flow          types.Flow
	Options       []types.DeliveryOption
	DefaultOption types.DeliveryOption
	RequirePrice  bool
	Required      map[types.DeliveryOption][]types.Field
	Copy          map[types.DeliveryOption]types.Confirmation
	FallbackCopy  types.Confirmation
	// StaticCode is the fixed code the screen used before codes were issued
	StaticCode string
}

var addressFields = []types.Field{types.FieldStreet, types.FieldPostalCode, types.FieldUnit}

var locationOnly = []types.Field{types.FieldLocation}

var builtin = map[types.Flow]Config{
	types.FlowPurchase: {
		Flow:         types.FlowPurchase,
		Options:      types.AllOptions,
		RequirePrice: true,
		Required: map[types.DeliveryOption][]types.Field{
			types.PrivateHand: addressFields,
			types.Locker:      locationOnly,
			types.SafeZone:    locationOnly,
		},
		Copy: map[types.DeliveryOption]types.Confirmation{
			types.Locker: {
				Title:     "Purchase completed!",
				Message:   "Use this QR at the locker to collect your item. You can find it again in the QR Code section of the menu.",
				CodeLabel: "PICKUP CODE",
			},
			types.SafeZone:     {Title: "Order placed!", Message: "Meet the seller at the chosen Safe Zone."},
			types.HomeDelivery: {Title: "Order placed!", Message: "The item will be shipped to your home."},
		},
		FallbackCopy: types.Confirmation{Title: "Order placed!", Message: "The item will be shipped to your home."},
		StaticCode:   "ABC-789",
	},
	types.FlowSale: {
		Flow:         types.FlowSale,
		Options:      types.AllOptions,
		RequirePrice: true,
		Required: map[types.DeliveryOption][]types.Field{
			types.Locker:   locationOnly,
			types.SafeZone: locationOnly,
		},
		Copy: map[types.DeliveryOption]types.Confirmation{
			types.Locker: {
				Title:     "Listing published!",
				Message:   "Use this QR at the chosen locker to drop off the item.",
				CodeLabel: "UNLOCK CODE",
			},
			types.SafeZone: {Title: "Listing published!", Message: "Go to the chosen Safe Zone."},
		},
		FallbackCopy: types.Confirmation{Title: "Listing published!", Message: "Get the item ready for shipping."},
		StaticCode:   "554-129",
	},
	types.FlowDisposal: {
		Flow:    types.FlowDisposal,
		Options: types.AllOptions,
		Required: map[types.DeliveryOption][]types.Field{
			types.Locker:   locationOnly,
			types.SafeZone: locationOnly,
		},
		Copy: map[types.DeliveryOption]types.Confirmation{
			types.Locker: {
				Title:     "Locker booked!",
				Message:   "Go to the chosen locker and scan the code to open the cell.",
				CodeLabel: "DEPOSIT CODE",
			},
		},
		FallbackCopy: types.Confirmation{Title: "Request confirmed!", Message: "Follow the instructions for the chosen method."},
		StaticCode:   "RCS-123",
	},
	types.FlowRepairPickup: {
		Flow:          types.FlowRepairPickup,
		Options:       []types.DeliveryOption{types.PrivateHand, types.HomeDelivery, types.Locker},
		DefaultOption: types.PrivateHand,
		Required: map[types.DeliveryOption][]types.Field{
			types.HomeDelivery: {types.FieldStreet, types.FieldHouseNumber, types.FieldPostalCode},
			types.Locker:       locationOnly,
		},
		Copy: map[types.DeliveryOption]types.Confirmation{
			types.Locker: {
				Title:     "Repair booked!",
				Message:   "Drop the item off at the chosen locker using this QR. You can find it again in the QR Code section of the menu.",
				CodeLabel: "DROP-OFF CODE",
			},
			types.PrivateHand:  {Title: "Request sent!", Message: "The technician will contact you to agree on a hand-off time."},
			types.HomeDelivery: {Title: "Request sent!", Message: "The courier will come to your home within 24h."},
		},
		FallbackCopy: types.Confirmation{Title: "Request sent!"},
		StaticCode:   "REP-552",
	},
}

// For returns the built-in configuration for a flow
func For(flow types.Flow) (Config, error) {
	cfg, ok := builtin[flow]
	if !ok {
		return Config{}, &types.ValidationError{Msg: fmt.Sprintf("unknown flow %q", flow)}
	}
	return cfg, nil
}

// All returns every built-in flow configuration
func All() []Config {
	out := make([]Config, 0, len(builtin))
	for _, f := range []types.Flow{types.FlowPurchase, types.FlowSale, types.FlowDisposal, types.FlowRepairPickup} {
		out = append(out, builtin[f])
	}
	return out
}

// Offers reports whether the flow lets the user pick the option
func (c Config) Offers(option types.DeliveryOption) bool {
	for _, o := range c.Options {
		if o == option {
			return true
		}
	}
	return false
}

// NewState builds the initial state of a workflow instance
func (c Config) NewState(input types.WorkflowInput) types.WorkflowState {
	return types.WorkflowState{
		SessionID:      input.SessionID,
		Flow:           c.Flow,
		UserID:         input.UserID,
		ItemTitle:      input.ItemTitle,
		Price:          input.Price,
		SelectedOption: c.DefaultOption,
		Phase:          types.PhaseSelecting,
	}
}

// Select applies a delivery option choice. Picking a different option
// clears the data that belonged to the previous one so it can never satisfy
// a later validity check.
func (c Config) Select(state types.WorkflowState, option types.DeliveryOption) (types.WorkflowState, error) {
	if !c.Offers(option) {
		return state, &types.ValidationError{Msg: fmt.Sprintf("flow %s does not offer %q", c.Flow, option)}
	}
	if state.SelectedOption != option {
		state.LocationDescription = ""
		state.Address = types.Address{}
	}
	state.SelectedOption = option
	return state, nil
}

// SetField updates one editable field. The location can only be written by
// the location picker.
func (c Config) SetField(state types.WorkflowState, update types.FieldUpdate) (types.WorkflowState, error) {
	switch update.Field {
	case types.FieldStreet:
		state.Address.Street = update.Value
	case types.FieldHouseNumber:
		state.Address.HouseNumber = update.Value
	case types.FieldUnit:
		state.Address.Unit = update.Value
	case types.FieldPostalCode:
		state.Address.PostalCode = update.Value
	case types.FieldPrice:
		state.Price = update.Value
	case types.FieldLocation:
		return state, &types.ValidationError{Msg: "location is set through the picker"}
	default:
		return state, &types.ValidationError{Msg: fmt.Sprintf("unknown field %q", update.Field)}
	}
	return state, nil
}

// Describe returns the confirmation copy for an option
func (c Config) Describe(option types.DeliveryOption) types.Confirmation {
	if cp, ok := c.Copy[option]; ok {
		return cp
	}
	return c.FallbackCopy
}

// TerminalRoute picks where a completed workflow navigates. A locker
// transaction always leaves a retrievable QR record, nothing else does.
func TerminalRoute(option types.DeliveryOption) types.Route {
	if option == types.Locker {
		return types.RouteQRArchive
	}
	return types.RouteMainMenu
}

func fieldValue(state types.WorkflowState, f types.Field) string {
	switch f {
	case types.FieldStreet:
		return state.Address.Street
	case types.FieldHouseNumber:
		return state.Address.HouseNumber
	case types.FieldUnit:
		return state.Address.Unit
	case types.FieldPostalCode:
		return state.Address.PostalCode
	case types.FieldLocation:
		return state.LocationDescription
	case types.FieldPrice:
		return state.Price
	}
	return ""
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
