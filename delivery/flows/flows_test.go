package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reuseit/delivery/types"
)

func mustFlow(t *testing.T, flow types.Flow) Config {
	t.Helper()
	cfg, err := For(flow)
	require.NoError(t, err)
	return cfg
}

func TestForUnknownFlow(t *testing.T) {
	_, err := For("barter")
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestIsValidWithoutOption(t *testing.T) {
	for _, cfg := range All() {
		state := types.WorkflowState{
			Price:               "10",
			LocationDescription: "Via Roma 4 — Locker B12",
			Address:             types.Address{Street: "Via Po", HouseNumber: "1", Unit: "A", PostalCode: "10100"},
		}
		assert.False(t, cfg.IsValid(state), "flow %s", cfg.Flow)
	}
}

func TestIsValidIgnoresLocationForNonPickupOptions(t *testing.T) {
	for _, cfg := range All() {
		for _, opt := range cfg.Options {
			if opt.NeedsLocation() {
				continue
			}
			base := types.WorkflowState{
				SelectedOption: opt,
				Price:          "30",
				Address:        types.Address{Street: "Via Po", HouseNumber: "1", Unit: "A", PostalCode: "10100"},
			}
			with := base
			with.LocationDescription = "Piazza Castello — Safe Zone 3"
			assert.Equal(t, cfg.IsValid(base), cfg.IsValid(with), "flow %s option %s", cfg.Flow, opt)
		}
	}
}

func TestIsValidPerFlow(t *testing.T) {
	full := types.Address{Street: "Via Po", HouseNumber: "12", Unit: "Scala B", PostalCode: "10124"}

	tests := []struct {
		name  string
		flow  types.Flow
		state types.WorkflowState
		want  bool
	}{
		{"purchase home delivery empty address", types.FlowPurchase, types.WorkflowState{SelectedOption: types.HomeDelivery, Price: "850"}, true},
		{"purchase private hand needs address", types.FlowPurchase, types.WorkflowState{SelectedOption: types.PrivateHand, Price: "850"}, false},
		{"purchase private hand with address", types.FlowPurchase, types.WorkflowState{SelectedOption: types.PrivateHand, Price: "850", Address: full}, true},
		{"purchase locker without location", types.FlowPurchase, types.WorkflowState{SelectedOption: types.Locker, Price: "850"}, false},
		{"purchase locker with location", types.FlowPurchase, types.WorkflowState{SelectedOption: types.Locker, Price: "850", LocationDescription: "Via Roma 4 — Locker B12"}, true},
		{"purchase missing price", types.FlowPurchase, types.WorkflowState{SelectedOption: types.HomeDelivery}, false},
		{"sale blank price", types.FlowSale, types.WorkflowState{SelectedOption: types.PrivateHand, Price: "  "}, false},
		{"sale private hand with price", types.FlowSale, types.WorkflowState{SelectedOption: types.PrivateHand, Price: "30"}, true},
		{"sale safe zone without location", types.FlowSale, types.WorkflowState{SelectedOption: types.SafeZone, Price: "30"}, false},
		{"disposal private hand", types.FlowDisposal, types.WorkflowState{SelectedOption: types.PrivateHand}, true},
		{"disposal safe zone with location", types.FlowDisposal, types.WorkflowState{SelectedOption: types.SafeZone, LocationDescription: "Piazza Castello — Safe Zone 3"}, true},
		{"repair home pickup needs address", types.FlowRepairPickup, types.WorkflowState{SelectedOption: types.HomeDelivery}, false},
		{"repair home pickup without unit", types.FlowRepairPickup, types.WorkflowState{SelectedOption: types.HomeDelivery, Address: types.Address{Street: "Via Po", HouseNumber: "12", PostalCode: "10124"}}, true},
		{"repair safe zone not offered", types.FlowRepairPickup, types.WorkflowState{SelectedOption: types.SafeZone, LocationDescription: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustFlow(t, tt.flow)
			assert.Equal(t, tt.want, cfg.IsValid(tt.state))
		})
	}
}

func TestHomeDeliveryWithEmptyAddressStaysDisabled(t *testing.T) {
	cfg := mustFlow(t, types.FlowRepairPickup)
	state, err := cfg.Select(cfg.NewState(types.WorkflowInput{}), types.HomeDelivery)
	require.NoError(t, err)

	assert.False(t, cfg.IsValid(state))
	assert.Equal(t,
		[]types.Field{types.FieldStreet, types.FieldHouseNumber, types.FieldPostalCode},
		cfg.Missing(state))
}

func TestSelectResetsLocationOnChange(t *testing.T) {
	cfg := mustFlow(t, types.FlowPurchase)
	for _, from := range cfg.Options {
		for _, to := range cfg.Options {
			if from == to {
				continue
			}
			state := types.WorkflowState{
				SelectedOption:      from,
				LocationDescription: "Via Roma 4 — Locker B12",
				Address:             types.Address{Street: "Via Po"},
			}
			next, err := cfg.Select(state, to)
			require.NoError(t, err)
			assert.Empty(t, next.LocationDescription, "%s -> %s", from, to)
			assert.Equal(t, types.Address{}, next.Address, "%s -> %s", from, to)
			assert.Equal(t, to, next.SelectedOption)
		}
	}
}

func TestSelectSameOptionKeepsData(t *testing.T) {
	cfg := mustFlow(t, types.FlowDisposal)
	state := types.WorkflowState{SelectedOption: types.Locker, LocationDescription: "Via Roma 4 — Locker B12"}

	next, err := cfg.Select(state, types.Locker)
	require.NoError(t, err)
	assert.Equal(t, "Via Roma 4 — Locker B12", next.LocationDescription)
}

func TestSelectRejectsOptionNotOffered(t *testing.T) {
	cfg := mustFlow(t, types.FlowRepairPickup)
	state := cfg.NewState(types.WorkflowInput{})

	next, err := cfg.Select(state, types.SafeZone)
	require.Error(t, err)
	assert.Equal(t, types.PrivateHand, next.SelectedOption)
}

func TestSetField(t *testing.T) {
	cfg := mustFlow(t, types.FlowPurchase)
	state := types.WorkflowState{}

	state, err := cfg.SetField(state, types.FieldUpdate{Field: types.FieldStreet, Value: "Via Po"})
	require.NoError(t, err)
	state, err = cfg.SetField(state, types.FieldUpdate{Field: types.FieldPrice, Value: "850"})
	require.NoError(t, err)
	assert.Equal(t, "Via Po", state.Address.Street)
	assert.Equal(t, "850", state.Price)

	_, err = cfg.SetField(state, types.FieldUpdate{Field: types.FieldLocation, Value: "anywhere"})
	assert.Error(t, err)
	_, err = cfg.SetField(state, types.FieldUpdate{Field: "colour", Value: "red"})
	assert.Error(t, err)
}

func TestTerminalRoute(t *testing.T) {
	for _, opt := range types.AllOptions {
		want := types.RouteMainMenu
		if opt == types.Locker {
			want = types.RouteQRArchive
		}
		assert.Equal(t, want, TerminalRoute(opt), "option %s", opt)
	}
}

func TestDescribeFallsBack(t *testing.T) {
	cfg := mustFlow(t, types.FlowDisposal)
	assert.Equal(t, "Locker booked!", cfg.Describe(types.Locker).Title)
	assert.Equal(t, cfg.FallbackCopy, cfg.Describe(types.HomeDelivery))
}

func TestAnnotate(t *testing.T) {
	cfg := mustFlow(t, types.FlowSale)

	snap := cfg.Annotate(types.WorkflowState{SelectedOption: types.Locker})
	assert.False(t, snap.Valid)
	assert.ElementsMatch(t, []types.Field{types.FieldPrice, types.FieldLocation}, snap.Missing)

	snap = cfg.Annotate(types.WorkflowState{})
	assert.False(t, snap.Valid)
	assert.Nil(t, snap.Missing)
}

func TestCanConfirmRequiresSelectingPhase(t *testing.T) {
	cfg := mustFlow(t, types.FlowSale)
	state := types.WorkflowState{
		Phase:               types.PhaseSelecting,
		SelectedOption:      types.Locker,
		Price:               "450",
		LocationDescription: "Via Roma 4 — Locker B12",
	}
	assert.True(t, cfg.CanConfirm(state))
	assert.True(t, cfg.Annotate(state).Valid)

	for _, phase := range []types.Phase{types.PhaseAwaitingLocationPick, types.PhaseConfirmed, types.PhaseExiting} {
		state.Phase = phase
		assert.True(t, cfg.IsValid(state), "phase %s", phase)
		assert.False(t, cfg.CanConfirm(state), "phase %s", phase)
		assert.False(t, cfg.Annotate(state).Valid, "phase %s", phase)
	}
}
