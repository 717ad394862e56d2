package flows

import "reuseit/delivery/types"

// Missing lists the fields that keep the confirm action disabled. A state
// without an offered option reports no fields; IsValid covers that case.
func (c Config) Missing(state types.WorkflowState) []types.Field {
	var missing []types.Field
	if c.RequirePrice && blank(state.Price) {
		missing = append(missing, types.FieldPrice)
	}
	for _, f := range c.Required[state.SelectedOption] {
		if blank(fieldValue(state, f)) {
			missing = append(missing, f)
		}
	}
	return missing
}

// IsValid gates the confirm action
func (c Config) IsValid(state types.WorkflowState) bool {
	if !state.HasOption() || !c.Offers(state.SelectedOption) {
		return false
	}
	return len(c.Missing(state)) == 0
}

// CanConfirm reports whether a confirm would be accepted now: the form is
// valid and no picker or confirmation is in progress.
func (c Config) CanConfirm(state types.WorkflowState) bool {
	return state.Phase == types.PhaseSelecting && c.IsValid(state)
}

// Annotate fills the derived Valid and Missing fields of a snapshot.
// Valid follows CanConfirm.
func (c Config) Annotate(state types.WorkflowState) types.WorkflowState {
	state.Valid = c.CanConfirm(state)
	if state.HasOption() {
		state.Missing = c.Missing(state)
	} else {
		state.Missing = nil
	}
	return state
}
