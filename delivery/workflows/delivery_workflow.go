package workflows

import (
	"strings"
	"time"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"reuseit/delivery/flows"
	"reuseit/delivery/types"
	"reuseit/internal/codegen"
)

// DeliveryWorkflow backs one delivery selection screen from the first
// option tap until the user leaves the confirmed screen.
//
// The workflow collects the delivery option and the fields it requires
// through signals, exposes its state through queries, and after a valid
// confirmation shows the confirmed screen for Timing.ConfirmDelay and the
// exit transition for Timing.ExitDelay before returning the route to
// navigate to. A session that is never confirmed ends abandoned after
// Timing.SessionTimeout.
func DeliveryWorkflow(ctx workflow.Context, input types.WorkflowInput) (types.WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)

	cfg, err := flows.For(input.Flow)
	if err != nil {
		return types.WorkflowResult{}, temporal.NewNonRetryableApplicationError(err.Error(), "ValidationError", err)
	}
	timing := input.Timing.WithDefaults()

	state := cfg.NewState(input)
	if state.SessionID == "" {
		state.SessionID = workflow.GetInfo(ctx).WorkflowExecution.ID
	}
	result := types.WorkflowResult{SessionID: state.SessionID, Flow: state.Flow}

	retryPolicy := &temporal.RetryPolicy{
		InitialInterval:        1 * time.Second,
		BackoffCoefficient:     2.0,
		MaximumInterval:        10 * time.Second,
		MaximumAttempts:        3,
		NonRetryableErrorTypes: []string{"PermanentError", "ValidationError"},
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy:         retryPolicy,
	})

	// set once a confirm is accepted, before the code is issued
	confirming := false

	err = workflow.SetQueryHandler(ctx, types.QueryState, func() (types.WorkflowState, error) {
		snap := cfg.Annotate(state)
		if confirming {
			snap.Valid = false
		}
		return snap, nil
	})
	if err != nil {
		return result, err
	}
	err = workflow.SetQueryHandler(ctx, types.QueryValid, func() (bool, error) {
		return !confirming && cfg.CanConfirm(state), nil
	})
	if err != nil {
		return result, err
	}

	sigSelect := workflow.GetSignalChannel(ctx, types.SignalSelectOption)
	sigField := workflow.GetSignalChannel(ctx, types.SignalSetField)
	sigPicker := workflow.GetSignalChannel(ctx, types.SignalOpenPicker)
	sigPicked := workflow.GetSignalChannel(ctx, types.SignalLocationPicked)
	sigConfirm := workflow.GetSignalChannel(ctx, types.SignalConfirm)

	logger.Info("Delivery workflow started", "sessionID", state.SessionID, "flow", state.Flow)

	deadline := workflow.Now(ctx).Add(timing.SessionTimeout)
	abandoned := false

	for !confirming && !abandoned {
		remaining := deadline.Sub(workflow.Now(ctx))
		if remaining <= 0 {
			abandoned = true
			break
		}

		selector := workflow.NewSelector(ctx)
		timerCtx, cancelTimer := workflow.WithCancel(ctx)
		timerFut := workflow.NewTimer(timerCtx, remaining)

		selector.AddReceive(sigSelect, func(ch workflow.ReceiveChannel, more bool) {
			var option types.DeliveryOption
			ch.Receive(ctx, &option)
			if state.Phase != types.PhaseSelecting {
				logger.Warn("Option change ignored", "phase", state.Phase, "option", option)
				return
			}
			next, err := cfg.Select(state, option)
			if err != nil {
				logger.Warn("Option rejected", "option", option, "error", err)
				return
			}
			state = next
			logger.Info("Option selected", "option", option)
		})

		selector.AddReceive(sigField, func(ch workflow.ReceiveChannel, more bool) {
			var update types.FieldUpdate
			ch.Receive(ctx, &update)
			if state.Phase != types.PhaseSelecting {
				logger.Warn("Field update ignored", "phase", state.Phase, "field", update.Field)
				return
			}
			next, err := cfg.SetField(state, update)
			if err != nil {
				logger.Warn("Field update rejected", "field", update.Field, "error", err)
				return
			}
			state = next
		})

		selector.AddReceive(sigPicker, func(ch workflow.ReceiveChannel, more bool) {
			var req types.PickerRequest
			ch.Receive(ctx, &req)
			if state.Phase != types.PhaseSelecting || !state.SelectedOption.NeedsLocation() {
				logger.Warn("Picker request ignored", "phase", state.Phase, "option", state.SelectedOption)
				return
			}
			state.Phase = types.PhaseAwaitingLocationPick
			state.PickerOption = state.SelectedOption
			logger.Info("Location picker opened", "option", state.PickerOption)
		})

		selector.AddReceive(sigPicked, func(ch workflow.ReceiveChannel, more bool) {
			var res types.LocationResult
			ch.Receive(ctx, &res)
			if state.Phase != types.PhaseAwaitingLocationPick {
				logger.Warn("Location result without open picker ignored", "phase", state.Phase)
				return
			}
			if !res.Cancelled && strings.TrimSpace(res.Description) != "" {
				state.LocationDescription = res.Description
				logger.Info("Location picked", "location", res.Description)
			} else {
				logger.Info("Location pick cancelled")
			}
			state.Phase = types.PhaseSelecting
			state.PickerOption = ""
		})

		selector.AddReceive(sigConfirm, func(ch workflow.ReceiveChannel, more bool) {
			var req types.ConfirmRequest
			ch.Receive(ctx, &req)
			if !cfg.CanConfirm(state) {
				logger.Warn("Confirm rejected", "phase", state.Phase, "missing", cfg.Missing(state))
				return
			}
			confirming = true
		})

		selector.AddFuture(timerFut, func(f workflow.Future) {
			if err := f.Get(ctx, nil); err != nil {
				// cancelled together with the workflow
				return
			}
			abandoned = true
			logger.Warn("Session timed out", "sessionID", state.SessionID)
		})

		selector.Select(ctx)
		cancelTimer()

		if ctx.Err() != nil {
			logger.Info("Delivery workflow cancelled", "sessionID", state.SessionID, "phase", state.Phase)
			return result, temporal.NewCanceledError()
		}
	}

	if abandoned {
		result.Option = state.SelectedOption
		result.Abandoned = true
		return result, nil
	}

	// the confirmed phase is never observable without its code
	code, err := issueCode(ctx, logger, state)
	if err != nil {
		return result, err
	}
	state.Phase = types.PhaseConfirmed
	state.ConfirmedAt = workflow.Now(ctx)
	state.Confirmation = cfg.Describe(state.SelectedOption)
	state.ConfirmationCode = code
	logger.Info("Delivery confirmed", "sessionID", state.SessionID, "option", state.SelectedOption, "code", code)

	if state.SelectedOption == types.Locker {
		var ticketID string
		err := workflow.ExecuteActivity(ctx, "ArchiveTicket", types.TicketRequest{
			SessionID: state.SessionID,
			UserID:    state.UserID,
			Title:     state.Confirmation.Title,
			Item:      state.ItemTitle,
			Code:      code,
		}).Get(ctx, &ticketID)
		switch {
		case temporal.IsCanceledError(err):
			return result, err
		case err != nil:
			logger.Error("Archiving ticket failed", "sessionID", state.SessionID, "error", err)
		default:
			state.TicketID = ticketID
		}
	}

	if err := workflow.Sleep(ctx, timing.ConfirmDelay); err != nil {
		return result, err
	}
	state.Phase = types.PhaseExiting

	if err := workflow.Sleep(ctx, timing.ExitDelay); err != nil {
		return result, err
	}
	state.ExitedAt = workflow.Now(ctx)
	state.Route = flows.TerminalRoute(state.SelectedOption)

	logger.Info("Delivery workflow completed", "sessionID", state.SessionID, "route", state.Route)

	result.Option = state.SelectedOption
	result.Route = state.Route
	result.ConfirmationCode = state.ConfirmationCode
	result.TicketID = state.TicketID
	result.ConfirmedAt = state.ConfirmedAt
	result.ExitedAt = state.ExitedAt
	return result, nil
}

// issueCode asks the issuer activity for a code and falls back to a locally
// generated one, so a confirmed workflow always has a code.
func issueCode(ctx workflow.Context, logger log.Logger, state types.WorkflowState) (string, error) {
	var code string
	err := workflow.ExecuteActivity(ctx, "IssueConfirmationCode", types.CodeRequest{
		SessionID: state.SessionID,
		Flow:      state.Flow,
		Option:    state.SelectedOption,
	}).Get(ctx, &code)
	if temporal.IsCanceledError(err) {
		return "", err
	}
	if err == nil && code != "" {
		return code, nil
	}
	logger.Warn("Issuing confirmation code failed, generating locally", "sessionID", state.SessionID, "error", err)

	encoded := workflow.SideEffect(ctx, func(ctx workflow.Context) interface{} {
		c, err := codegen.Random()
		if err != nil {
			return ""
		}
		return c
	})
	if err := encoded.Get(&code); err != nil {
		return "", err
	}
	if code == "" {
		return "", temporal.NewNonRetryableApplicationError("no confirmation code available", "PermanentError", nil)
	}
	return code, nil
}
