package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"reuseit/delivery/types"
	"reuseit/internal/codegen"
	"reuseit/internal/metrics"
)

// ConfirmationActivities issues the code shown on the confirmed screen
type ConfirmationActivities struct {
	Issuer  codegen.Issuer
	Metrics *metrics.Recorder
}

// IssueConfirmationCode returns a fresh code for the session
func (a *ConfirmationActivities) IssueConfirmationCode(ctx context.Context, req types.CodeRequest) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Issuing confirmation code", "sessionID", req.SessionID, "flow", req.Flow, "option", req.Option)

	if a.Issuer == nil {
		return "", &types.PermanentError{Msg: "no confirmation code issuer configured"}
	}

	code, err := a.Issuer.Issue(ctx, string(req.Flow))
	if err != nil {
		logger.Warn("Code issuer failed", "sessionID", req.SessionID, "error", err)
		return "", fmt.Errorf("issue code for %s: %w", req.SessionID, err)
	}
	if code == "" {
		return "", &types.PermanentError{Msg: fmt.Sprintf("issuer returned an empty code for flow %s", req.Flow)}
	}

	a.Metrics.ObserveConfirmation(string(req.Flow), string(req.Option))
	logger.Info("Confirmation code issued", "sessionID", req.SessionID, "code", code)
	return code, nil
}
