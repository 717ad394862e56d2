// Package sessions drives delivery workflows on behalf of the screens: it
// starts them, forwards user events as signals and reads their state back.
package sessions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"reuseit/delivery/types"
	"reuseit/delivery/workflows"
)

// ErrNotFound is returned for unknown or already finished sessions
var ErrNotFound = errors.New("session not found")

// Sessions is the set of operations the gateway and the CLI need
type Sessions interface {
	Start(ctx context.Context, input types.WorkflowInput) (string, error)
	State(ctx context.Context, id string) (types.WorkflowState, error)
	Valid(ctx context.Context, id string) (bool, error)
	Signal(ctx context.Context, id, name string, arg interface{}) error
	Cancel(ctx context.Context, id string) error
	Result(ctx context.Context, id string) (types.WorkflowResult, error)
}

// Temporal implements Sessions on a Temporal client. The session ID is the
// workflow ID.
type Temporal struct {
	Client    client.Client
	TaskQueue string
	// Timing is applied to sessions started without their own timing
	Timing types.Timing
}

// NewID builds a session ID for a flow
func NewID(flow types.Flow) string {
	return fmt.Sprintf("delivery-%s-%s", flow, uuid.NewString())
}

func (t *Temporal) Start(ctx context.Context, input types.WorkflowInput) (string, error) {
	if input.SessionID == "" {
		input.SessionID = NewID(input.Flow)
	}
	if input.Timing == (types.Timing{}) {
		input.Timing = t.Timing
	}
	opts := client.StartWorkflowOptions{
		ID:        input.SessionID,
		TaskQueue: t.TaskQueue,
	}
	we, err := t.Client.ExecuteWorkflow(ctx, opts, workflows.DeliveryWorkflow, input)
	if err != nil {
		return "", fmt.Errorf("start session %s: %w", input.SessionID, err)
	}
	return we.GetID(), nil
}

func (t *Temporal) State(ctx context.Context, id string) (types.WorkflowState, error) {
	var state types.WorkflowState
	resp, err := t.Client.QueryWorkflow(ctx, id, "", types.QueryState)
	if err != nil {
		return state, wrap(id, "query state", err)
	}
	if err := resp.Get(&state); err != nil {
		return state, fmt.Errorf("decode state of %s: %w", id, err)
	}
	return state, nil
}

func (t *Temporal) Valid(ctx context.Context, id string) (bool, error) {
	var valid bool
	resp, err := t.Client.QueryWorkflow(ctx, id, "", types.QueryValid)
	if err != nil {
		return false, wrap(id, "query validity", err)
	}
	if err := resp.Get(&valid); err != nil {
		return false, fmt.Errorf("decode validity of %s: %w", id, err)
	}
	return valid, nil
}

func (t *Temporal) Signal(ctx context.Context, id, name string, arg interface{}) error {
	return wrap(id, "signal "+name, t.Client.SignalWorkflow(ctx, id, "", name, arg))
}

func (t *Temporal) Cancel(ctx context.Context, id string) error {
	return wrap(id, "cancel", t.Client.CancelWorkflow(ctx, id, ""))
}

// Result blocks until the session's workflow finishes
func (t *Temporal) Result(ctx context.Context, id string) (types.WorkflowResult, error) {
	var res types.WorkflowResult
	err := t.Client.GetWorkflow(ctx, id, "").Get(ctx, &res)
	return res, wrap(id, "wait for result", err)
}

func wrap(id, op string, err error) error {
	if err == nil {
		return nil
	}
	var nf *serviceerror.NotFound
	if errors.As(err, &nf) {
		return fmt.Errorf("%s %s: %w", op, id, ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, id, err)
}
