package sessions

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	"reuseit/delivery/types"
)

func TestStartAssignsIDAndTiming(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	timing := types.Timing{ConfirmDelay: time.Second}

	var started types.WorkflowInput
	c.On("ExecuteWorkflow", mock.Anything,
		mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
			return o.TaskQueue == "delivery-task-queue" && strings.HasPrefix(o.ID, "delivery-sale-")
		}),
		mock.Anything,
		mock.MatchedBy(func(in types.WorkflowInput) bool {
			started = in
			return true
		}),
	).Return(run, nil)
	run.On("GetID").Return("delivery-sale-1")

	s := &Temporal{Client: c, TaskQueue: "delivery-task-queue", Timing: timing}
	id, err := s.Start(context.Background(), types.WorkflowInput{Flow: types.FlowSale, UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "delivery-sale-1", id)
	assert.Equal(t, timing, started.Timing)
	assert.True(t, strings.HasPrefix(started.SessionID, "delivery-sale-"))

	c.AssertExpectations(t)
	run.AssertExpectations(t)
}

func TestStartKeepsExplicitSessionID(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	c.On("ExecuteWorkflow", mock.Anything,
		mock.MatchedBy(func(o client.StartWorkflowOptions) bool { return o.ID == "my-session" }),
		mock.Anything, mock.Anything,
	).Return(run, nil)
	run.On("GetID").Return("my-session")

	s := &Temporal{Client: c, TaskQueue: "q"}
	id, err := s.Start(context.Background(), types.WorkflowInput{SessionID: "my-session", Flow: types.FlowPurchase})
	require.NoError(t, err)
	assert.Equal(t, "my-session", id)
}

func TestSignalMapsNotFound(t *testing.T) {
	c := &mocks.Client{}
	c.On("SignalWorkflow", mock.Anything, "gone", "", types.SignalConfirm, types.ConfirmRequest{}).
		Return(serviceerror.NewNotFound("workflow execution already completed"))
	c.On("SignalWorkflow", mock.Anything, "live", "", types.SignalSelectOption, types.Locker).
		Return(nil)

	s := &Temporal{Client: c}
	err := s.Signal(context.Background(), "gone", types.SignalConfirm, types.ConfirmRequest{})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Signal(context.Background(), "live", types.SignalSelectOption, types.Locker))
}

func TestCancel(t *testing.T) {
	c := &mocks.Client{}
	c.On("CancelWorkflow", mock.Anything, "s1", "").Return(nil)
	c.On("CancelWorkflow", mock.Anything, "s2", "").Return(errors.New("frontend unavailable"))

	s := &Temporal{Client: c}
	assert.NoError(t, s.Cancel(context.Background(), "s1"))

	err := s.Cancel(context.Background(), "s2")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "frontend unavailable")
}
