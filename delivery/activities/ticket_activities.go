package activities

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"

	"reuseit/delivery/types"
	"reuseit/internal/archive"
	"reuseit/internal/metrics"
)

// TicketActivities files locker tickets in the QR archive
type TicketActivities struct {
	Store   archive.Store
	Metrics *metrics.Recorder
}

// ArchiveTicket stores a QR ticket for a confirmed locker transaction and
// returns its ID.
func (a *TicketActivities) ArchiveTicket(ctx context.Context, req types.TicketRequest) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Archiving ticket", "sessionID", req.SessionID, "userID", req.UserID)

	if req.Code == "" {
		return "", &types.ValidationError{Msg: "ticket has no unlock code"}
	}

	ticket := &archive.Ticket{
		SessionID:  req.SessionID,
		UserID:     req.UserID,
		Title:      req.Title,
		Item:       req.Item,
		UnlockCode: req.Code,
		QRData:     req.Code,
	}
	err := a.Store.Save(ctx, ticket)
	switch {
	case errors.Is(err, archive.ErrDuplicate) && ticket.ID != "":
		// a retry after a save whose completion was lost
		logger.Info("Ticket already archived", "sessionID", req.SessionID, "ticketID", ticket.ID)
		return ticket.ID, nil
	case errors.Is(err, archive.ErrDuplicate):
		a.Metrics.ObserveTicket(false)
		return "", fmt.Errorf("session %s already has a ticket: %w", req.SessionID, err)
	case err != nil:
		a.Metrics.ObserveTicket(false)
		return "", fmt.Errorf("archive ticket for %s: %w", req.SessionID, err)
	}

	a.Metrics.ObserveTicket(true)
	logger.Info("Ticket archived", "sessionID", req.SessionID, "ticketID", ticket.ID)
	return ticket.ID, nil
}
