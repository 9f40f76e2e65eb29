package engine

import (
	"context"
	"fmt"
	"time"

	"plantline/internal/domain"
	"plantline/internal/events"
	"plantline/internal/notify"
	"plantline/internal/repo"
)

// TransitionError reports a work order status change that the lifecycle
// does not allow.
type TransitionError struct {
	From domain.WorkOrderStatus
	To   domain.WorkOrderStatus
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("cannot transition work order from %s to %s", e.From, e.To)
}

var statusRank = map[domain.WorkOrderStatus]int{
	domain.StatusCreated:   0,
	domain.StatusApproved:  1,
	domain.StatusAssigned:  2,
	domain.StatusExecuting: 3,
	domain.StatusClosed:    4,
}

func canTransition(from, to domain.WorkOrderStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == domain.StatusCanceled {
		return true
	}
	fr, ok := statusRank[from]
	if !ok {
		return false
	}
	tr, ok := statusRank[to]
	if !ok {
		return false
	}
	return tr == fr+1
}

// StatusChangeOptions are parameters for advancing a work order.
type StatusChangeOptions struct {
	WorkOrderID string
	Status      domain.WorkOrderStatus
	AssignedTo  *string
	ActorID     string
}

// SetWorkOrderStatus advances a work order through its lifecycle. The
// forward path is strictly one step at a time; cancellation is allowed
// from any non-terminal state. Entering execution stamps the start date
// and notifies production; closing stamps the end date and notifies that
// the asset is operational again.
func (e Engine) SetWorkOrderStatus(ctx context.Context, opts StatusChangeOptions) (domain.WorkOrder, error) {
	wo, err := e.Repo.GetWorkOrder(ctx, opts.WorkOrderID)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	if !canTransition(wo.Status, opts.Status) {
		return domain.WorkOrder{}, TransitionError{From: wo.Status, To: opts.Status}
	}

	now := e.now().UTC().Format(time.RFC3339)
	prev := wo.Status
	wo.Status = opts.Status
	wo.UpdatedAt = now
	if opts.AssignedTo != nil {
		wo.AssignedTo = opts.AssignedTo
	}
	switch opts.Status {
	case domain.StatusExecuting:
		wo.StartDate = &now
	case domain.StatusClosed:
		wo.EndDate = &now
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateWorkOrder(ctx, tx, wo); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := e.Events.Append(ctx, tx, "workorder.status", "workorder", wo.ID, opts.ActorID, events.EventPayload{
		"from": prev,
		"to":   wo.Status,
	}); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.WorkOrder{}, err
	}

	switch opts.Status {
	case domain.StatusExecuting:
		e.notifyForOrder(ctx, notify.KindStart, wo, nil)
	case domain.StatusClosed:
		e.notifyForOrder(ctx, notify.KindFinish, wo, nil)
	}
	return wo, nil
}

// DelayOptions are parameters for reporting a delay on an in-progress
// work order.
type DelayOptions struct {
	WorkOrderID string
	Reason      string
	NewEstimate string
	ActorID     string
}

// ReportDelay records that a work order will take longer than planned and
// notifies production, with the maintenance manager in copy.
func (e Engine) ReportDelay(ctx context.Context, opts DelayOptions) (domain.WorkOrder, error) {
	fields := map[string]string{}
	if opts.Reason == "" {
		fields["reason"] = "reason is required"
	}
	if len(fields) > 0 {
		return domain.WorkOrder{}, ValidationError{Fields: fields}
	}
	wo, err := e.Repo.GetWorkOrder(ctx, opts.WorkOrderID)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	if wo.Status.Terminal() {
		return domain.WorkOrder{}, TransitionError{From: wo.Status, To: wo.Status}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	defer tx.Rollback()
	if err := e.Events.Append(ctx, tx, "workorder.delayed", "workorder", wo.ID, opts.ActorID, events.EventPayload{
		"reason":       opts.Reason,
		"new_estimate": opts.NewEstimate,
	}); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.WorkOrder{}, err
	}

	details := map[string]string{"reason": opts.Reason}
	if opts.NewEstimate != "" {
		details["new_estimate"] = opts.NewEstimate
	}
	e.notifyForOrder(ctx, notify.KindDelay, wo, details)
	return wo, nil
}

// ListWorkOrders returns work orders matching the filter.
func (e Engine) ListWorkOrders(ctx context.Context, filter repo.WorkOrderFilter) ([]domain.WorkOrder, error) {
	return e.Repo.ListWorkOrders(ctx, filter)
}

// GetWorkOrder returns a single work order.
func (e Engine) GetWorkOrder(ctx context.Context, id string) (domain.WorkOrder, error) {
	return e.Repo.GetWorkOrder(ctx, id)
}

func (e Engine) notifyForOrder(ctx context.Context, kind notify.Kind, wo domain.WorkOrder, details map[string]string) {
	assetName := wo.AssetID
	if asset, err := e.Repo.GetAsset(ctx, wo.AssetID); err == nil {
		assetName = asset.Name
	}
	e.notify(kind, notify.Payload{
		AssetName:   assetName,
		WorkOrderID: wo.ID,
		Details:     details,
	})
}
