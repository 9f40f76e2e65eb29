package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"plantline/internal/domain"
	"plantline/internal/events"
)

// PartCreateOptions are parameters for registering a spare part.
type PartCreateOptions struct {
	Code         string
	Name         string
	MinStock     int
	InitialStock int
	UnitPrice    float64
	ActorID      string
}

// CreateSparePart registers a spare part in the inventory.
func (e Engine) CreateSparePart(ctx context.Context, opts PartCreateOptions) (domain.SparePart, error) {
	fields := map[string]string{}
	if opts.Code == "" {
		fields["code"] = "code is required"
	}
	if opts.Name == "" {
		fields["name"] = "name is required"
	}
	if opts.MinStock < 0 {
		fields["min_stock"] = "min_stock cannot be negative"
	}
	if opts.InitialStock < 0 {
		fields["initial_stock"] = "initial_stock cannot be negative"
	}
	if opts.UnitPrice < 0 {
		fields["unit_price"] = "unit_price cannot be negative"
	}
	if len(fields) > 0 {
		return domain.SparePart{}, ValidationError{Fields: fields}
	}

	part := domain.SparePart{
		ID:           uuid.New().String(),
		Code:         opts.Code,
		Name:         opts.Name,
		MinStock:     opts.MinStock,
		CurrentStock: opts.InitialStock,
		UnitPrice:    opts.UnitPrice,
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.SparePart{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertSparePart(ctx, tx, part); err != nil {
		return domain.SparePart{}, fmt.Errorf("insert part: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "part.created", "part", part.ID, opts.ActorID, events.EventPayload{
		"code": part.Code,
	}); err != nil {
		return domain.SparePart{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.SparePart{}, err
	}
	return part, nil
}

// ListSpareParts returns all spare parts.
func (e Engine) ListSpareParts(ctx context.Context) ([]domain.SparePart, error) {
	return e.Repo.ListSpareParts(ctx)
}

// MovementOptions are parameters for recording a stock movement.
type MovementOptions struct {
	PartID      string
	Direction   string
	Quantity    int
	WorkOrderID *string
	ActorID     string
}

// RecordStockMovement adjusts a part's stock. Outbound movements cannot
// overdraw; dropping below the minimum stock leaves an audit event for the
// purchasing workflow to react to.
func (e Engine) RecordStockMovement(ctx context.Context, opts MovementOptions) (domain.SparePart, error) {
	fields := map[string]string{}
	if opts.Direction != "in" && opts.Direction != "out" {
		fields["direction"] = fmt.Sprintf("invalid direction %q", opts.Direction)
	}
	if opts.Quantity <= 0 {
		fields["quantity"] = "quantity must be positive"
	}
	if len(fields) > 0 {
		return domain.SparePart{}, ValidationError{Fields: fields}
	}
	part, err := e.Repo.GetSparePart(ctx, opts.PartID)
	if err != nil {
		return domain.SparePart{}, err
	}
	if opts.WorkOrderID != nil {
		if _, err := e.Repo.GetWorkOrder(ctx, *opts.WorkOrderID); err != nil {
			return domain.SparePart{}, err
		}
	}

	stock := part.CurrentStock
	if opts.Direction == "in" {
		stock += opts.Quantity
	} else {
		if opts.Quantity > stock {
			return domain.SparePart{}, ValidationError{Fields: map[string]string{
				"quantity": fmt.Sprintf("only %d in stock", stock),
			}}
		}
		stock -= opts.Quantity
	}

	movement := domain.StockMovement{
		ID:          uuid.New().String(),
		PartID:      part.ID,
		Direction:   opts.Direction,
		Quantity:    opts.Quantity,
		WorkOrderID: opts.WorkOrderID,
		MovedAt:     e.now().UTC().Format(time.RFC3339),
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.SparePart{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertStockMovement(ctx, tx, movement); err != nil {
		return domain.SparePart{}, err
	}
	if err := e.Repo.UpdateSparePartStock(ctx, tx, part.ID, stock); err != nil {
		return domain.SparePart{}, err
	}
	if err := e.Events.Append(ctx, tx, "stock.moved", "part", part.ID, opts.ActorID, events.EventPayload{
		"direction": opts.Direction,
		"quantity":  opts.Quantity,
		"stock":     stock,
	}); err != nil {
		return domain.SparePart{}, err
	}
	if stock < part.MinStock {
		if err := e.Events.Append(ctx, tx, "stock.low", "part", part.ID, opts.ActorID, events.EventPayload{
			"stock":     stock,
			"min_stock": part.MinStock,
		}); err != nil {
			return domain.SparePart{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.SparePart{}, err
	}
	part.CurrentStock = stock
	return part, nil
}

// ListStockMovements returns movements for a part, newest first.
func (e Engine) ListStockMovements(ctx context.Context, partID string) ([]domain.StockMovement, error) {
	if _, err := e.Repo.GetSparePart(ctx, partID); err != nil {
		return nil, err
	}
	return e.Repo.ListStockMovements(ctx, partID)
}

// LatestEvents exposes the audit trail.
func (e Engine) LatestEvents(ctx context.Context, limit int, evtType, entityKind, entityID string) ([]domain.Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return e.Repo.LatestEvents(ctx, limit, evtType, entityKind, entityID)
}
