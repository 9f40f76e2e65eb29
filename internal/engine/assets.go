package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"plantline/internal/domain"
	"plantline/internal/events"
	"plantline/internal/repo"
)

// AssetCreateOptions are parameters for registering an asset.
type AssetCreateOptions struct {
	Code        string
	Name        string
	Criticality string
	Location    string
	ActorID     string
}

// CreateAsset registers a new maintainable asset. Codes are unique; a
// duplicate is reported as a validation error rather than a storage error.
func (e Engine) CreateAsset(ctx context.Context, opts AssetCreateOptions) (domain.Asset, error) {
	fields := map[string]string{}
	if opts.Code == "" {
		fields["code"] = "code is required"
	}
	if opts.Name == "" {
		fields["name"] = "name is required"
	}
	criticality, err := domain.ParseCriticality(opts.Criticality)
	if err != nil {
		fields["criticality"] = err.Error()
	}
	if len(fields) > 0 {
		return domain.Asset{}, ValidationError{Fields: fields}
	}
	if _, err := e.Repo.GetAssetByCode(ctx, opts.Code); err == nil {
		return domain.Asset{}, ValidationError{Fields: map[string]string{
			"code": fmt.Sprintf("asset code %q already exists", opts.Code),
		}}
	} else if err != repo.ErrNotFound {
		return domain.Asset{}, err
	}

	asset := domain.Asset{
		ID:          uuid.New().String(),
		Code:        opts.Code,
		Name:        opts.Name,
		Criticality: criticality,
		Location:    opts.Location,
		CreatedAt:   e.now().UTC().Format(time.RFC3339),
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Asset{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertAsset(ctx, tx, asset); err != nil {
		return domain.Asset{}, fmt.Errorf("insert asset: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "asset.created", "asset", asset.ID, opts.ActorID, events.EventPayload{
		"code": asset.Code,
		"name": asset.Name,
	}); err != nil {
		return domain.Asset{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Asset{}, err
	}
	return asset, nil
}

// GetAsset returns a single asset.
func (e Engine) GetAsset(ctx context.Context, id string) (domain.Asset, error) {
	return e.Repo.GetAsset(ctx, id)
}

// ListAssets returns assets matching the filter, newest first.
func (e Engine) ListAssets(ctx context.Context, filter repo.AssetFilter) ([]domain.Asset, error) {
	return e.Repo.ListAssets(ctx, filter)
}

// DeleteAsset removes an asset. Assets with open work orders cannot be
// deleted; the history has to be resolved or canceled first.
func (e Engine) DeleteAsset(ctx context.Context, id, actorID string) error {
	asset, err := e.Repo.GetAsset(ctx, id)
	if err != nil {
		return err
	}
	open, err := e.Repo.CountOpenWorkOrders(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return ValidationError{Fields: map[string]string{
			"id": fmt.Sprintf("asset has %d open work orders", open),
		}}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteAsset(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "asset.deleted", "asset", id, actorID, events.EventPayload{
		"code": asset.Code,
	}); err != nil {
		return err
	}
	return tx.Commit()
}
