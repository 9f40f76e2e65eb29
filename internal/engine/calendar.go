package engine

import (
	"context"
	"log"

	"plantline/internal/domain"
	"plantline/internal/repo"
)

const (
	colorPreventive = "#3498db"
	colorCorrective = "#e74c3c"
)

// CalendarEvent is a renderable maintenance event. Preventive entries come
// from schedules with a computed next due date, corrective entries from
// open corrective work orders.
type CalendarEvent struct {
	ID       string  `json:"id"`
	Category string  `json:"category" enum:"preventive,corrective"`
	Title    string  `json:"title"`
	Start    string  `json:"start"`
	End      *string `json:"end,omitempty"`
	Color    string  `json:"color"`
}

// CalendarEvents aggregates preventive schedules and open corrective work
// orders into a single feed. Entries are instants: end always equals start.
// A bad row is logged and skipped rather than failing the whole feed.
func (e Engine) CalendarEvents(ctx context.Context) ([]CalendarEvent, error) {
	out := []CalendarEvent{}

	schedules, err := e.Repo.ListScheduledSchedules(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range schedules {
		if s.NextDue == nil {
			continue
		}
		asset, err := e.Repo.GetAsset(ctx, s.AssetID)
		if err != nil {
			log.Printf("calendar: skipping schedule %s: %v", s.ID, err)
			continue
		}
		due := *s.NextDue
		out = append(out, CalendarEvent{
			ID:       s.ID,
			Category: "preventive",
			Title:    "Preventive: " + asset.Name,
			Start:    due,
			End:      &due,
			Color:    colorPreventive,
		})
	}

	orders, err := e.Repo.ListWorkOrders(ctx, repo.WorkOrderFilter{
		Type:     string(domain.WorkOrderCorrective),
		OpenOnly: true,
	})
	if err != nil {
		return nil, err
	}
	for _, wo := range orders {
		asset, err := e.Repo.GetAsset(ctx, wo.AssetID)
		if err != nil {
			log.Printf("calendar: skipping work order %s: %v", wo.ID, err)
			continue
		}
		start := wo.CreatedAt
		if wo.StartDate != nil {
			start = *wo.StartDate
		}
		out = append(out, CalendarEvent{
			ID:       wo.ID,
			Category: "corrective",
			Title:    "Corrective: " + asset.Name,
			Start:    start,
			End:      &start,
			Color:    colorCorrective,
		})
	}
	return out, nil
}
