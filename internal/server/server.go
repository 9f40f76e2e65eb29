package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"plantline/internal/domain"
	"plantline/internal/engine"
	"plantline/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
}

const defaultActor = "local-user"

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"asset not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Plantline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	hcfg := huma.DefaultConfig("Plantline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerAssets(group, cfg.Engine)
	registerSchedules(group, cfg.Engine)
	registerFaults(group, cfg.Engine)
	registerInspections(group, cfg.Engine)
	registerCalendar(group, cfg.Engine)
	registerWorkOrders(group, cfg.Engine)
	registerParts(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var ve engine.ValidationError
	if errors.As(err, &ve) {
		details := make(map[string]any, len(ve.Fields))
		for k, v := range ve.Fields {
			details[k] = v
		}
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), details)
	}
	var te engine.TransitionError
	if errors.As(err, &te) {
		return newAPIError(http.StatusConflict, "invalid_transition", err.Error(), map[string]any{
			"from": string(te.From),
			"to":   string(te.To),
		})
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func actorOrDefault(actor string) string {
	if actor == "" {
		return defaultActor
	}
	return actor
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Plantline API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerAssets(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-asset",
		Method:        http.MethodPost,
		Path:          "/assets",
		Summary:       "Register asset",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		ActorID string             `header:"X-Actor-Id"`
		Body    CreateAssetRequest `json:"body"`
	}) (*struct {
		Body domain.Asset `json:"body"`
	}, error) {
		asset, err := e.CreateAsset(ctx, engine.AssetCreateOptions{
			Code:        input.Body.Code,
			Name:        input.Body.Name,
			Criticality: input.Body.Criticality,
			Location:    input.Body.Location,
			ActorID:     actorOrDefault(input.ActorID),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Asset `json:"body"`
		}{Body: asset}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-assets",
		Method:      http.MethodGet,
		Path:        "/assets",
		Summary:     "List assets",
	}, func(ctx context.Context, input *struct {
		Criticality string `query:"criticality"`
		Search      string `query:"search"`
	}) (*struct {
		Body []domain.Asset `json:"body"`
	}, error) {
		items, err := e.ListAssets(ctx, repo.AssetFilter{
			Criticality: input.Criticality,
			Search:      input.Search,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Asset `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-asset",
		Method:      http.MethodGet,
		Path:        "/assets/{asset_id}",
		Summary:     "Get asset",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		AssetID string `path:"asset_id"`
	}) (*struct {
		Body domain.Asset `json:"body"`
	}, error) {
		asset, err := e.GetAsset(ctx, input.AssetID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Asset `json:"body"`
		}{Body: asset}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-asset",
		Method:      http.MethodDelete,
		Path:        "/assets/{asset_id}",
		Summary:     "Delete asset",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		AssetID string `path:"asset_id"`
		ActorID string `header:"X-Actor-Id"`
	}) (*struct{}, error) {
		if err := e.DeleteAsset(ctx, input.AssetID, actorOrDefault(input.ActorID)); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerSchedules(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-schedule",
		Method:        http.MethodPost,
		Path:          "/assets/{asset_id}/schedules",
		Summary:       "Create preventive schedule",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		AssetID string                `path:"asset_id"`
		ActorID string                `header:"X-Actor-Id"`
		Body    CreateScheduleRequest `json:"body"`
	}) (*struct {
		Body ScheduleResponse `json:"body"`
	}, error) {
		tasks := make([]engine.TaskSpec, 0, len(input.Body.Tasks))
		for _, t := range input.Body.Tasks {
			tasks = append(tasks, engine.TaskSpec{ID: t.ID, Description: t.Description})
		}
		s, err := e.CreateSchedule(ctx, engine.ScheduleCreateOptions{
			AssetID:       input.AssetID,
			Tasks:         tasks,
			ScheduleType:  input.Body.ScheduleType,
			IntervalTime:  input.Body.IntervalTime,
			IntervalUsage: input.Body.IntervalUsage,
			UsageUnit:     input.Body.UsageUnit,
			ActorID:       actorOrDefault(input.ActorID),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ScheduleResponse `json:"body"`
		}{Body: scheduleResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-schedules",
		Method:      http.MethodGet,
		Path:        "/assets/{asset_id}/schedules",
		Summary:     "List schedules for asset",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		AssetID string `path:"asset_id"`
	}) (*struct {
		Body []ScheduleResponse `json:"body"`
	}, error) {
		items, err := e.ListSchedulesForAsset(ctx, input.AssetID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ScheduleResponse `json:"body"`
		}{Body: mapSchedules(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "execute-schedule",
		Method:      http.MethodPost,
		Path:        "/schedules/{schedule_id}/execute",
		Summary:     "Mark schedule executed",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ScheduleID string `path:"schedule_id"`
		ActorID    string `header:"X-Actor-Id"`
	}) (*struct {
		Body ScheduleResponse `json:"body"`
	}, error) {
		s, err := e.MarkScheduleExecuted(ctx, input.ScheduleID, actorOrDefault(input.ActorID))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ScheduleResponse `json:"body"`
		}{Body: scheduleResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "record-usage",
		Method:      http.MethodPost,
		Path:        "/assets/{asset_id}/usage",
		Summary:     "Record asset usage",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		AssetID string             `path:"asset_id"`
		ActorID string             `header:"X-Actor-Id"`
		Body    RecordUsageRequest `json:"body"`
	}) (*struct {
		Body []ScheduleResponse `json:"body"`
	}, error) {
		items, err := e.RecordUsage(ctx, input.AssetID, input.Body.Amount, input.Body.Unit, actorOrDefault(input.ActorID))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ScheduleResponse `json:"body"`
		}{Body: mapSchedules(items)}, nil
	})
}

func registerFaults(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "report-fault",
		Method:        http.MethodPost,
		Path:          "/faults",
		Summary:       "Report fault",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ActorID string             `header:"X-Actor-Id"`
		Body    ReportFaultRequest `json:"body"`
	}) (*struct {
		Body domain.WorkOrder `json:"body"`
	}, error) {
		opts := engine.FaultReportOptions{
			AssetID:     input.Body.AssetID,
			Description: input.Body.Description,
			ReporterID:  actorOrDefault(input.ActorID),
		}
		if input.Body.Impact != nil {
			impact, err := domain.ParseOperationalImpact(*input.Body.Impact)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
			}
			opts.Impact = &impact
		}
		wo, err := e.ReportFault(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.WorkOrder `json:"body"`
		}{Body: wo}, nil
	})
}

func registerInspections(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "submit-inspection",
		Method:      http.MethodPost,
		Path:        "/inspections",
		Summary:     "Submit autonomous inspection results",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ActorID string                  `header:"X-Actor-Id"`
		Body    SubmitInspectionRequest `json:"body"`
	}) (*struct {
		Body InspectionResponse `json:"body"`
	}, error) {
		tasks := make([]domain.ChecklistTask, 0, len(input.Body.Tasks))
		for _, t := range input.Body.Tasks {
			status, err := domain.ParseTaskStatus(t.Status)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
			}
			tasks = append(tasks, domain.ChecklistTask{ID: t.ID, Description: t.Description, Status: status})
		}
		result, err := e.ProcessChecklist(ctx, engine.ChecklistOptions{
			AssetID:    input.Body.AssetID,
			ReporterID: actorOrDefault(input.ActorID),
			Tasks:      tasks,
			Notes:      input.Body.Notes,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body InspectionResponse `json:"body"`
		}{Body: inspectionResponse(result)}, nil
	})
}

func registerCalendar(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "calendar",
		Method:      http.MethodGet,
		Path:        "/calendar",
		Summary:     "Maintenance calendar feed",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []engine.CalendarEvent `json:"body"`
	}, error) {
		items, err := e.CalendarEvents(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []engine.CalendarEvent `json:"body"`
		}{Body: items}, nil
	})
}

func registerWorkOrders(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-workorders",
		Method:      http.MethodGet,
		Path:        "/workorders",
		Summary:     "List work orders",
	}, func(ctx context.Context, input *struct {
		AssetID string `query:"asset_id"`
		Type    string `query:"type"`
		Status  string `query:"status"`
		Open    bool   `query:"open"`
	}) (*struct {
		Body []domain.WorkOrder `json:"body"`
	}, error) {
		items, err := e.ListWorkOrders(ctx, repo.WorkOrderFilter{
			AssetID:  input.AssetID,
			Type:     input.Type,
			Status:   input.Status,
			OpenOnly: input.Open,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.WorkOrder `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-workorder",
		Method:      http.MethodGet,
		Path:        "/workorders/{workorder_id}",
		Summary:     "Get work order",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		WorkOrderID string `path:"workorder_id"`
	}) (*struct {
		Body domain.WorkOrder `json:"body"`
	}, error) {
		wo, err := e.GetWorkOrder(ctx, input.WorkOrderID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.WorkOrder `json:"body"`
		}{Body: wo}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-workorder-status",
		Method:      http.MethodPatch,
		Path:        "/workorders/{workorder_id}/status",
		Summary:     "Advance work order status",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		WorkOrderID string           `path:"workorder_id"`
		ActorID     string           `header:"X-Actor-Id"`
		Body        SetStatusRequest `json:"body"`
	}) (*struct {
		Body domain.WorkOrder `json:"body"`
	}, error) {
		status, err := domain.ParseWorkOrderStatus(input.Body.Status)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		wo, err := e.SetWorkOrderStatus(ctx, engine.StatusChangeOptions{
			WorkOrderID: input.WorkOrderID,
			Status:      status,
			AssignedTo:  input.Body.AssignedTo,
			ActorID:     actorOrDefault(input.ActorID),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.WorkOrder `json:"body"`
		}{Body: wo}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "report-delay",
		Method:      http.MethodPost,
		Path:        "/workorders/{workorder_id}/delay",
		Summary:     "Report work order delay",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		WorkOrderID string             `path:"workorder_id"`
		ActorID     string             `header:"X-Actor-Id"`
		Body        ReportDelayRequest `json:"body"`
	}) (*struct {
		Body domain.WorkOrder `json:"body"`
	}, error) {
		wo, err := e.ReportDelay(ctx, engine.DelayOptions{
			WorkOrderID: input.WorkOrderID,
			Reason:      input.Body.Reason,
			NewEstimate: input.Body.NewEstimate,
			ActorID:     actorOrDefault(input.ActorID),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.WorkOrder `json:"body"`
		}{Body: wo}, nil
	})
}

func registerParts(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-part",
		Method:        http.MethodPost,
		Path:          "/parts",
		Summary:       "Register spare part",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		ActorID string            `header:"X-Actor-Id"`
		Body    CreatePartRequest `json:"body"`
	}) (*struct {
		Body domain.SparePart `json:"body"`
	}, error) {
		part, err := e.CreateSparePart(ctx, engine.PartCreateOptions{
			Code:         input.Body.Code,
			Name:         input.Body.Name,
			MinStock:     input.Body.MinStock,
			InitialStock: input.Body.InitialStock,
			UnitPrice:    input.Body.UnitPrice,
			ActorID:      actorOrDefault(input.ActorID),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.SparePart `json:"body"`
		}{Body: part}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-parts",
		Method:      http.MethodGet,
		Path:        "/parts",
		Summary:     "List spare parts",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.SparePart `json:"body"`
	}, error) {
		items, err := e.ListSpareParts(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.SparePart `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "record-movement",
		Method:        http.MethodPost,
		Path:          "/parts/{part_id}/movements",
		Summary:       "Record stock movement",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		PartID  string                `path:"part_id"`
		ActorID string                `header:"X-Actor-Id"`
		Body    CreateMovementRequest `json:"body"`
	}) (*struct {
		Body domain.SparePart `json:"body"`
	}, error) {
		part, err := e.RecordStockMovement(ctx, engine.MovementOptions{
			PartID:      input.PartID,
			Direction:   input.Body.Direction,
			Quantity:    input.Body.Quantity,
			WorkOrderID: input.Body.WorkOrderID,
			ActorID:     actorOrDefault(input.ActorID),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.SparePart `json:"body"`
		}{Body: part}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-movements",
		Method:      http.MethodGet,
		Path:        "/parts/{part_id}/movements",
		Summary:     "List stock movements",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		PartID string `path:"part_id"`
	}) (*struct {
		Body []domain.StockMovement `json:"body"`
	}, error) {
		items, err := e.ListStockMovements(ctx, input.PartID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.StockMovement `json:"body"`
		}{Body: items}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Latest audit events",
	}, func(ctx context.Context, input *struct {
		Limit      int    `query:"limit"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		items, err := e.LatestEvents(ctx, input.Limit, input.Type, input.EntityKind, input.EntityID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: items}, nil
	})
}
