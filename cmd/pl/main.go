package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"plantline/internal/app"
	"plantline/internal/db"
	"plantline/internal/domain"
	"plantline/internal/engine"
	"plantline/internal/repo"
	"plantline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "pl",
	Short: "Plantline CLI",
	Long: `Plantline manages plant maintenance: assets, preventive schedules,
fault escalation, autonomous inspections, work orders and spare parts.
State lives in the .plantline workspace; notification contacts go in
plantline.yml next to it. Run 'pl serve' for the HTTP API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PLANTLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(assetCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(usageCmd())
	rootCmd.AddCommand(faultCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(workorderCmd())
	rootCmd.AddCommand(partCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func assetCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "asset", Short: "Manage assets"}
	cmd.AddCommand(assetAddCmd())
	cmd.AddCommand(assetListCmd())
	cmd.AddCommand(assetShowCmd())
	cmd.AddCommand(assetDeleteCmd())
	return cmd
}

func assetAddCmd() *cobra.Command {
	var code, name, criticality, location string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				asset, err := a.Engine.CreateAsset(ctx, engine.AssetCreateOptions{
					Code:        code,
					Name:        name,
					Criticality: criticality,
					Location:    location,
					ActorID:     viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(asset)
			})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "unique asset code")
	cmd.Flags().StringVar(&name, "name", "", "asset name")
	cmd.Flags().StringVar(&criticality, "criticality", "low", "criticality (low, medium, high, critical)")
	cmd.Flags().StringVar(&location, "location", "", "physical location")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func assetListCmd() *cobra.Command {
	var f repo.AssetFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.ListAssets(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Code", "Name", "Criticality", "Location"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.ID, it.Code, it.Name, it.Criticality, it.Location})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Criticality, "criticality", "", "criticality filter")
	cmd.Flags().StringVar(&f.Search, "search", "", "match code or name")
	return cmd
}

func assetShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <asset-id>",
		Short: "Show an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				asset, err := a.Engine.GetAsset(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(asset)
			})
		},
	}
	return cmd
}

func assetDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <asset-id>",
		Short: "Delete an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Engine.DeleteAsset(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "schedule", Short: "Manage preventive schedules"}
	cmd.AddCommand(scheduleAddCmd())
	cmd.AddCommand(scheduleListCmd())
	cmd.AddCommand(scheduleExecuteCmd())
	return cmd
}

func scheduleAddCmd() *cobra.Command {
	var assetID, schedType, interval, unit string
	var usageInterval int
	var tasks []string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a preventive schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := make([]engine.TaskSpec, 0, len(tasks))
			for i, t := range tasks {
				specs = append(specs, engine.TaskSpec{ID: i + 1, Description: t})
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				s, err := a.Engine.CreateSchedule(ctx, engine.ScheduleCreateOptions{
					AssetID:       assetID,
					Tasks:         specs,
					ScheduleType:  schedType,
					IntervalTime:  interval,
					IntervalUsage: usageInterval,
					UsageUnit:     unit,
					ActorID:       viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&assetID, "asset", "", "asset id")
	cmd.Flags().StringVar(&schedType, "type", "time", "schedule type (time, usage, condition)")
	cmd.Flags().StringVar(&interval, "interval", "", "time interval (daily, weekly, monthly, annual)")
	cmd.Flags().IntVar(&usageInterval, "usage-interval", 0, "usage interval amount")
	cmd.Flags().StringVar(&unit, "unit", "", "usage unit (hours, km, cycles)")
	cmd.Flags().StringArrayVar(&tasks, "task", nil, "checklist task description (repeatable)")
	_ = cmd.MarkFlagRequired("asset")
	return cmd
}

func scheduleListCmd() *cobra.Command {
	var assetID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules for an asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.ListSchedulesForAsset(ctx, assetID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "Interval", "Next due", "Accrued", "Due"})
				for _, s := range items {
					interval := ""
					if s.IntervalTime != nil {
						interval = string(*s.IntervalTime)
					} else if s.IntervalUsage != nil && s.UsageUnit != nil {
						interval = fmt.Sprintf("%d %s", *s.IntervalUsage, *s.UsageUnit)
					}
					nextDue := ""
					if s.NextDue != nil {
						nextDue = *s.NextDue
					}
					tw.AppendRow(table.Row{s.ID, s.ScheduleType, interval, nextDue, s.UsageAccrued, s.Due()})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&assetID, "asset", "", "asset id")
	_ = cmd.MarkFlagRequired("asset")
	return cmd
}

func scheduleExecuteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute <schedule-id>",
		Short: "Mark a schedule as executed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				s, err := a.Engine.MarkScheduleExecuted(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	return cmd
}

func usageCmd() *cobra.Command {
	var assetID, unit string
	var amount int
	record := &cobra.Command{
		Use:   "record",
		Short: "Record asset usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.RecordUsage(ctx, assetID, amount, unit, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	record.Flags().StringVar(&assetID, "asset", "", "asset id")
	record.Flags().IntVar(&amount, "amount", 0, "usage amount")
	record.Flags().StringVar(&unit, "unit", "hours", "usage unit (hours, km, cycles)")
	_ = record.MarkFlagRequired("asset")
	_ = record.MarkFlagRequired("amount")

	cmd := &cobra.Command{Use: "usage", Short: "Track asset usage"}
	cmd.AddCommand(record)
	return cmd
}

func faultCmd() *cobra.Command {
	var assetID, description, impact string
	report := &cobra.Command{
		Use:   "report",
		Short: "Report a fault on an asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				opts := engine.FaultReportOptions{
					AssetID:     assetID,
					Description: description,
					ReporterID:  viper.GetString("actor-id"),
				}
				if impact != "" {
					parsed, err := domain.ParseOperationalImpact(impact)
					if err != nil {
						return err
					}
					opts.Impact = &parsed
				}
				wo, err := a.Engine.ReportFault(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(wo)
			})
		},
	}
	report.Flags().StringVar(&assetID, "asset", "", "asset id")
	report.Flags().StringVar(&description, "description", "", "what is wrong")
	report.Flags().StringVar(&impact, "impact", "", "operational impact (low, medium, high, critical)")
	_ = report.MarkFlagRequired("asset")
	_ = report.MarkFlagRequired("description")

	cmd := &cobra.Command{Use: "fault", Short: "Fault reporting"}
	cmd.AddCommand(report)
	return cmd
}

// inspectionFile is the on-disk format for submitted checklist results.
type inspectionFile struct {
	Tasks []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
		Status      string `json:"status"`
	} `json:"tasks"`
	Notes string `json:"notes,omitempty"`
}

func inspectCmd() *cobra.Command {
	var assetID, file, notes string
	submit := &cobra.Command{
		Use:   "submit",
		Short: "Submit autonomous inspection results",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var in inspectionFile
			if err := json.Unmarshal(data, &in); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}
			tasks := make([]domain.ChecklistTask, 0, len(in.Tasks))
			for _, t := range in.Tasks {
				status, err := domain.ParseTaskStatus(t.Status)
				if err != nil {
					return err
				}
				tasks = append(tasks, domain.ChecklistTask{ID: t.ID, Description: t.Description, Status: status})
			}
			if notes == "" {
				notes = in.Notes
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				result, err := a.Engine.ProcessChecklist(ctx, engine.ChecklistOptions{
					AssetID:    assetID,
					ReporterID: viper.GetString("actor-id"),
					Tasks:      tasks,
					Notes:      notes,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(result)
			})
		},
	}
	submit.Flags().StringVar(&assetID, "asset", "", "asset id")
	submit.Flags().StringVar(&file, "file", "", "JSON file with task results")
	submit.Flags().StringVar(&notes, "notes", "", "additional notes")
	_ = submit.MarkFlagRequired("asset")
	_ = submit.MarkFlagRequired("file")

	cmd := &cobra.Command{Use: "inspect", Short: "Autonomous inspections"}
	cmd.AddCommand(submit)
	return cmd
}

func calendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show the maintenance calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.CalendarEvents(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Start", "Category", "Title"})
				for _, ev := range items {
					tw.AppendRow(table.Row{ev.Start, ev.Category, ev.Title})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func workorderCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "workorder", Short: "Manage work orders"}
	cmd.AddCommand(workorderListCmd())
	cmd.AddCommand(workorderShowCmd())
	cmd.AddCommand(workorderStatusCmd())
	cmd.AddCommand(workorderDelayCmd())
	return cmd
}

func workorderListCmd() *cobra.Command {
	var f repo.WorkOrderFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.ListWorkOrders(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Asset", "Type", "Priority", "Status"})
				for _, wo := range items {
					tw.AppendRow(table.Row{wo.ID, wo.AssetID, wo.Type, wo.Priority, wo.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.AssetID, "asset", "", "asset filter")
	cmd.Flags().StringVar(&f.Type, "type", "", "type filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().BoolVar(&f.OpenOnly, "open", false, "open work orders only")
	return cmd
}

func workorderShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <workorder-id>",
		Short: "Show a work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				wo, err := a.Engine.GetWorkOrder(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(wo)
			})
		},
	}
	return cmd
}

func workorderStatusCmd() *cobra.Command {
	var status, assignedTo string
	cmd := &cobra.Command{
		Use:   "set-status <workorder-id>",
		Short: "Advance a work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := domain.ParseWorkOrderStatus(status)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				wo, err := a.Engine.SetWorkOrderStatus(ctx, engine.StatusChangeOptions{
					WorkOrderID: args[0],
					Status:      parsed,
					AssignedTo:  optionalString(assignedTo),
					ActorID:     viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(wo)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "target status")
	cmd.Flags().StringVar(&assignedTo, "assigned-to", "", "technician id")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func workorderDelayCmd() *cobra.Command {
	var reason, estimate string
	cmd := &cobra.Command{
		Use:   "delay <workorder-id>",
		Short: "Report a delay on a work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				wo, err := a.Engine.ReportDelay(ctx, engine.DelayOptions{
					WorkOrderID: args[0],
					Reason:      reason,
					NewEstimate: estimate,
					ActorID:     viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(wo)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "why the work is delayed")
	cmd.Flags().StringVar(&estimate, "new-estimate", "", "new completion date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func partCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "part", Short: "Manage spare parts"}
	cmd.AddCommand(partAddCmd())
	cmd.AddCommand(partListCmd())
	cmd.AddCommand(partMoveCmd())
	return cmd
}

func partAddCmd() *cobra.Command {
	var code, name string
	var minStock, stock int
	var price float64
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a spare part",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				part, err := a.Engine.CreateSparePart(ctx, engine.PartCreateOptions{
					Code:         code,
					Name:         name,
					MinStock:     minStock,
					InitialStock: stock,
					UnitPrice:    price,
					ActorID:      viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(part)
			})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "unique part code")
	cmd.Flags().StringVar(&name, "name", "", "part name")
	cmd.Flags().IntVar(&minStock, "min-stock", 0, "reorder threshold")
	cmd.Flags().IntVar(&stock, "stock", 0, "initial stock")
	cmd.Flags().Float64Var(&price, "price", 0, "unit price")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func partListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List spare parts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.ListSpareParts(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Code", "Name", "Stock", "Min"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Code, p.Name, p.CurrentStock, p.MinStock})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func partMoveCmd() *cobra.Command {
	var direction, workOrderID string
	var quantity int
	cmd := &cobra.Command{
		Use:   "move <part-id>",
		Short: "Record a stock movement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				part, err := a.Engine.RecordStockMovement(ctx, engine.MovementOptions{
					PartID:      args[0],
					Direction:   direction,
					Quantity:    quantity,
					WorkOrderID: optionalString(workOrderID),
					ActorID:     viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(part)
			})
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "", "in or out")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "quantity moved")
	cmd.Flags().StringVar(&workOrderID, "workorder", "", "related work order id")
	_ = cmd.MarkFlagRequired("direction")
	_ = cmd.MarkFlagRequired("quantity")
	return cmd
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Audit log"}
	cmd.AddCommand(logTailCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				events, err := a.Engine.LatestEvents(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				handler, err := server.New(server.Config{Engine: a.Engine, BasePath: basePath})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving Plantline API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

// --- helpers ---

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.Bootstrap(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
