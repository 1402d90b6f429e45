package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.temporal.io/sdk/client"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/pkg/metrics"
)

// RegistryStats holds totals across the whole field registry.
type RegistryStats struct {
	Fields       int     `json:"fields"`
	TotalAreaHa  float64 `json:"total_area_ha"`
	History      int     `json:"history_records"`
	Rules        int     `json:"crop_rules"`
	Prices       int     `json:"market_prices"`
	Observations int     `json:"climate_observations"`
	Plans        int     `json:"season_plans"`
}

// OverviewStatsHandler returns row counts from the registry tables.
func OverviewStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats RegistryStats
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM fields),
				COALESCE((SELECT sum(area_ha) FROM fields), 0),
				(SELECT count(*) FROM crop_history),
				(SELECT count(*) FROM crop_rules),
				(SELECT count(*) FROM market_prices),
				(SELECT count(*) FROM climate_data),
				(SELECT count(*) FROM season_plans)
		`)
		if err := row.Scan(&stats.Fields, &stats.TotalAreaHa, &stats.History,
			&stats.Rules, &stats.Prices, &stats.Observations, &stats.Plans); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

// CreateFieldHandler registers a new field from a sketched boundary.
func CreateFieldHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var field domain.Field
		if err := c.BodyParser(&field); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if field.Name == "" {
			return errBadRequest(c, "field name is required")
		}

		if err := deps.Fields.Create(c.Context(), &field); err != nil {
			return errBadRequest(c, err.Error())
		}

		metrics.FieldsRegistered.Inc()
		return c.Status(201).JSON(field)
	}
}

// ListFieldsHandler returns registered fields, paged.
func ListFieldsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		fields, total, err := deps.Fields.List(c.Context(), offset, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: fields, Pagination: pg})
	}
}

// NearbyFieldsHandler returns fields within a radius of a point.
func NearbyFieldsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lng := c.QueryFloat("lng", 0)
		radius := c.QueryFloat("radius", 5000)
		limit := c.QueryInt("limit", 50)

		if lat == 0 || lng == 0 {
			return errBadRequest(c, "lat and lng are required")
		}
		if radius <= 0 || radius > 50000 {
			return errBadRequest(c, "radius must be between 1 and 50000 meters")
		}
		if limit <= 0 || limit > 100 {
			limit = 50
		}

		fields, err := deps.Fields.FindNearby(c.Context(), lat, lng, radius, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(fields)
	}
}

// SearchFieldsHandler performs fuzzy search on field names.
func SearchFieldsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		limit := c.QueryInt("limit", 20)
		if limit <= 0 || limit > 50 {
			limit = 20
		}

		fields, err := deps.Fields.Search(c.Context(), query, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		return c.JSON(fields)
	}
}

// GetFieldHandler returns a single field by ID.
func GetFieldHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "field id is required")
		}
		field, err := deps.Fields.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "field not found")
		}
		return c.JSON(field)
	}
}

// UpdateFieldHandler replaces a field's name, boundary or soil data.
func UpdateFieldHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "field id is required")
		}

		var field domain.Field
		if err := c.BodyParser(&field); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if field.Name == "" {
			return errBadRequest(c, "field name is required")
		}
		field.ID = id

		if err := deps.Fields.Update(c.Context(), &field); err != nil {
			return errNotFound(c, "field not found")
		}
		return c.JSON(field)
	}
}

// DeleteFieldHandler removes a field.
func DeleteFieldHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "field id is required")
		}
		if err := deps.Fields.Delete(c.Context(), id); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// FieldHistoryHandler returns the crop history of a field, newest first.
func FieldHistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "field id is required")
		}
		records, err := deps.Stats.History(c.Context(), id)
		if err != nil {
			return errNotFound(c, "field not found")
		}
		return c.JSON(records)
	}
}

// AddHistoryRecordHandler appends one season of crop history to a field.
func AddHistoryRecordHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "field id is required")
		}

		var record domain.CropRecord
		if err := c.BodyParser(&record); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		record.FieldID = id

		if err := deps.Stats.AddRecord(c.Context(), &record); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(record)
	}
}

// DeleteHistoryRecordHandler removes a crop history record from a field.
func DeleteHistoryRecordHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fieldID := c.Params("id")
		recordID := c.Params("recordId")
		if fieldID == "" || recordID == "" {
			return errBadRequest(c, "field id and record id are required")
		}
		if err := deps.Stats.DeleteRecord(c.Context(), fieldID, recordID); err != nil {
			return errNotFound(c, "field or record not found")
		}
		return c.SendStatus(204)
	}
}

// FieldStatsHandler returns per-crop yield statistics for a field.
func FieldStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "field id is required")
		}
		stats, err := deps.Stats.YieldStats(c.Context(), id)
		if err != nil {
			return errNotFound(c, "field not found")
		}
		return c.JSON(stats)
	}
}

// RecommendationsHandler scores candidate crops for a field's next season.
func RecommendationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "field id is required")
		}
		recs, err := deps.Rotation.Recommend(c.Context(), id)
		if err != nil {
			return errNotFound(c, "field not found")
		}

		metrics.RecommendationsServed.Inc()
		return c.JSON(recs)
	}
}

// AdviceHandler returns agronomic advice for planting a crop on a field.
func AdviceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "field id is required")
		}
		crop := c.Query("crop")
		if crop == "" {
			return errBadRequest(c, "crop query parameter is required")
		}
		month := c.QueryInt("month", 0)

		advice, err := deps.Rotation.Advise(c.Context(), id, crop, month)
		if err != nil {
			return errNotFound(c, "field not found")
		}
		return c.JSON(advice)
	}
}

// ForecastHandler predicts the yield of a crop on a field from recent climate.
func ForecastHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "field id is required")
		}
		crop := c.Query("crop")
		if crop == "" {
			return errBadRequest(c, "crop query parameter is required")
		}

		forecast, err := deps.Rotation.PredictYield(c.Context(), id, crop)
		if err != nil {
			return errNotFound(c, err.Error())
		}
		return c.JSON(forecast)
	}
}

// ProfitabilityHandler prices a season of a crop on a field.
func ProfitabilityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "field id is required")
		}
		crop := c.Query("crop")
		if crop == "" {
			return errBadRequest(c, "crop query parameter is required")
		}

		report, err := deps.Economics.Profitability(c.Context(), id, crop)
		if err != nil {
			return errNotFound(c, err.Error())
		}
		return c.JSON(report)
	}
}

// FieldClimateHandler returns stored climate records for a field.
// from/to accept YYYY-MM-DD and default to the last 30 days.
func FieldClimateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "field id is required")
		}

		var from, to time.Time
		if raw := c.Query("from"); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return errBadRequest(c, "from must be YYYY-MM-DD")
			}
			from = t
		}
		if raw := c.Query("to"); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return errBadRequest(c, "to must be YYYY-MM-DD")
			}
			to = t
		}

		records, err := deps.Weather.ClimateRange(c.Context(), id, from, to)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(records)
	}
}

// FieldPlansHandler returns the season plans stored for a field.
func FieldPlansHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "field id is required")
		}
		plans, err := deps.Planning.ListByField(c.Context(), id)
		if err != nil {
			return errNotFound(c, "field not found")
		}
		return c.JSON(plans)
	}
}

// WeatherCurrentHandler returns the current conditions at a coordinate.
func WeatherCurrentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lng := c.QueryFloat("lng", 0)

		if lat == 0 || lng == 0 {
			return errBadRequest(c, "lat and lng are required")
		}
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return errBadRequest(c, "coordinates out of range")
		}

		snapshot, err := deps.Weather.Current(c.Context(), lat, lng)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(snapshot)
	}
}

// MarketPriceHandler quotes the current price of a crop.
func MarketPriceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		crop := c.Params("crop")
		if crop == "" {
			return errBadRequest(c, "crop is required")
		}
		region := c.Query("region")

		price, err := deps.Market.Current(c.Context(), crop, region)
		if err != nil {
			return errNotFound(c, err.Error())
		}
		return c.JSON(price)
	}
}

// MarketTrendHandler summarizes recent price movement for a crop.
func MarketTrendHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		crop := c.Params("crop")
		if crop == "" {
			return errBadRequest(c, "crop is required")
		}
		region := c.Query("region")
		days := c.QueryInt("days", 30)

		trend, err := deps.Market.Trend(c.Context(), crop, region, days)
		if err != nil {
			return errNotFound(c, err.Error())
		}
		return c.JSON(trend)
	}
}

// RecordPriceHandler stores a market quote and broadcasts it.
func RecordPriceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var price domain.MarketPrice
		if err := c.BodyParser(&price); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		if err := deps.Market.RecordPrice(c.Context(), &price); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(price)
	}
}

// ListCropsHandler returns all known rotation rules.
func ListCropsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rules, err := deps.Rotation.Rules(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(rules)
	}
}

// GetCropHandler returns the rotation rule for a single crop.
func GetCropHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		crop := c.Params("crop")
		if crop == "" {
			return errBadRequest(c, "crop is required")
		}
		rule, err := deps.Rotation.Rule(c.Context(), crop)
		if err != nil {
			return errNotFound(c, "crop not found")
		}
		return c.JSON(rule)
	}
}

// SketchEventHandler applies one polygon edit gesture and returns the
// recomputed figures. Delete gestures answer with a confirmation only.
func SketchEventHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var event domain.PolygonEditEvent
		if err := c.BodyParser(&event); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		sketch, err := deps.Sketches.Apply(c.Context(), &event)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		metrics.SketchEvents.WithLabelValues(string(event.Kind)).Inc()

		if sketch == nil {
			return c.JSON(fiber.Map{"status": "deleted", "sketch_id": event.SketchID})
		}
		return c.JSON(sketch)
	}
}

// GetSketchHandler returns the live state of an in-progress sketch.
func GetSketchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "sketch id is required")
		}
		sketch, err := deps.Sketches.Get(c.Context(), id)
		if err != nil {
			return errNotFound(c, "sketch not found")
		}
		return c.JSON(sketch)
	}
}

// DiscardSketchHandler drops a sketch without registering a field.
func DiscardSketchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "sketch id is required")
		}
		deps.Sketches.Discard(c.Context(), id)
		return c.SendStatus(204)
	}
}

// planRequest is the body for POST /v1/plans.
type planRequest struct {
	FieldID string `json:"field_id"`
	Crop    string `json:"crop"` // empty lets the workflow pick
	Year    int    `json:"year"`
}

// StartPlanHandler starts the season planning workflow and answers 202 with
// the workflow IDs. The plan itself is stored asynchronously.
func StartPlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req planRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.FieldID == "" {
			return errBadRequest(c, "field_id is required")
		}
		if req.Year == 0 {
			req.Year = time.Now().Year()
		}

		if deps.Temporal == nil {
			return errUnavailable(c, "season planning is unavailable: workflow engine not connected")
		}

		// One workflow per field and year. Re-posting the same season
		// joins the running workflow instead of planning twice.
		opts := client.StartWorkflowOptions{
			ID:        fmt.Sprintf("season-plan-%s-%d", req.FieldID, req.Year),
			TaskQueue: deps.TaskQueue,
		}

		// The workflow is registered by function name on the planner worker.
		run, err := deps.Temporal.ExecuteWorkflow(c.Context(), opts, "SeasonPlanWorkflow", struct {
			FieldID string
			Crop    string
			Year    int
		}{req.FieldID, req.Crop, req.Year})
		if err != nil {
			return errInternal(c, err.Error())
		}

		return c.Status(202).JSON(fiber.Map{
			"status":      "planning",
			"workflow_id": run.GetID(),
			"run_id":      run.GetRunID(),
		})
	}
}
