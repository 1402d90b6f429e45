package domain

import (
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/pkg/geospatial"
)

// Field represents a registered farm field with its sketched boundary.
type Field struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	AreaHa      float64            `json:"area_ha"`
	Centroid    geospatial.Point   `json:"centroid"`
	Polygon     []geospatial.Point `json:"polygon,omitempty"`
	Bounds      *Bounds            `json:"bounds,omitempty"`
	SoilType    string             `json:"soil_type"`
	ClimateZone string             `json:"climate_zone"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
	Distance    *float64           `json:"distance,omitempty"` // computed field, meters
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Climate zones assigned to fields.
const (
	ZoneCold      = "cold"
	ZoneTemperate = "temperate"
	ZoneWarm      = "warm"
)

// CropRecord is one season of crop history on a field.
type CropRecord struct {
	ID        string    `json:"id"`
	FieldID   string    `json:"field_id"`
	Crop      string    `json:"crop"`
	Year      int       `json:"year"`
	Season    string    `json:"season,omitempty"`
	YieldTPha float64   `json:"yield_t_ha,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CropRule is the rotation knowledge for a single crop.
type CropRule struct {
	Crop             string   `json:"crop"`
	Family           string   `json:"family"`
	GoodPredecessors []string `json:"good_predecessors"`
	BadPredecessors  []string `json:"bad_predecessors"`
	Successors       []string `json:"successors"`
	NitrogenEffect   string   `json:"nitrogen_effect"`
	SoilPreference   []string `json:"soil_preference"`
	WaterNeed        string   `json:"water_need"`
	TempMin          float64  `json:"temp_min"`
	TempMax          float64  `json:"temp_max"`
	GrowingDays      int      `json:"growing_days"`
	PHMin            float64  `json:"ph_min"`
	PHMax            float64  `json:"ph_max"`
	FertilizerN      float64  `json:"fertilizer_n"` // kg/ha
	FertilizerP      float64  `json:"fertilizer_p"`
	FertilizerK      float64  `json:"fertilizer_k"`
	MarketPrice      float64  `json:"market_price"`    // per tonne
	YieldPotential   float64  `json:"yield_potential"` // t/ha
}

// MarketPrice is a quoted price for a crop in a region.
type MarketPrice struct {
	ID     string    `json:"id,omitempty"`
	Crop   string    `json:"crop"`
	Price  float64   `json:"price"` // per tonne
	Date   time.Time `json:"date"`
	Region string    `json:"region"`
	Source string    `json:"source,omitempty"`
}

// PriceTrend summarizes recent price movement for a crop.
type PriceTrend struct {
	Crop      string        `json:"crop"`
	Region    string        `json:"region"`
	Direction string        `json:"direction"` // up, down or flat
	ChangePct float64       `json:"change_pct"`
	Series    []MarketPrice `json:"series"`
}

// ClimateRecord is one day of observed weather on a field.
type ClimateRecord struct {
	ID             string    `json:"id,omitempty"`
	FieldID        string    `json:"field_id"`
	Date           time.Time `json:"date"`
	TempAvg        float64   `json:"temp_avg"`
	TempMin        float64   `json:"temp_min"`
	TempMax        float64   `json:"temp_max"`
	Precipitation  float64   `json:"precipitation"` // mm
	Humidity       float64   `json:"humidity"`
	WindSpeed      float64   `json:"wind_speed"`
	SolarRadiation float64   `json:"solar_radiation,omitempty"`
}

// ClimateSummary aggregates a season of climate records on a field.
type ClimateSummary struct {
	FieldID            string  `json:"field_id"`
	Days               int     `json:"days"`
	AvgTemp            float64 `json:"avg_temp"`
	TotalPrecipitation float64 `json:"total_precipitation"`
}

// WeatherSnapshot is the current conditions at a coordinate.
type WeatherSnapshot struct {
	Location      geospatial.Point `json:"location"`
	Temp          float64          `json:"temp"`
	FeelsLike     float64          `json:"feels_like"`
	Humidity      float64          `json:"humidity"`
	Pressure      float64          `json:"pressure"`
	WindSpeed     float64          `json:"wind_speed"`
	Precipitation float64          `json:"precipitation"`
	Condition     string           `json:"condition"`
	ObservedAt    time.Time        `json:"observed_at"`
	Mock          bool             `json:"mock,omitempty"`
}

// Recommendation scores a candidate crop for a field.
type Recommendation struct {
	Crop    string   `json:"crop"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// Advice is one agronomic suggestion for a field and target crop.
type Advice struct {
	Level   string `json:"level"` // warning, success or info
	Title   string `json:"title"`
	Message string `json:"message"`
}

// YieldStat aggregates historical yields of one crop on a field.
type YieldStat struct {
	Crop     string  `json:"crop"`
	AvgYield float64 `json:"avg_yield"` // t/ha
	Seasons  int     `json:"seasons"`
}

// YieldForecast is a climate-adjusted yield prediction.
type YieldForecast struct {
	Crop         string  `json:"crop"`
	BaseYield    float64 `json:"base_yield"` // t/ha
	TempFactor   float64 `json:"temp_factor"`
	PrecipFactor float64 `json:"precip_factor"`
	Predicted    float64 `json:"predicted"` // t/ha
}

// Profitability is the season economics of growing a crop on a field.
type Profitability struct {
	Crop             string  `json:"crop"`
	AreaHa           float64 `json:"area_ha"`
	ExpectedYield    float64 `json:"expected_yield"` // t/ha
	PricePerTonne    float64 `json:"price_per_tonne"`
	RevenuePerHa     float64 `json:"revenue_per_ha"`
	FertilizerCost   float64 `json:"fertilizer_cost_per_ha"`
	FixedCost        float64 `json:"fixed_cost_per_ha"`
	CostsPerHa       float64 `json:"costs_per_ha"`
	ProfitPerHa      float64 `json:"profit_per_ha"`
	ProfitabilityPct float64 `json:"profitability_percent"`
	RevenueTotal     float64 `json:"total_revenue"`
	ProfitTotal      float64 `json:"total_profit"`
}

// SeasonPlan records a planned crop for a field and year.
type SeasonPlan struct {
	ID        string    `json:"id"`
	FieldID   string    `json:"field_id"`
	Crop      string    `json:"crop"`
	Year      int       `json:"year"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
