package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/adapters/postgres"
	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/pkg/config"
)

// ---------------------------------------------------------------------------
// Dataset types
// ---------------------------------------------------------------------------

// Dataset is the on-disk format for a custom seed file. Either section may be
// empty; missing price dates, regions and sources are filled with defaults.
type Dataset struct {
	Rules  []domain.CropRule    `json:"rules"`
	Prices []domain.MarketPrice `json:"prices"`
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

// Usage: seeder [dataset.json] [rules|prices]
//
// With no arguments the built-in agronomy reference dataset is seeded. Pass a
// JSON file to seed custom rules and quotes, or "-" to keep the built-in set.
// The second argument restricts seeding to one section.
func main() {
	cfg, err := config.Load("agroplan-seeder")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	dataset := builtinDataset()
	if len(os.Args) > 1 && os.Args[1] != "-" {
		dataset, err = loadDataset(os.Args[1])
		if err != nil {
			log.Fatalf("dataset: %v", err)
		}
	}
	normalize(&dataset, cfg.Market.Region)

	only := ""
	if len(os.Args) > 2 {
		only = os.Args[2]
	}

	log.Printf("AgroPlan seeder — %d rules, %d prices", len(dataset.Rules), len(dataset.Prices))

	if only != "prices" && len(dataset.Rules) > 0 {
		rules := postgres.NewCropRuleRepo(db)
		if err := rules.UpsertBatch(ctx, dataset.Rules); err != nil {
			log.Fatalf("seed rules: %v", err)
		}
		log.Printf("  rules: %d upserted", len(dataset.Rules))
	}

	if only != "rules" && len(dataset.Prices) > 0 {
		prices := postgres.NewMarketPriceRepo(db)
		if err := prices.InsertBatch(ctx, dataset.Prices); err != nil {
			log.Fatalf("seed prices: %v", err)
		}
		log.Printf("  prices: %d inserted", len(dataset.Prices))
	}

	log.Println("seeding complete")
}

func loadDataset(path string) (Dataset, error) {
	var ds Dataset
	data, err := os.ReadFile(path)
	if err != nil {
		return ds, err
	}
	err = json.Unmarshal(data, &ds)
	return ds, err
}

// normalize fills defaults on price rows so hand-written seed files can omit
// boilerplate columns.
func normalize(ds *Dataset, region string) {
	baseline := time.Now().UTC().Truncate(24 * time.Hour)
	for i := range ds.Prices {
		if ds.Prices[i].Date.IsZero() {
			ds.Prices[i].Date = baseline
		}
		if ds.Prices[i].Region == "" {
			ds.Prices[i].Region = region
		}
		if ds.Prices[i].Source == "" {
			ds.Prices[i].Source = "ministry feed"
		}
	}
}

// ---------------------------------------------------------------------------
// Built-in dataset
// ---------------------------------------------------------------------------

// builtinDataset returns the reference rotation rules for the field crops of
// the temperate zone, plus one baseline quote per crop derived from the
// rule's reference price.
func builtinDataset() Dataset {
	rules := []domain.CropRule{
		{
			Crop:             "winter wheat",
			Family:           "Poaceae",
			GoodPredecessors: []string{"peas", "alfalfa", "clover", "silage corn", "potato"},
			BadPredecessors:  []string{"winter wheat", "spring wheat", "spring barley", "oats", "sunflower", "sugar beet"},
			Successors:       []string{"corn (grain)", "sunflower", "spring rapeseed", "peas", "soybean"},
			NitrogenEffect:   "neutral",
			SoilPreference:   []string{"chernozem", "loam"},
			WaterNeed:        "medium",
			TempMin:          -15, TempMax: 25, GrowingDays: 280, PHMin: 6.0, PHMax: 7.5,
			FertilizerN: 120, FertilizerP: 60, FertilizerK: 60,
			MarketPrice: 15000, YieldPotential: 4.5,
		},
		{
			Crop:             "spring wheat",
			Family:           "Poaceae",
			GoodPredecessors: []string{"peas", "soybean", "alfalfa", "corn (grain)", "potato"},
			BadPredecessors:  []string{"winter wheat", "spring wheat", "spring barley", "oats"},
			Successors:       []string{"peas", "soybean", "corn (grain)", "spring rapeseed"},
			NitrogenEffect:   "neutral",
			SoilPreference:   []string{"loam", "chernozem"},
			WaterNeed:        "medium",
			TempMin:          5, TempMax: 30, GrowingDays: 100, PHMin: 6.0, PHMax: 7.5,
			FertilizerN: 100, FertilizerP: 50, FertilizerK: 50,
			MarketPrice: 14000, YieldPotential: 3.5,
		},
		{
			Crop:             "spring barley",
			Family:           "Poaceae",
			GoodPredecessors: []string{"peas", "soybean", "potato", "corn (grain)", "sugar beet"},
			BadPredecessors:  []string{"spring barley", "winter wheat", "spring wheat", "oats"},
			Successors:       []string{"peas", "soybean", "corn (grain)", "spring rapeseed"},
			NitrogenEffect:   "neutral",
			SoilPreference:   []string{"loam", "chernozem", "sandy"},
			WaterNeed:        "low",
			TempMin:          5, TempMax: 30, GrowingDays: 85, PHMin: 5.5, PHMax: 7.5,
			FertilizerN: 80, FertilizerP: 40, FertilizerK: 40,
			MarketPrice: 12000, YieldPotential: 3.0,
		},
		{
			Crop:             "oats",
			Family:           "Poaceae",
			GoodPredecessors: []string{"peas", "soybean", "potato", "corn (grain)", "flax"},
			BadPredecessors:  []string{"oats", "winter wheat", "spring wheat", "spring barley"},
			Successors:       []string{"peas", "soybean", "potato", "flax"},
			NitrogenEffect:   "neutral",
			SoilPreference:   []string{"loam", "clay"},
			WaterNeed:        "high",
			TempMin:          5, TempMax: 25, GrowingDays: 100, PHMin: 5.0, PHMax: 7.0,
			FertilizerN: 70, FertilizerP: 35, FertilizerK: 35,
			MarketPrice: 11000, YieldPotential: 2.5,
		},
		{
			Crop:             "peas",
			Family:           "Fabaceae",
			GoodPredecessors: []string{"winter wheat", "spring wheat", "spring barley", "oats", "corn (grain)", "potato"},
			BadPredecessors:  []string{"peas", "soybean", "alfalfa", "sunflower"},
			Successors:       []string{"winter wheat", "spring barley", "corn (grain)"},
			NitrogenEffect:   "fixes nitrogen",
			SoilPreference:   []string{"loam", "chernozem"},
			WaterNeed:        "medium",
			TempMin:          8, TempMax: 25, GrowingDays: 90, PHMin: 6.0, PHMax: 7.5,
			FertilizerN: 30, FertilizerP: 60, FertilizerK: 60,
			MarketPrice: 25000, YieldPotential: 2.5,
		},
		{
			Crop:             "soybean",
			Family:           "Fabaceae",
			GoodPredecessors: []string{"winter wheat", "spring wheat", "spring barley", "oats", "corn (grain)", "alfalfa"},
			BadPredecessors:  []string{"soybean", "peas", "alfalfa", "sunflower"},
			Successors:       []string{"winter wheat", "corn (grain)", "spring barley"},
			NitrogenEffect:   "fixes nitrogen",
			SoilPreference:   []string{"loam", "chernozem"},
			WaterNeed:        "medium",
			TempMin:          15, TempMax: 30, GrowingDays: 120, PHMin: 6.0, PHMax: 7.0,
			FertilizerN: 40, FertilizerP: 80, FertilizerK: 80,
			MarketPrice: 35000, YieldPotential: 2.0,
		},
		{
			Crop:             "alfalfa",
			Family:           "Fabaceae",
			GoodPredecessors: []string{"winter wheat", "spring wheat", "spring barley", "oats", "corn (grain)", "potato"},
			BadPredecessors:  []string{"alfalfa", "peas", "soybean"},
			Successors:       []string{"winter wheat", "spring wheat", "corn (grain)", "sunflower"},
			NitrogenEffect:   "fixes nitrogen strongly",
			SoilPreference:   []string{"loam", "chernozem"},
			WaterNeed:        "high",
			TempMin:          5, TempMax: 30, GrowingDays: 365, PHMin: 6.5, PHMax: 7.5,
			FertilizerN: 0, FertilizerP: 60, FertilizerK: 60,
			MarketPrice: 18000, YieldPotential: 8.0,
		},
		{
			Crop:             "sunflower",
			Family:           "Asteraceae",
			GoodPredecessors: []string{"winter wheat", "peas", "soybean", "corn (grain)"},
			BadPredecessors:  []string{"sunflower", "sugar beet", "spring rapeseed", "flax"},
			Successors:       []string{"winter wheat", "peas", "soybean", "corn (grain)"},
			NitrogenEffect:   "heavy consumer",
			SoilPreference:   []string{"chernozem", "loam"},
			WaterNeed:        "low",
			TempMin:          10, TempMax: 30, GrowingDays: 120, PHMin: 6.0, PHMax: 7.5,
			FertilizerN: 80, FertilizerP: 60, FertilizerK: 120,
			MarketPrice: 45000, YieldPotential: 2.5,
		},
		{
			Crop:             "spring rapeseed",
			Family:           "Brassicaceae",
			GoodPredecessors: []string{"winter wheat", "spring wheat", "spring barley", "oats", "peas", "potato"},
			BadPredecessors:  []string{"spring rapeseed", "cabbage", "radish"},
			Successors:       []string{"winter wheat", "spring barley", "peas", "corn (grain)"},
			NitrogenEffect:   "neutral",
			SoilPreference:   []string{"loam", "chernozem"},
			WaterNeed:        "medium",
			TempMin:          5, TempMax: 25, GrowingDays: 110, PHMin: 6.0, PHMax: 7.5,
			FertilizerN: 120, FertilizerP: 60, FertilizerK: 120,
			MarketPrice: 28000, YieldPotential: 2.0,
		},
		{
			Crop:             "flax",
			Family:           "Linaceae",
			GoodPredecessors: []string{"winter wheat", "peas", "soybean", "potato"},
			BadPredecessors:  []string{"flax", "sunflower", "sugar beet"},
			Successors:       []string{"winter wheat", "peas", "corn (grain)"},
			NitrogenEffect:   "neutral",
			SoilPreference:   []string{"loam"},
			WaterNeed:        "medium",
			TempMin:          10, TempMax: 25, GrowingDays: 90, PHMin: 6.0, PHMax: 7.0,
			FertilizerN: 60, FertilizerP: 40, FertilizerK: 60,
			MarketPrice: 30000, YieldPotential: 1.5,
		},
		{
			Crop:             "potato",
			Family:           "Solanaceae",
			GoodPredecessors: []string{"winter wheat", "peas", "soybean", "cabbage", "cucumbers"},
			BadPredecessors:  []string{"potato", "sunflower", "tomatoes"},
			Successors:       []string{"winter wheat", "peas", "soybean", "flax"},
			NitrogenEffect:   "neutral",
			SoilPreference:   []string{"sandy", "loam"},
			WaterNeed:        "high",
			TempMin:          10, TempMax: 25, GrowingDays: 120, PHMin: 5.0, PHMax: 6.5,
			FertilizerN: 100, FertilizerP: 80, FertilizerK: 150,
			MarketPrice: 20000, YieldPotential: 25.0,
		},
		{
			Crop:             "sugar beet",
			Family:           "Amaranthaceae",
			GoodPredecessors: []string{"winter wheat", "peas", "soybean", "corn (grain)"},
			BadPredecessors:  []string{"sugar beet", "sunflower", "spring rapeseed"},
			Successors:       []string{"winter wheat", "peas", "spring barley"},
			NitrogenEffect:   "heavy consumer",
			SoilPreference:   []string{"chernozem", "loam"},
			WaterNeed:        "high",
			TempMin:          8, TempMax: 25, GrowingDays: 160, PHMin: 6.5, PHMax: 7.5,
			FertilizerN: 120, FertilizerP: 80, FertilizerK: 150,
			MarketPrice: 18000, YieldPotential: 45.0,
		},
		{
			Crop:             "corn (grain)",
			Family:           "Poaceae",
			GoodPredecessors: []string{"peas", "soybean", "alfalfa", "winter wheat", "potato"},
			BadPredecessors:  []string{"corn (grain)", "sunflower", "sugar beet"},
			Successors:       []string{"peas", "soybean", "winter wheat", "spring barley"},
			NitrogenEffect:   "heavy consumer",
			SoilPreference:   []string{"chernozem", "loam"},
			WaterNeed:        "medium",
			TempMin:          15, TempMax: 35, GrowingDays: 130, PHMin: 6.0, PHMax: 7.5,
			FertilizerN: 150, FertilizerP: 70, FertilizerK: 90,
			MarketPrice: 12000, YieldPotential: 6.0,
		},
		{
			Crop:             "buckwheat",
			Family:           "Polygonaceae",
			GoodPredecessors: []string{"winter wheat", "peas", "soybean", "potato"},
			BadPredecessors:  []string{"buckwheat", "sunflower", "sugar beet"},
			Successors:       []string{"winter wheat", "peas", "spring barley"},
			NitrogenEffect:   "mobilizes phosphorus",
			SoilPreference:   []string{"sandy", "loam"},
			WaterNeed:        "medium",
			TempMin:          15, TempMax: 25, GrowingDays: 80, PHMin: 5.5, PHMax: 7.0,
			FertilizerN: 60, FertilizerP: 40, FertilizerK: 60,
			MarketPrice: 32000, YieldPotential: 1.5,
		},
	}

	prices := make([]domain.MarketPrice, 0, len(rules))
	for _, r := range rules {
		prices = append(prices, domain.MarketPrice{Crop: r.Crop, Price: r.MarketPrice})
	}

	return Dataset{Rules: rules, Prices: prices}
}
