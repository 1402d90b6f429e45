package main

import (
	"context"
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/MintRaspberry/AgroPlan2/internal/adapters/nats"
	"github.com/MintRaspberry/AgroPlan2/internal/adapters/postgres"
	"github.com/MintRaspberry/AgroPlan2/internal/core/ports"
	"github.com/MintRaspberry/AgroPlan2/internal/core/usecases"
	"github.com/MintRaspberry/AgroPlan2/internal/pkg/config"
	"github.com/MintRaspberry/AgroPlan2/internal/workflows"
)

func main() {
	cfg, err := config.Load("agroplan-planner")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := postgres.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	fieldRepo := postgres.NewFieldRepo(db)
	historyRepo := postgres.NewCropHistoryRepo(db)
	ruleRepo := postgres.NewCropRuleRepo(db)
	climateRepo := postgres.NewClimateRepo(db)
	planRepo := postgres.NewSeasonPlanRepo(db)

	// The notify activity logs instead of publishing when NATS is down, so
	// the worker stays up without it.
	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		log.Printf("WARN nats unavailable, plan notifications disabled: %v", err)
	} else {
		publisher = pub
		defer pub.Close()
	}

	rotation := usecases.NewRotationService(fieldRepo, historyRepo, ruleRepo, climateRepo, nil)
	planning := usecases.NewPlanningService(planRepo, fieldRepo)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.SeasonPlanWorkflow)
	w.RegisterActivity(&workflows.SeasonPlanActivities{
		Planning:  planning,
		Rotation:  rotation,
		Fields:    fieldRepo,
		Climate:   climateRepo,
		Publisher: publisher,
	})

	log.Println("planner worker started")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
