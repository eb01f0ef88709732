package main

import (
	"context"
	"log"

	"bant-agent-be/internal/bootstrap"
	"bant-agent-be/internal/config"
	"bant-agent-be/internal/model"
	"bant-agent-be/internal/server"
	"bant-agent-be/internal/tracer"
	"bant-agent-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database (optional: interviews run without one)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		if err := db.AutoMigrate(&model.QualificationResult{}, &model.InterviewSession{}); err != nil {
			log.Panicf("Unable to migrate schema: %v", err)
		}
		gormDB = db
	} else {
		log.Println("[INFO] DB_CONNECTION_STRING not set, running without durable results")
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
