package main

import (
	"context"
	"log"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/bootstrap"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/config"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/server"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/tracer"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Logger.Sync()

	// The worker consumes consultation rounds from the in-process queue.
	go func() {
		log.Println("Background: Starting Consultation Worker...")
		if err := container.WorkerService.Consume(context.Background()); err != nil {
			log.Printf("Background Worker Error: %v", err)
		}
	}()

	srv := server.New(cfg, container)

	log.Fatal(srv.Run())
}
