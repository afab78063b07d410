package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devflow-ai/devflow/internal/config"
	"github.com/devflow-ai/devflow/internal/gateway"
	"github.com/devflow-ai/devflow/internal/orchestrator"
	"github.com/devflow-ai/devflow/internal/store"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("[devflow] invalid log level %q: %v", cfg.LogLevel, err)
	}
	logger.SetLevel(level)

	database, err := store.OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("[devflow] %v", err)
	}
	defer database.Close()

	if err := store.InitSchema(database); err != nil {
		log.Fatalf("[devflow] failed to init schema: %v", err)
	}

	st := store.New(database)
	if err := st.SeedDefaultModel(cfg.GeminiAPIKey); err != nil {
		log.Fatalf("[devflow] failed to seed default model: %v", err)
	}

	orch := orchestrator.New(cfg.ProviderTimeout, logger)
	comp := &orchestrator.Compressor{Orchestrator: orch, Store: st, Logger: logger}

	gin.SetMode(gin.ReleaseMode)
	server := gateway.New(st, orch, comp, logger)

	logger.WithFields(logrus.Fields{
		"addr":    cfg.Addr,
		"db_path": cfg.DBPath,
	}).Info("devflow server starting")
	if err := server.Router().Run(cfg.Addr); err != nil {
		log.Fatalf("[devflow] server stopped: %v", err)
	}
}
