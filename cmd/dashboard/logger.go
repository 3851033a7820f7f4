package main

import (
	"go.uber.org/zap"

	"github.com/ecotrack/energy-dashboard/internal/config"
	"github.com/ecotrack/energy-dashboard/internal/logging"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName)
}
