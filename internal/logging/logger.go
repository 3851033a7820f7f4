package logging

import (
	"go.uber.org/zap"
)

// NewLogger creates a new structured logger
func NewLogger(serviceName string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.InitialFields = map[string]interface{}{
		"service": serviceName,
	}

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return logger, nil
}

// WithProject returns a logger scoped to a project, or unchanged for the
// all-projects view.
func WithProject(logger *zap.Logger, projectID *int64) *zap.Logger {
	if projectID == nil {
		return logger
	}
	return logger.With(zap.Int64("project_id", *projectID))
}
