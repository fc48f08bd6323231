// Package gfslog wraps zap the way the teacher's lib/logger package does:
// a named, sugared logger constructed once per component (master,
// chunkserver-rpc, client, ...) and passed around as a package-level var.
package gfslog

import (
	"go.uber.org/zap"
)

// Logger is a thin alias over zap's SugaredLogger so call sites read
// log.Info(...), log.Infow(...), log.Errorw(...) exactly as the teacher's did.
type Logger struct {
	*zap.SugaredLogger
}

// New builds a production zap logger named after component, e.g.
// "master", "chunkserver-rpc", "client".
func New(component string) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	named := base.Named(component).Sugar()
	return &Logger{SugaredLogger: named}, nil
}

// NewDevelopment builds a human-readable console logger, used by the
// CLI client where log output shares a terminal with the user.
func NewDevelopment(component string) (*Logger, error) {
	base, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}

	named := base.Named(component).Sugar()
	return &Logger{SugaredLogger: named}, nil
}
