package config

import "go.uber.org/zap"

// NewLogger returns a JSON production logger in release environments and a
// human-readable development logger otherwise.
func NewLogger(app App) (*zap.Logger, error) {
	if app.Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
