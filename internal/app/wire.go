//go:build wireinject
// +build wireinject

package app

import (
	"log/slog"

	"github.com/google/wire"

	"voicepipe/internal/config"
)

// InitializeApplication assembles the full pipeline from configuration.
func InitializeApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	wire.Build(
		provideStore,
		provideBlobStore,
		provideSpeechClient,
		provideExtractClient,
		provideSessionStore,
		provideFlows,
		provideRegistry,
		newApplication,
	)
	return &Application{}, nil
}
