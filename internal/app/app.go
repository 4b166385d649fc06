// Package app assembles the pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"voicepipe/internal/api/server"
	"voicepipe/internal/api/v1/routes"
	"voicepipe/internal/api/v1/services"
	"voicepipe/internal/app/api/extract"
	"voicepipe/internal/app/api/speech"
	"voicepipe/internal/app/crm"
	"voicepipe/internal/app/crm/salesforce"
	"voicepipe/internal/app/events"
	"voicepipe/internal/app/oauth"
	"voicepipe/internal/app/repository"
	"voicepipe/internal/app/repository/pg"
	"voicepipe/internal/app/repository/sqlite"
	"voicepipe/internal/app/storage"
	"voicepipe/internal/config"
)

// Application bundles the running pieces so the command layer can start and
// stop them together.
type Application struct {
	Server    *server.Server
	Store     repository.Store
	Publisher events.Publisher
	logger    *slog.Logger
}

// Shutdown drains the HTTP server, lets in-flight events finish and closes
// the store.
func (a *Application) Shutdown(ctx context.Context) error {
	err := a.Server.Shutdown(ctx)

	if inproc, ok := a.Publisher.(*events.InProcess); ok {
		inproc.Wait()
	}
	if closer, ok := a.Publisher.(interface{ Close() error }); ok {
		if cerr := closer.Close(); cerr != nil {
			a.logger.Error("failed to close event transport", "error", cerr)
		}
	}
	if cerr := a.Store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func provideStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return pg.Open(cfg.Database.DSN)
	case "sqlite3":
		return sqlite.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func provideBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	return storage.NewMinioStore(cfg.Minio)
}

func provideSpeechClient(cfg *config.Config) speech.Client {
	return speech.NewOpenAIClient(cfg.OpenAIKey, "", cfg.SpeechModel)
}

func provideExtractClient(cfg *config.Config) extract.Client {
	return extract.NewOpenAIClient(cfg.OpenAIKey, "", cfg.ExtractModel)
}

func provideSessionStore(cfg *config.Config) oauth.SessionStore {
	if cfg.RedisAddr == "" {
		return oauth.NewMemorySessionStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return oauth.NewRedisSessionStore(client)
}

func provideFlows(cfg *config.Config, sessions oauth.SessionStore, logger *slog.Logger) map[string]*oauth.Flow {
	endpoints := oauth.Endpoints{
		AuthorizeURL: cfg.SalesforceLoginURL + salesforce.AuthorizePath,
		TokenURL:     cfg.SalesforceLoginURL + salesforce.TokenPath,
		UserInfoURL:  cfg.SalesforceLoginURL + salesforce.UserInfoPath,
	}
	return map[string]*oauth.Flow{
		salesforce.Name: oauth.NewFlow(
			endpoints,
			cfg.SalesforceClientID,
			cfg.SalesforceClientSecret,
			salesforce.Scopes,
			sessions,
			logger,
		),
	}
}

func provideRegistry(logger *slog.Logger) *crm.Registry {
	registry := crm.NewRegistry()
	registry.Register(salesforce.New(&http.Client{Timeout: 30 * time.Second}, logger))
	return registry
}

// newApplication wires the stage services together. The publisher and
// dispatcher form a cycle (stages publish, delivery runs stages), so both
// are built here with the dispatcher bound last.
func newApplication(
	cfg *config.Config,
	logger *slog.Logger,
	store repository.Store,
	blobs storage.BlobStore,
	speechClient speech.Client,
	extractClient extract.Client,
	sessions oauth.SessionStore,
	flows map[string]*oauth.Flow,
	registry *crm.Registry,
) (*Application, error) {
	dispatcher := services.NewDispatcher(store, logger)

	publisher, err := providePublisher(cfg, dispatcher, logger)
	if err != nil {
		return nil, err
	}

	transcription := services.NewTranscriptionService(store, blobs, speechClient, speech.WordCountScorer, publisher, logger)
	analysis := services.NewAnalysisService(store, extractClient, cfg.ExtractStrict, publisher, logger)
	sync := services.NewSyncService(store, registry, logger)
	dispatcher.Bind(analysis, sync)

	container := &routes.ServiceContainer{
		Transcription: transcription,
		Analysis:      analysis,
		Sync:          sync,
		OAuth:         services.NewOAuthService(store.Users(), flows, logger),
		Recordings:    services.NewRecordingService(store),
		Users:         store.Users(),
	}

	return &Application{
		Server:    server.New(cfg, container, logger),
		Store:     store,
		Publisher: publisher,
		logger:    logger,
	}, nil
}

func providePublisher(cfg *config.Config, dispatcher *services.Dispatcher, logger *slog.Logger) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		return events.NewInProcess(dispatcher, logger), nil
	}
	bus, err := events.NewAMQP(events.AMQPConfig{
		URL:      cfg.AMQPURL,
		Exchange: cfg.AMQPExchange,
		Queue:    cfg.AMQPQueue,
	}, logger)
	if err != nil {
		return nil, err
	}
	// The durable transport needs an explicit consumer loop; in-process
	// delivery dispatches directly.
	go func() {
		if err := bus.Consume(context.Background(), dispatcher); err != nil {
			logger.Error("event consumer stopped", "error", err)
		}
	}()
	return bus, nil
}
