package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spacesedan/reviewsentiment/config"
	"github.com/spacesedan/reviewsentiment/internal/clients"
	"github.com/spacesedan/reviewsentiment/internal/clients/kafka_client"
	"github.com/spacesedan/reviewsentiment/internal/consumers"
	"github.com/spacesedan/reviewsentiment/internal/db"
	"github.com/spacesedan/reviewsentiment/internal/monitoring"
	"github.com/spacesedan/reviewsentiment/internal/pipeline"
	"github.com/spacesedan/reviewsentiment/internal/sentiment"
	"github.com/spacesedan/reviewsentiment/internal/server"
)

const (
	HUGOT_MODEL_DIR    = "./models"
	HF_REQUEST_TIMEOUT = 60 * time.Second
	SHUTDOWN_TIMEOUT   = 10 * time.Second
)

// localClassifier is an in-process backend that holds native resources.
type localClassifier interface {
	sentiment.Classifier
	Close() error
}

// App wires the classifier backend, the optional cache and publishers, the
// orchestrator and the HTTP surface together.
type App struct {
	cfg          config.Config
	orchestrator *pipeline.Orchestrator
	mux          *http.ServeMux
	checker      monitoring.HealthChecker
	healthy      *atomic.Bool
	closers      []func()
}

// New builds every component selected by cfg. Only the classifier backend is
// mandatory; cache and publishers that cannot connect are skipped with a warning.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{cfg: cfg, healthy: &atomic.Bool{}}
	a.healthy.Store(true)

	classifier, err := a.buildClassifier(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithSheetHeader(cfg.SheetHasHeader),
		pipeline.WithPublishers(a.buildPublishers(ctx)...),
	}
	if cfg.ChartEnabled {
		opts = append(opts, pipeline.WithChart(cfg.ChartPath))
	}
	a.orchestrator = pipeline.NewOrchestrator(classifier, cfg.ReportPath, opts...)

	a.mux = http.NewServeMux()
	server.NewRouter(cfg, a.orchestrator, a.healthy).Register(a.mux)

	slog.Info("[App] Initialized",
		slog.String("backend", cfg.Backend),
		slog.String("report_path", cfg.ReportPath),
		slog.Bool("chart", cfg.ChartEnabled))
	return a, nil
}

func (a *App) buildClassifier(ctx context.Context) (sentiment.Classifier, error) {
	var classifier sentiment.Classifier
	namespace := a.cfg.Backend

	switch a.cfg.Backend {
	case config.BackendVader:
		classifier = sentiment.NewVaderClassifier(false)
	case config.BackendHugot:
		hc, model, err := loadHugot(a.cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load hugot model: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := hc.Close(); err != nil {
				slog.Warn("[App] Failed to destroy hugot session", slog.String("error", err.Error()))
			}
		})
		classifier = hc
		namespace += ":" + model
	case config.BackendHuggingFace:
		hf := clients.NewHuggingFaceClient(a.cfg.HFEndpoint, a.cfg.HFModel, a.cfg.HFAPIToken, HF_REQUEST_TIMEOUT)
		classifier = hf
		a.checker = hf
		namespace += ":" + hf.Endpoint
	case config.BackendOpenAI:
		if a.cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is required for the openai backend")
		}
		classifier = clients.NewOpenAIClassifier(a.cfg.OpenAIAPIKey, a.cfg.OpenAIModel)
		namespace += ":" + a.cfg.OpenAIModel
	default:
		return nil, fmt.Errorf("unknown sentiment backend %q", a.cfg.Backend)
	}

	if a.cfg.ValkeyAddr == "" {
		return classifier, nil
	}

	vc, err := clients.NewValkeyClient(a.cfg.ValkeyAddr, a.cfg.ValkeyPassword, a.cfg.ValkeyTLS)
	if err != nil {
		slog.Warn("[App] Prediction cache disabled", slog.String("error", err.Error()))
		return classifier, nil
	}
	a.closers = append(a.closers, vc.Close)

	cached := clients.NewCachedClassifier(classifier, vc, namespace, a.cfg.CacheTTL)
	if a.checker != nil {
		a.checker = cached
	}
	return cached, nil
}

func (a *App) buildPublishers(ctx context.Context) []pipeline.Publisher {
	var publishers []pipeline.Publisher

	if a.cfg.KafkaBroker != "" {
		kcfg := kafka_client.NewKafkaConfig(a.cfg.KafkaBroker, a.cfg.KafkaReportTopic).
			WithTransactionalID(a.cfg.KafkaTransactionalID)
		kp, err := kafka_client.NewReportPublisher(kcfg)
		if err != nil {
			slog.Warn("[App] Kafka publishing disabled", slog.String("error", err.Error()))
		} else {
			a.closers = append(a.closers, kp.Close)
			publishers = append(publishers, kp)
		}
	}

	if a.cfg.DynamoDBTable != "" {
		client, err := clients.NewDynamoDBClient(ctx, a.cfg.AWSRegion, a.cfg.AWSEndpoint)
		if err != nil {
			slog.Warn("[App] DynamoDB publishing disabled", slog.String("error", err.Error()))
		} else {
			publishers = append(publishers, db.NewDynamoReportStore(client, a.cfg.DynamoDBTable))
		}
	}

	return publishers
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	if a.checker != nil {
		go monitoring.MonitorClassifierHealth(ctx, a.checker, monitoring.HEALTHCHECK_INTERVAL, a.healthy)
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("[App] HTTP server listening", slog.String("addr", a.cfg.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()
	slog.Info("[App] Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

// RunWorker consumes AnalyzeRequest messages from the request topic until ctx
// is cancelled. Consumption pauses while the classifier reports unhealthy.
func (a *App) RunWorker(ctx context.Context) error {
	if a.cfg.KafkaBroker == "" {
		return errors.New("KAFKA_BROKER is required for the worker")
	}
	if a.checker != nil {
		go monitoring.MonitorClassifierHealth(ctx, a.checker, monitoring.HEALTHCHECK_INTERVAL, a.healthy)
	}

	kcfg := kafka_client.NewKafkaConfig(a.cfg.KafkaBroker, a.cfg.KafkaReportTopic).
		WithRequestTopic(a.cfg.KafkaRequestTopic, a.cfg.KafkaGroupID)
	consumer, err := kafka_client.NewRequestConsumer(kcfg)
	if err != nil {
		return err
	}
	defer consumer.Close()

	rc := consumers.NewRequestConsumer(
		kafka_client.NewKafkaMessageIterator(ctx, consumer),
		kafka_client.NewCommitHandler(ctx, consumer),
		a.orchestrator,
		consumers.NewHealthGate(a.healthy),
	)
	return rc.Run(ctx)
}

func (a *App) Orchestrator() *pipeline.Orchestrator { return a.orchestrator }
func (a *App) Mux() *http.ServeMux                  { return a.mux }

// Close releases backends in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
