package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flysightviewer/flysightviewer/pkg/config"
	"github.com/flysightviewer/flysightviewer/pkg/engine"
	"github.com/flysightviewer/flysightviewer/pkg/fsimport"
	"github.com/flysightviewer/flysightviewer/pkg/plot"
	"github.com/flysightviewer/flysightviewer/pkg/plugins"
	"github.com/flysightviewer/flysightviewer/pkg/stores"
	"github.com/flysightviewer/flysightviewer/pkg/telemetry"
)

// app holds the wired viewer core shared by every command: telemetry,
// the sealed producer registry, the evaluator and the importer.
type app struct {
	cfg       *config.Config
	logger    *telemetry.Logger
	metrics   *telemetry.Metrics
	tracer    *telemetry.Tracer
	registry  *engine.Registry
	evaluator *engine.Evaluator
	plots     *plot.Store
	importer  *fsimport.Importer
}

// newApp loads configuration and wires the core. The registry seals
// here; commands only resolve.
func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if jsonOutput {
		cfg.Telemetry.Logging.Format = "json"
	}

	logger, err := telemetry.NewLogger(cfg.Telemetry.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	metrics, err := telemetry.NewMetrics(cfg.Telemetry.Metrics)
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}
	tracer, err := telemetry.NewTracer(cfg.Telemetry.Tracing,
		cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion, cfg.Telemetry.Environment)
	if err != nil {
		return nil, fmt.Errorf("create tracer: %w", err)
	}

	registry := engine.NewRegistry(logger)
	if err := plugins.RegisterBuiltins(registry); err != nil {
		return nil, fmt.Errorf("register built-in producers: %w", err)
	}
	plotStore := plot.NewStore(logger)
	if err := plugins.RegisterDescriptors(plotStore); err != nil {
		return nil, fmt.Errorf("register display descriptors: %w", err)
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		registry:  registry,
		evaluator: engine.NewEvaluator(registry, logger, metrics, plugins.Debug()),
		plots:     plotStore,
		importer:  fsimport.NewImporter(logger, metrics, tracer),
	}, nil
}

// close flushes telemetry.
func (a *app) close(ctx context.Context) {
	if a.tracer != nil {
		_ = a.tracer.Shutdown(ctx)
	}
}

// importSession imports one log file and attaches it to the evaluator.
func (a *app) importSession(ctx context.Context, path string) (*engine.Session, error) {
	session, err := a.importer.ImportFile(ctx, path)
	if err != nil {
		return nil, err
	}
	a.evaluator.Adopt(session)
	return session, nil
}

// openCatalog opens and migrates the session catalog database.
func (a *app) openCatalog(ctx context.Context) (*stores.SQLiteStore, error) {
	store, err := stores.NewSQLiteStore(stores.Config{Path: a.cfg.Catalog.Path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}
	return store, nil
}

// recordSession upserts a session's catalog row.
func (a *app) recordSession(ctx context.Context, store stores.Store, session *engine.Session, path string) error {
	deviceID, _ := session.Var(engine.DeviceIDKey)
	format, _ := session.Var(fsimport.FormatVar)

	sensorCount := 0
	sampleCount := 0
	for _, sensor := range session.SensorKeys() {
		sensorCount++
		for _, name := range session.MeasurementKeys(sensor) {
			if series, ok := session.GetMeasurement(sensor, name); ok {
				sampleCount += len(series)
			}
		}
	}

	return store.UpsertSession(ctx, &stores.SessionRecord{
		ID:          session.ID(),
		DeviceID:    deviceID,
		SourcePath:  path,
		Format:      format,
		SensorCount: sensorCount,
		SampleCount: sampleCount,
		ImportedAt:  time.Now().UTC(),
	})
}

// parseKey parses the CLI key syntax: SENSOR/name for measurements,
// @name for attributes.
func parseKey(s string) (engine.Key, error) {
	if name, ok := strings.CutPrefix(s, "@"); ok {
		if name == "" {
			return engine.Key{}, fmt.Errorf("invalid key %q: empty attribute name", s)
		}
		return engine.AttributeKey(name), nil
	}
	sensor, name, ok := strings.Cut(s, "/")
	if !ok || sensor == "" || name == "" {
		return engine.Key{}, fmt.Errorf("invalid key %q: want SENSOR/name or @name", s)
	}
	return engine.MeasurementKey(sensor, name), nil
}

// standardAttrs is the attribute set the attrs command resolves.
var standardAttrs = []string{
	engine.SessionIDKey,
	engine.DeviceIDKey,
	plugins.StartTimeAttr,
	plugins.ExitTimeAttr,
	plugins.DurationAttr,
}
