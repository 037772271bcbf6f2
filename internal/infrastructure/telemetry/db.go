package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig configures query tracing and metrics.
type DBConfig struct {
	TraceEnabled      bool
	LogFullSQL        bool          // keep bind variables in spans; never in production
	SlowQueryThresh   time.Duration // Default: 200ms
	PoolStatsInterval time.Duration // Default: 15s
	DBName            string
}

type dbContextKey struct{}

// DBInstrumentation is a gorm plugin that records query counts, latency and
// slow queries, and optionally installs otelgorm spans.
type DBInstrumentation struct {
	config DBConfig
	logger *zap.Logger

	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
	poolConns      *Gauge

	sqlDB    *sql.DB
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDBInstrumentation creates the instruments on meter.
func NewDBInstrumentation(meter metric.Meter, cfg DBConfig, logger *zap.Logger) (*DBInstrumentation, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}
	if cfg.DBName == "" {
		cfg.DBName = "postgresql"
	}

	d := &DBInstrumentation{config: cfg, logger: logger, stopCh: make(chan struct{})}
	var err error
	if d.queryTotal, err = NewCounter(meter, "db_query_total", "Database queries by operation", "{query}"); err != nil {
		return nil, err
	}
	if d.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if d.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Queries slower than the threshold", "{query}"); err != nil {
		return nil, err
	}
	if d.poolConns, err = NewGauge(meter, "db_pool_connections", "Pool connections by state", "{connection}"); err != nil {
		return nil, err
	}
	return d, nil
}

// Name implements gorm.Plugin.
func (d *DBInstrumentation) Name() string { return "pos:db_instrumentation" }

// Initialize implements gorm.Plugin.
func (d *DBInstrumentation) Initialize(db *gorm.DB) error {
	if d.config.TraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(d.config.DBName)}
		if !d.config.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	sqlDB, err := db.DB()
	if err == nil {
		d.sqlDB = sqlDB
	}

	cb := db.Callback()
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) { d.after(tx, op) }
	}
	if err := errors.Join(
		cb.Create().Before("gorm:create").Register("pos_db:before_create", d.before),
		cb.Query().Before("gorm:query").Register("pos_db:before_query", d.before),
		cb.Update().Before("gorm:update").Register("pos_db:before_update", d.before),
		cb.Delete().Before("gorm:delete").Register("pos_db:before_delete", d.before),
		cb.Row().Before("gorm:row").Register("pos_db:before_row", d.before),
		cb.Raw().Before("gorm:raw").Register("pos_db:before_raw", d.before),
		cb.Create().After("gorm:create").Register("pos_db:after_create", after("INSERT")),
		cb.Query().After("gorm:query").Register("pos_db:after_query", after("SELECT")),
		cb.Update().After("gorm:update").Register("pos_db:after_update", after("UPDATE")),
		cb.Delete().After("gorm:delete").Register("pos_db:after_delete", after("DELETE")),
		cb.Row().After("gorm:row").Register("pos_db:after_row", after("")),
		cb.Raw().After("gorm:raw").Register("pos_db:after_raw", after("")),
	); err != nil {
		return err
	}

	d.logger.Info("Database instrumentation registered",
		zap.Bool("tracing", d.config.TraceEnabled),
		zap.Duration("slow_query_threshold", d.config.SlowQueryThresh),
	)
	return nil
}

func (d *DBInstrumentation) before(tx *gorm.DB) {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tx.Statement.Context = context.WithValue(ctx, dbContextKey{}, time.Now())
}

func (d *DBInstrumentation) after(tx *gorm.DB, op string) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	if op == "" {
		op = operationOf(tx.Statement.SQL.String())
	}
	start, ok := ctx.Value(dbContextKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)

	opAttr := AttrDBOperation.String(op)
	d.queryTotal.Inc(ctx, opAttr)
	d.queryDuration.RecordDuration(ctx, elapsed, opAttr)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() && tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if elapsed <= d.config.SlowQueryThresh {
		return
	}

	table := tx.Statement.Table
	if table == "" {
		table = "unknown"
	}
	d.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	if span.IsRecording() {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}

func operationOf(query string) string {
	query = strings.ToUpper(strings.TrimSpace(query))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(query, op) {
			return op
		}
	}
	return "OTHER"
}

// StartPoolStatsCollection samples connection pool usage until Stop.
func (d *DBInstrumentation) StartPoolStatsCollection(ctx context.Context) {
	if d.sqlDB == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(d.config.PoolStatsInterval)
		defer ticker.Stop()
		for {
			d.recordPoolStats(ctx)
			select {
			case <-ticker.C:
			case <-d.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (d *DBInstrumentation) recordPoolStats(ctx context.Context) {
	stats := d.sqlDB.Stats()
	d.poolConns.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	d.poolConns.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	d.poolConns.Record(ctx, int64(stats.MaxOpenConnections), AttrDBState.String("max"))
}

// Stop ends pool stats collection. Safe to call more than once.
func (d *DBInstrumentation) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
		d.wg.Wait()
	})
}
