package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrMeterNil is returned when a metrics set is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// LowStockCounter reports how many tracked items sit at or below their
// reorder point, per store.
type LowStockCounter interface {
	CountLowStock(ctx context.Context) (map[uuid.UUID]int64, error)
}

// SalesMetricsConfig configures NewSalesMetrics.
type SalesMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	LowStockCounter LowStockCounter
}

// SalesMetrics records point-of-sale business metrics. Amounts are in
// minor currency units.
type SalesMetrics struct {
	logger *zap.Logger

	salesCompleted   *Counter
	revenue          *Counter
	refunds          *Counter
	refundAmount     *Counter
	stockAdjustments *Counter
	lowStockAlerts   *Counter
	loyaltyPoints    *Counter
	lowStockItems    *Gauge

	lowStock    LowStockCounter
	stopCh      chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
	wg          sync.WaitGroup
}

// NewSalesMetrics creates every instrument up front.
func NewSalesMetrics(cfg SalesMetricsConfig) (*SalesMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &SalesMetrics{logger: logger, lowStock: cfg.LowStockCounter, stopCh: make(chan struct{})}

	counters := []struct {
		dst         **Counter
		name, descr string
		unit        string
	}{
		{&m.salesCompleted, "pos_sales_completed_total", "Completed sales", "{sales}"},
		{&m.revenue, "pos_sales_revenue_total", "Completed sale totals in minor units", "{cents}"},
		{&m.refunds, "pos_sales_refunded_total", "Approved sale returns", "{returns}"},
		{&m.refundAmount, "pos_refund_amount_total", "Refunded amounts in minor units", "{cents}"},
		{&m.stockAdjustments, "pos_stock_adjustments_total", "Manual stock adjustments", "{adjustments}"},
		{&m.lowStockAlerts, "pos_low_stock_alerts_total", "Low-stock signals raised by the ledger", "{alerts}"},
		{&m.loyaltyPoints, "pos_loyalty_points_earned_total", "Loyalty points credited", "{points}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.descr, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	m.lowStockItems, err = NewGauge(cfg.Meter, "pos_low_stock_items", "Tracked items at or below their reorder point", "{items}")
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordSaleCompleted counts a completed sale and its total.
func (m *SalesMetrics) RecordSaleCompleted(ctx context.Context, storeID uuid.UUID, totalMinor int64) {
	store := AttrStoreID.String(storeID.String())
	m.salesCompleted.Inc(ctx, store)
	m.revenue.Add(ctx, totalMinor, store)
}

// RecordRefund counts a booked return. fully marks the return that closed out the sale.
func (m *SalesMetrics) RecordRefund(ctx context.Context, storeID uuid.UUID, amountMinor int64, fully bool) {
	kind := "partial"
	if fully {
		kind = "full"
	}
	store := AttrStoreID.String(storeID.String())
	m.refunds.Inc(ctx, store, AttrRefundKind.String(kind))
	m.refundAmount.Add(ctx, amountMinor, store)
}

// RecordStockAdjustment counts a manual stock count correction.
func (m *SalesMetrics) RecordStockAdjustment(ctx context.Context, storeID uuid.UUID, itemKind string) {
	m.stockAdjustments.Inc(ctx, AttrStoreID.String(storeID.String()), AttrItemKind.String(itemKind))
}

// RecordLowStock counts a low-stock signal.
func (m *SalesMetrics) RecordLowStock(ctx context.Context, storeID uuid.UUID, itemKind, alertType string) {
	m.lowStockAlerts.Inc(ctx,
		AttrStoreID.String(storeID.String()),
		AttrItemKind.String(itemKind),
		AttrAlertType.String(alertType),
	)
}

// RecordLoyaltyPoints counts credited loyalty points.
func (m *SalesMetrics) RecordLoyaltyPoints(ctx context.Context, storeID uuid.UUID, points int64) {
	m.loyaltyPoints.Add(ctx, points, AttrStoreID.String(storeID.String()))
}

// StartLowStockCollection samples the low-stock gauge every interval until Stop.
func (m *SalesMetrics) StartLowStockCollection(ctx context.Context, interval time.Duration) {
	if m.lowStock == nil {
		m.logger.Debug("No low-stock counter configured, skipping gauge collection")
		return
	}
	m.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		m.wg.Add(1)
		go m.runCollection(ctx, interval)
	})
}

func (m *SalesMetrics) runCollection(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.collectLowStock(ctx)
	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collectLowStock(ctx)
		}
	}
}

func (m *SalesMetrics) collectLowStock(ctx context.Context) {
	counts, err := m.lowStock.CountLowStock(ctx)
	if err != nil {
		m.logger.Warn("Failed to count low-stock items", zap.Error(err))
		return
	}
	for storeID, count := range counts {
		m.lowStockItems.Record(ctx, count, AttrStoreID.String(storeID.String()))
	}
}

// Stop ends gauge collection. Safe to call more than once.
func (m *SalesMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// GormLowStockCounter counts low-stock products and variants straight from the catalog tables.
type GormLowStockCounter struct {
	db *gorm.DB
}

// NewGormLowStockCounter creates a GormLowStockCounter.
func NewGormLowStockCounter(db *gorm.DB) *GormLowStockCounter {
	return &GormLowStockCounter{db: db}
}

const lowStockCountSQL = `
SELECT store_id, COUNT(*) AS count FROM (
	SELECT p.store_id FROM products p
	WHERE p.deleted_at IS NULL AND p.track_stock
	  AND p.reorder_point IS NOT NULL AND p.stock_quantity <= p.reorder_point
	UNION ALL
	SELECT p.store_id FROM product_variants v JOIN products p ON p.id = v.product_id
	WHERE v.deleted_at IS NULL AND v.track_stock
	  AND v.reorder_point IS NOT NULL AND v.stock_quantity <= v.reorder_point
) low
GROUP BY store_id`

// CountLowStock implements LowStockCounter.
func (c *GormLowStockCounter) CountLowStock(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		StoreID uuid.UUID
		Count   int64
	}
	if err := c.db.WithContext(ctx).Raw(lowStockCountSQL).Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.StoreID] = r.Count
	}
	return counts, nil
}
