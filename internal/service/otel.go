package service

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/joeblew999/plat-claimmap/internal/service"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	reports      metric.Int64Counter
	cacheHits    metric.Int64Counter
	tileFallback metric.Int64Counter
	geocodeFails metric.Int64Counter
}

// newMetrics uses the global OTel meter (no-op if not configured).
func newMetrics() (*metrics, error) {
	m := meter()
	var (
		ms  metrics
		err error
	)
	ms.reports, err = m.Int64Counter(
		"claimmap.report.generated",
		metric.WithDescription("PDF reports assembled"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating report counter: %w", err)
	}
	ms.cacheHits, err = m.Int64Counter(
		"claimmap.report.cache_hits",
		metric.WithDescription("PDF reports served from cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cache hit counter: %w", err)
	}
	ms.tileFallback, err = m.Int64Counter(
		"claimmap.tiles.fallbacks",
		metric.WithDescription("Map snapshots rendered as schematic after a tile failure"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fallback counter: %w", err)
	}
	ms.geocodeFails, err = m.Int64Counter(
		"claimmap.geocode.failures",
		metric.WithDescription("Address searches that failed or found nothing"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating geocode counter: %w", err)
	}
	return &ms, nil
}
