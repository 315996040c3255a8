package negotiate

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("capnego.negotiate")

var (
	negotiationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capnego_negotiations_total",
		Help: "Total negotiations by result",
	}, []string{"result"})

	negotiationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "capnego_negotiation_duration_seconds",
		Help:    "Duration of caps negotiation",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capnego_cache_lookups_total",
		Help: "Negotiation cache lookups by result",
	}, []string{"result"})
)

// Metric label values.
const (
	resultNegotiated = "negotiated"
	resultNoCommon   = "no_common_format"
	resultNotFixable = "not_fixable"
	resultError      = "error"

	cacheHit  = "hit"
	cacheMiss = "miss"
)

func startNegotiateSpan(ctx context.Context, mode string, upstream, downstream int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "negotiate.Negotiator.Negotiate",
		trace.WithAttributes(
			attribute.String("negotiate.mode", mode),
			attribute.Int("negotiate.upstream_structures", upstream),
			attribute.Int("negotiate.downstream_structures", downstream),
		),
	)
}
