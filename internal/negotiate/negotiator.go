package negotiate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/capnego/internal/caps"
	"github.com/roach88/capnego/internal/ir"
)

// TemplateSource provides the caps an element accepts on its pads of one
// direction. Implemented by registry.Registry.
type TemplateSource interface {
	PadTemplate(ctx context.Context, element string, dir ir.Direction) (*caps.Caps, error)
}

// History records finished negotiations. Implemented by registry.Registry.
type History interface {
	RecordNegotiation(ctx context.Context, rec ir.NegotiationRecord) (int64, error)
}

// Result is a successful negotiation.
type Result struct {
	SessionID string
	Key       string

	// Common holds every format both sides accept, in preference order.
	Common *caps.Caps

	// Fixed is the single format chosen from Common.
	Fixed *caps.Caps

	// Cached reports whether the result came from the cache.
	Cached bool
}

// Negotiator agrees on a format between an upstream and a downstream pad.
//
// Thread-safety: a Negotiator is safe for concurrent use when its Cache and
// History are.
type Negotiator struct {
	mode    caps.IntersectMode
	cache   Cache
	history History
	gen     SessionGenerator
	logger  *slog.Logger
}

// Option configures a Negotiator.
type Option func(*Negotiator)

// WithMode sets the intersection order for the two sides. Default: ZigZag.
func WithMode(m caps.IntersectMode) Option {
	return func(n *Negotiator) {
		n.mode = m
	}
}

// WithCache enables result caching.
func WithCache(c Cache) Option {
	return func(n *Negotiator) {
		n.cache = c
	}
}

// WithHistory records every negotiation, successful or not.
func WithHistory(h History) Option {
	return func(n *Negotiator) {
		n.history = h
	}
}

// WithSessionGenerator replaces the UUIDv7 session ID generator.
func WithSessionGenerator(g SessionGenerator) Option {
	return func(n *Negotiator) {
		n.gen = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(n *Negotiator) {
		n.logger = l
	}
}

// New creates a Negotiator.
func New(opts ...Option) *Negotiator {
	n := &Negotiator{
		mode:   caps.ZigZag,
		gen:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Negotiate intersects upstream and downstream, restricts the result to
// filter when filter is non-nil, and fixates it. The filter's order takes
// precedence over the sides' order.
//
// Returns a *NegotiationError wrapping ErrNoCommonFormat when nothing is
// left, or ErrNotFixable when the result is ANY.
func (n *Negotiator) Negotiate(ctx context.Context, upstream, downstream, filter *caps.Caps) (*Result, error) {
	start := time.Now()
	ctx, span := startNegotiateSpan(ctx, n.mode.String(), upstream.Size(), downstream.Size())
	defer span.End()

	sessionID := n.gen.Generate()
	filterText := ""
	if filter != nil {
		filterText = filter.String()
	}
	rec := ir.NegotiationRecord{
		SessionID:  sessionID,
		Mode:       n.mode.String(),
		Upstream:   upstream.String(),
		Downstream: downstream.String(),
		Filter:     filterText,
	}
	rec.Key = ir.NegotiationKey(rec.Mode, rec.Upstream, rec.Downstream, rec.Filter)
	span.SetAttributes(attribute.String("negotiate.session_id", sessionID))

	res, err := n.lookup(ctx, rec.Key)
	if err != nil {
		n.logger.Warn("discarding unreadable cache entry", "key", rec.Key, "error", err)
	}
	if res == nil {
		res, err = n.compute(upstream, downstream, filter)
	}
	negotiationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		label := resultError
		rec.Outcome = ir.OutcomeNoCommon
		switch {
		case errors.Is(err, ErrNoCommonFormat):
			label = resultNoCommon
		case errors.Is(err, ErrNotFixable):
			label = resultNotFixable
			rec.Outcome = ir.OutcomeNotFixable
		}
		negotiationsTotal.WithLabelValues(label).Inc()
		n.record(ctx, rec)

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		n.logger.Debug("negotiation failed",
			"session", sessionID,
			"upstream", rec.Upstream,
			"downstream", rec.Downstream,
			"error", err,
		)
		return nil, &NegotiationError{
			SessionID:  sessionID,
			Upstream:   rec.Upstream,
			Downstream: rec.Downstream,
			Filter:     rec.Filter,
			Err:        err,
		}
	}

	res.SessionID = sessionID
	res.Key = rec.Key
	if !res.Cached && n.cache != nil {
		entry := Entry{Common: res.Common.String(), Fixed: res.Fixed.String()}
		if err := n.cache.Set(ctx, rec.Key, entry); err != nil {
			n.logger.Warn("negotiation cache write failed", "key", rec.Key, "error", err)
		}
	}

	rec.Common = res.Common.String()
	rec.Fixed = res.Fixed.String()
	rec.Outcome = ir.OutcomeNegotiated
	rec.Cached = res.Cached
	n.record(ctx, rec)

	negotiationsTotal.WithLabelValues(resultNegotiated).Inc()
	span.AddEvent("fixated", trace.WithAttributes(attribute.String("negotiate.fixed", rec.Fixed)))
	span.SetAttributes(attribute.Bool("negotiate.cached", res.Cached))
	span.SetStatus(codes.Ok, "")
	n.logger.Debug("negotiated",
		"session", sessionID,
		"fixed", rec.Fixed,
		"cached", res.Cached,
	)
	return res, nil
}

// Link negotiates between the src pads of srcElement and the sink pads of
// sinkElement as provided by templates.
func (n *Negotiator) Link(ctx context.Context, templates TemplateSource, srcElement, sinkElement string, filter *caps.Caps) (*Result, error) {
	upstream, err := templates.PadTemplate(ctx, srcElement, ir.DirectionSrc)
	if err != nil {
		negotiationsTotal.WithLabelValues(resultError).Inc()
		return nil, fmt.Errorf("link %s ! %s: %w", srcElement, sinkElement, err)
	}
	downstream, err := templates.PadTemplate(ctx, sinkElement, ir.DirectionSink)
	if err != nil {
		negotiationsTotal.WithLabelValues(resultError).Inc()
		return nil, fmt.Errorf("link %s ! %s: %w", srcElement, sinkElement, err)
	}

	n.logger.Info("linking", "src", srcElement, "sink", sinkElement)
	res, err := n.Negotiate(ctx, upstream, downstream, filter)
	if err != nil {
		return nil, fmt.Errorf("link %s ! %s: %w", srcElement, sinkElement, err)
	}
	return res, nil
}

func (n *Negotiator) compute(upstream, downstream, filter *caps.Caps) (*Result, error) {
	common := caps.IntersectFull(upstream, downstream, n.mode)
	if filter != nil {
		filtered := caps.IntersectFull(filter, common, caps.First)
		common.Unref()
		common = filtered
	}
	if common.IsEmpty() {
		return nil, ErrNoCommonFormat
	}
	if common.IsAny() {
		return nil, ErrNotFixable
	}
	return &Result{Common: common, Fixed: caps.Fixate(common)}, nil
}

// lookup returns a cached result, or nil on a miss.
func (n *Negotiator) lookup(ctx context.Context, key string) (*Result, error) {
	if n.cache == nil {
		return nil, nil
	}
	e, ok := n.cache.Get(ctx, key)
	if !ok {
		cacheLookups.WithLabelValues(cacheMiss).Inc()
		return nil, nil
	}

	common, err := caps.FromString(e.Common)
	if err != nil {
		cacheLookups.WithLabelValues(cacheMiss).Inc()
		return nil, err
	}
	fixed, err := caps.FromString(e.Fixed)
	if err != nil {
		cacheLookups.WithLabelValues(cacheMiss).Inc()
		return nil, err
	}
	cacheLookups.WithLabelValues(cacheHit).Inc()
	return &Result{Common: common, Fixed: fixed, Cached: true}, nil
}

func (n *Negotiator) record(ctx context.Context, rec ir.NegotiationRecord) {
	if n.history == nil {
		return
	}
	if _, err := n.history.RecordNegotiation(ctx, rec); err != nil {
		n.logger.Warn("failed to record negotiation", "session", rec.SessionID, "error", err)
	}
}
