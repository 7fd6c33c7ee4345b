package otel

import (
	"context"
	"errors"
	"fmt"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// MetricsSource is satisfied by *goAuthClient.Manager.
type MetricsSource interface {
	MetricsSnapshot() goAuthClient.MetricsSnapshot
	EventsDropped() uint64
	IsAuthenticated() bool
}

type counterFamily struct {
	instrument metric.Int64ObservableCounter
	series     []labelledSeries
}

type labelledSeries struct {
	id   goAuthClient.MetricID
	opts metric.ObserveOption
}

// OTelExporter publishes the Manager's counters through observable
// instruments. Counter families become one instrument each, with the family's
// labels carried as attributes.
type OTelExporter struct {
	source       MetricsSource
	registration metric.Registration

	families []counterFamily

	buckets  metric.Int64ObservableGauge
	bucketLE [goAuthClient.HistBucketCount]metric.ObserveOption
	count    metric.Int64ObservableGauge
	sum      metric.Float64ObservableGauge
	dropped  metric.Int64ObservableCounter
	signedIn metric.Int64ObservableGauge
}

// NewOTelExporter registers instruments on meter that read from m. Close
// unregisters the callback.
func NewOTelExporter(meter metric.Meter, m *goAuthClient.Manager) (*OTelExporter, error) {
	if m == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, m)
}

func NewOTelExporterFromSource(meter metric.Meter, source MetricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	var observables []metric.Observable

	for _, fam := range internaldefs.CounterFamilies {
		ins, err := meter.Int64ObservableCounter(fam.Name, metric.WithDescription(fam.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", fam.Name, err)
		}
		cf := counterFamily{instrument: ins}
		for _, s := range fam.Series {
			cf.series = append(cf.series, labelledSeries{id: s.ID, opts: attributesOf(s.Labels)})
		}
		e.families = append(e.families, cf)
		observables = append(observables, ins)
	}

	var err error
	lat := internaldefs.Latency
	if e.buckets, err = meter.Int64ObservableGauge(lat.Name+"_bucket",
		metric.WithDescription("Cumulative request count at or below the le bound.")); err != nil {
		return nil, fmt.Errorf("create latency buckets: %w", err)
	}
	for i, bound := range internaldefs.UpperBounds {
		e.bucketLE[i] = metric.WithAttributes(attribute.String("le", internaldefs.BoundLabel(bound)))
	}
	if e.count, err = meter.Int64ObservableGauge(lat.Name+"_count",
		metric.WithDescription("Requests observed by the latency histogram.")); err != nil {
		return nil, fmt.Errorf("create latency count: %w", err)
	}
	if e.sum, err = meter.Float64ObservableGauge(lat.Name+"_sum",
		metric.WithDescription(lat.Help), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("create latency sum: %w", err)
	}
	if e.dropped, err = meter.Int64ObservableCounter(internaldefs.EventsDroppedName,
		metric.WithDescription(internaldefs.EventsDroppedHelp)); err != nil {
		return nil, fmt.Errorf("create events dropped counter: %w", err)
	}
	if e.signedIn, err = meter.Int64ObservableGauge(internaldefs.AuthenticatedName,
		metric.WithDescription(internaldefs.AuthenticatedHelp)); err != nil {
		return nil, fmt.Errorf("create session gauge: %w", err)
	}
	observables = append(observables, e.buckets, e.count, e.sum, e.dropped, e.signedIn)

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()

	for _, fam := range e.families {
		for _, s := range fam.series {
			o.ObserveInt64(fam.instrument, int64(snap.Counters[s.id]), s.opts)
		}
	}

	if raw, ok := snap.Histograms[internaldefs.Latency.ID]; ok {
		cum := internaldefs.Cumulative(raw)
		for i, n := range cum {
			o.ObserveInt64(e.buckets, int64(n), e.bucketLE[i])
		}
		o.ObserveInt64(e.count, int64(cum[len(cum)-1]))
		o.ObserveFloat64(e.sum, snap.LatencySum.Seconds())
	}

	o.ObserveInt64(e.dropped, int64(e.source.EventsDropped()))
	var signedIn int64
	if e.source.IsAuthenticated() {
		signedIn = 1
	}
	o.ObserveInt64(e.signedIn, signedIn)
	return nil
}

func attributesOf(ls []internaldefs.Label) metric.ObserveOption {
	kvs := make([]attribute.KeyValue, 0, len(ls))
	for _, l := range ls {
		kvs = append(kvs, attribute.String(l.Name, l.Value))
	}
	return metric.WithAttributes(kvs...)
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
