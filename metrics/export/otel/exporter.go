package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/MrEthical07/credcore"
	"github.com/MrEthical07/credcore/metrics/export/internaldefs"
)

var (
	// ErrNilMeter is returned when no meter is supplied.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned when there is nothing to read snapshots from.
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() credcore.MetricsSnapshot
}

type counterInstrument struct {
	id  credcore.MetricID
	obs metric.Int64ObservableCounter
}

// histogramGauges holds one cumulative gauge per upper bound and the total count.
type histogramGauges struct {
	id    credcore.MetricID
	le    []metric.Int64ObservableGauge
	count metric.Int64ObservableGauge
}

// Exporter publishes credcore metrics through an OTel meter.
type Exporter struct {
	source     metricsSource
	reg        metric.Registration
	counters   []counterInstrument
	histograms []histogramGauges
}

// NewExporter reads snapshots from backend.
func NewExporter(meter metric.Meter, backend *credcore.TokenBackend) (*Exporter, error) {
	if backend == nil {
		return nil, ErrNilSource
	}
	return NewExporterFromSource(meter, backend)
}

// NewExporterFromSource creates every instrument up front and registers one
// callback over all of them.
func NewExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	switch {
	case meter == nil:
		return nil, ErrNilMeter
	case source == nil:
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		obs, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, counterInstrument{id: def.ID, obs: obs})
		observables = append(observables, obs)
	}

	for _, def := range internaldefs.HistogramDefs {
		h, err := newHistogramGauges(meter, def.ID, def.Name)
		if err != nil {
			return nil, err
		}
		e.histograms = append(e.histograms, h)
		observables = append(observables, h.observables()...)
	}

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.reg = reg
	return e, nil
}

func newHistogramGauges(meter metric.Meter, id credcore.MetricID, name string) (histogramGauges, error) {
	h := histogramGauges{id: id, le: make([]metric.Int64ObservableGauge, len(internaldefs.HistogramBoundSuffix))}
	for i, suffix := range internaldefs.HistogramBoundSuffix {
		gaugeName := name + "_bucket_le_" + suffix
		g, err := meter.Int64ObservableGauge(gaugeName, metric.WithDescription("Cumulative histogram bucket count."))
		if err != nil {
			return histogramGauges{}, fmt.Errorf("create histogram bucket gauge %s: %w", gaugeName, err)
		}
		h.le[i] = g
	}

	countName := name + "_count"
	count, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Histogram total sample count."))
	if err != nil {
		return histogramGauges{}, fmt.Errorf("create histogram count gauge %s: %w", countName, err)
	}
	h.count = count
	return h, nil
}

func (h histogramGauges) observables() []metric.Observable {
	out := make([]metric.Observable, 0, len(h.le)+1)
	for _, g := range h.le {
		out = append(out, g)
	}
	return append(out, h.count)
}

// observe reports nothing while the source has metrics disabled.
func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 {
		return nil
	}

	for _, c := range e.counters {
		o.ObserveInt64(c.obs, int64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		raw, ok := snapshot.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, g := range h.le {
			o.ObserveInt64(g, int64(cumulative[i]))
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	return nil
}

// Close unregisters the collection callback. It is safe on a nil Exporter.
func (e *Exporter) Close() error {
	if e == nil || e.reg == nil {
		return nil
	}
	return e.reg.Unregister()
}
