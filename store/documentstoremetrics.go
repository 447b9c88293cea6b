package store

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var documentStoreMethods = []string{"Close", "CreateDocument", "EnsureCollection", "EnsureDatabase"}

// documentStoreWithTelemetry implements DocumentStore with all methods wrapped
// with open telemetry metrics
type documentStoreWithTelemetry struct {
	base               DocumentStore
	attrs              metric.MeasurementOption
	methodCounters     map[string]metric.Int64Counter
	errCounters        map[string]metric.Int64Counter
	methodTimeMeasures map[string]metric.Int64Histogram
}

// NewDocumentStoreWithTelemetry returns an instance of the DocumentStore decorated with open telemetry timing and count metrics
func NewDocumentStoreWithTelemetry(base DocumentStore, name string, meter metric.Meter) documentStoreWithTelemetry {
	return documentStoreWithTelemetry{
		base:               base,
		attrs:              metric.WithAttributes(attribute.String("name", name)),
		methodCounters:     newDocumentStoreMethodCounters("Calls", meter),
		errCounters:        newDocumentStoreMethodCounters("Errors", meter),
		methodTimeMeasures: newDocumentStoreMethodTimeMeasures(meter),
	}
}

func newDocumentStoreMethodCounters(suffix string, meter metric.Meter) (counters map[string]metric.Int64Counter) {
	counters = make(map[string]metric.Int64Counter)

	for _, m := range documentStoreMethods {
		c, err := meter.Int64Counter("documentStore_" + m + "_" + suffix)
		if err != nil {
			c = noop.Int64Counter{}
		}
		counters[m] = c
	}

	return counters
}

func newDocumentStoreMethodTimeMeasures(meter metric.Meter) (timeMeasures map[string]metric.Int64Histogram) {
	timeMeasures = make(map[string]metric.Int64Histogram)

	for _, m := range documentStoreMethods {
		h, err := meter.Int64Histogram("documentStore_"+m+"_ProcessingTimeMillis", metric.WithUnit("ms"))
		if err != nil {
			h = noop.Int64Histogram{}
		}
		timeMeasures[m] = h
	}

	return timeMeasures
}

func (_d documentStoreWithTelemetry) record(ctx context.Context, method string, since time.Time, err error) {
	if err != nil {
		_d.errCounters[method].Add(ctx, 1, _d.attrs)
	}

	_d.methodCounters[method].Add(ctx, 1, _d.attrs)
	_d.methodTimeMeasures[method].Record(ctx, time.Since(since).Milliseconds(), _d.attrs)
}

// Close implements DocumentStore
func (_d documentStoreWithTelemetry) Close() (err error) {
	_since := time.Now()
	defer func() {
		_d.record(context.Background(), "Close", _since, err)
	}()
	return _d.base.Close()
}

// CreateDocument implements DocumentStore
func (_d documentStoreWithTelemetry) CreateDocument(ctx context.Context, link CollectionLink, entry *LogEntry) (err error) {
	_since := time.Now()
	defer func() {
		_d.record(ctx, "CreateDocument", _since, err)
	}()
	return _d.base.CreateDocument(ctx, link, entry)
}

// EnsureCollection implements DocumentStore
func (_d documentStoreWithTelemetry) EnsureCollection(ctx context.Context, link CollectionLink) (status Status, err error) {
	_since := time.Now()
	defer func() {
		_d.record(ctx, "EnsureCollection", _since, err)
	}()
	return _d.base.EnsureCollection(ctx, link)
}

// EnsureDatabase implements DocumentStore
func (_d documentStoreWithTelemetry) EnsureDatabase(ctx context.Context, database string) (status Status, err error) {
	_since := time.Now()
	defer func() {
		_d.record(ctx, "EnsureDatabase", _since, err)
	}()
	return _d.base.EnsureDatabase(ctx, database)
}
