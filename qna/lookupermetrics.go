package qna

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// lookuperWithTelemetry implements Lookuper with GetAnswers wrapped with open telemetry metrics
type lookuperWithTelemetry struct {
	base             Lookuper
	attrs            metric.MeasurementOption
	callCounter      metric.Int64Counter
	errCounter       metric.Int64Counter
	resultCounter    metric.Int64Counter
	timeValueRecords metric.Int64Histogram
}

// NewLookuperWithTelemetry returns an instance of the Lookuper decorated with open telemetry timing and count metrics
func NewLookuperWithTelemetry(base Lookuper, name string, meter metric.Meter) lookuperWithTelemetry {
	calls, err := meter.Int64Counter("lookuper_GetAnswers_Calls")
	if err != nil {
		calls = noop.Int64Counter{}
	}

	errs, err := meter.Int64Counter("lookuper_GetAnswers_Errors")
	if err != nil {
		errs = noop.Int64Counter{}
	}

	emptyResults, err := meter.Int64Counter("lookuper_GetAnswers_EmptyResults")
	if err != nil {
		emptyResults = noop.Int64Counter{}
	}

	processingTime, err := meter.Int64Histogram("lookuper_GetAnswers_ProcessingTimeMillis", metric.WithUnit("ms"))
	if err != nil {
		processingTime = noop.Int64Histogram{}
	}

	return lookuperWithTelemetry{
		base:             base,
		attrs:            metric.WithAttributes(attribute.String("name", name)),
		callCounter:      calls,
		errCounter:       errs,
		resultCounter:    emptyResults,
		timeValueRecords: processingTime,
	}
}

// GetAnswers implements Lookuper
func (_d lookuperWithTelemetry) GetAnswers(ctx context.Context, question string) (results []QueryResult, err error) {
	_since := time.Now()
	defer func() {
		if err != nil {
			_d.errCounter.Add(ctx, 1, _d.attrs)
		} else if len(results) == 0 {
			_d.resultCounter.Add(ctx, 1, _d.attrs)
		}

		_d.callCounter.Add(ctx, 1, _d.attrs)
		_d.timeValueRecords.Record(ctx, time.Since(_since).Milliseconds(), _d.attrs)
	}()
	return _d.base.GetAnswers(ctx, question)
}
