package slackchannel

import (
	"context"
	"time"

	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// userInfoFinderWithTelemetry implements userInfoFinder interface with all methods wrapped
// with open telemetry metrics
type userInfoFinderWithTelemetry struct {
	base             userInfoFinder
	attrs            metric.MeasurementOption
	callCounter      metric.Int64Counter
	errCounter       metric.Int64Counter
	timeValueRecords metric.Int64Histogram
}

// newUserInfoFinderWithTelemetry returns an instance of the userInfoFinder decorated with open telemetry timing and count metrics
func newUserInfoFinderWithTelemetry(base userInfoFinder, name string, meter metric.Meter) userInfoFinderWithTelemetry {
	calls, err := meter.Int64Counter("userInfoFinder_GetUserInfoContext_Calls")
	if err != nil {
		calls = noop.Int64Counter{}
	}

	errs, err := meter.Int64Counter("userInfoFinder_GetUserInfoContext_Errors")
	if err != nil {
		errs = noop.Int64Counter{}
	}

	processingTime, err := meter.Int64Histogram("userInfoFinder_GetUserInfoContext_ProcessingTimeMillis", metric.WithUnit("ms"))
	if err != nil {
		processingTime = noop.Int64Histogram{}
	}

	return userInfoFinderWithTelemetry{
		base:             base,
		attrs:            metric.WithAttributes(attribute.String("name", name)),
		callCounter:      calls,
		errCounter:       errs,
		timeValueRecords: processingTime,
	}
}

// GetUserInfoContext implements userInfoFinder
func (_d userInfoFinderWithTelemetry) GetUserInfoContext(ctx context.Context, user string) (u *slack.User, err error) {
	_since := time.Now()
	defer func() {
		if err != nil {
			_d.errCounter.Add(ctx, 1, _d.attrs)
		}

		_d.callCounter.Add(ctx, 1, _d.attrs)
		_d.timeValueRecords.Record(ctx, time.Since(_since).Milliseconds(), _d.attrs)
	}()
	return _d.base.GetUserInfoContext(ctx, user)
}
