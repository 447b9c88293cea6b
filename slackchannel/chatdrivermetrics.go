package slackchannel

import (
	"context"
	"time"

	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// chatDriverWithTelemetry implements chatDriver interface with all methods wrapped
// with open telemetry metrics
type chatDriverWithTelemetry struct {
	base             chatDriver
	attrs            metric.MeasurementOption
	callCounter      metric.Int64Counter
	errCounter       metric.Int64Counter
	timeValueRecords metric.Int64Histogram
}

// newChatDriverWithTelemetry returns an instance of the chatDriver decorated with open telemetry timing and count metrics
func newChatDriverWithTelemetry(base chatDriver, name string, meter metric.Meter) chatDriverWithTelemetry {
	calls, err := meter.Int64Counter("chatDriver_PostMessageContext_Calls")
	if err != nil {
		calls = noop.Int64Counter{}
	}

	errs, err := meter.Int64Counter("chatDriver_PostMessageContext_Errors")
	if err != nil {
		errs = noop.Int64Counter{}
	}

	processingTime, err := meter.Int64Histogram("chatDriver_PostMessageContext_ProcessingTimeMillis", metric.WithUnit("ms"))
	if err != nil {
		processingTime = noop.Int64Histogram{}
	}

	return chatDriverWithTelemetry{
		base:             base,
		attrs:            metric.WithAttributes(attribute.String("name", name)),
		callCounter:      calls,
		errCounter:       errs,
		timeValueRecords: processingTime,
	}
}

// PostMessageContext implements chatDriver
func (_d chatDriverWithTelemetry) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (rChannelID string, rTimestamp string, err error) {
	_since := time.Now()
	defer func() {
		if err != nil {
			_d.errCounter.Add(ctx, 1, _d.attrs)
		}

		_d.callCounter.Add(ctx, 1, _d.attrs)
		_d.timeValueRecords.Record(ctx, time.Since(_since).Milliseconds(), _d.attrs)
	}()
	return _d.base.PostMessageContext(ctx, channelID, options...)
}
