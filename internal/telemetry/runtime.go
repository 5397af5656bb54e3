package telemetry

import (
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel/metric"
)

// startRuntimeInstrumentation reports the standard Go runtime metrics through
// the meter provider.
func startRuntimeInstrumentation(meterProvider metric.MeterProvider) error {
	return runtime.Start(
		runtime.WithMeterProvider(meterProvider),
		runtime.WithMinimumReadMemStatsInterval(metricExportPeriod),
	)
}
