package telemetry

import "go.opentelemetry.io/otel/metric"

type CounterType string

const (
	SandboxCreatedCounterName         CounterType = "api.sandbox.created"
	SandboxDeletedCounterName         CounterType = "api.sandbox.deleted"
	SandboxExtendedCounterName        CounterType = "api.sandbox.extended"
	SandboxProvisionFailedCounterName CounterType = "api.sandbox.provision.failed"
)

var counterDesc = map[CounterType]string{
	SandboxCreatedCounterName:         "Number of sandbox projects provisioned.",
	SandboxDeletedCounterName:         "Number of sandbox projects torn down.",
	SandboxExtendedCounterName:        "Number of sandbox expiry extensions.",
	SandboxProvisionFailedCounterName: "Number of sandbox provisioning attempts that failed after a remote call.",
}

var counterUnits = map[CounterType]string{
	SandboxCreatedCounterName:         "{sandbox}",
	SandboxDeletedCounterName:         "{sandbox}",
	SandboxExtendedCounterName:        "{extension}",
	SandboxProvisionFailedCounterName: "{sandbox}",
}

func GetCounter(meter metric.Meter, name CounterType) (metric.Int64Counter, error) {
	desc := counterDesc[name]
	unit := counterUnits[name]
	return meter.Int64Counter(string(name),
		metric.WithDescription(desc),
		metric.WithUnit(unit),
	)
}
