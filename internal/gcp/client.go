package gcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	billing "cloud.google.com/go/billing/apiv1"
	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	resourcemanager "cloud.google.com/go/resourcemanager/apiv3"
	run "cloud.google.com/go/run/apiv2"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/api/option"
	"google.golang.org/grpc"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/telemetry"
)

// Timeouts bound every provider call. Operation applies to long-running
// operations such as project creation and deletion.
type Timeouts struct {
	Call      time.Duration
	Operation time.Duration
}

// Clients holds the Google Cloud API clients the provisioner talks to.
type Clients struct {
	Projects *resourcemanager.ProjectsClient
	Billing  *billing.CloudBillingClient
	Tasks    *cloudtasks.Client
	Services *run.ServicesClient
}

// WithTelemetry traces and measures every gRPC call the clients make.
func WithTelemetry(tel *telemetry.Client) option.ClientOption {
	return option.WithGRPCDialOption(grpc.WithStatsHandler(
		otelgrpc.NewClientHandler(
			otelgrpc.WithTracerProvider(tel.TracerProvider),
			otelgrpc.WithMeterProvider(tel.MeterProvider),
			otelgrpc.WithPropagators(tel.TracePropagator),
		),
	))
}

func NewClients(ctx context.Context, opts ...option.ClientOption) (*Clients, error) {
	c := &Clients{}

	var err error
	if c.Projects, err = resourcemanager.NewProjectsClient(ctx, opts...); err != nil {
		return nil, fmt.Errorf("failed to create resource manager client: %w", err)
	}

	if c.Billing, err = billing.NewCloudBillingClient(ctx, opts...); err != nil {
		c.Close()

		return nil, fmt.Errorf("failed to create billing client: %w", err)
	}

	if c.Tasks, err = cloudtasks.NewClient(ctx, opts...); err != nil {
		c.Close()

		return nil, fmt.Errorf("failed to create cloud tasks client: %w", err)
	}

	if c.Services, err = run.NewServicesClient(ctx, opts...); err != nil {
		c.Close()

		return nil, fmt.Errorf("failed to create cloud run client: %w", err)
	}

	return c, nil
}

func (c *Clients) Close() error {
	var errs []error

	if c.Projects != nil {
		errs = append(errs, c.Projects.Close())
	}
	if c.Billing != nil {
		errs = append(errs, c.Billing.Close())
	}
	if c.Tasks != nil {
		errs = append(errs, c.Tasks.Close())
	}
	if c.Services != nil {
		errs = append(errs, c.Services.Close())
	}

	return errors.Join(errs...)
}
