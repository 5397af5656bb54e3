package gcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	run "cloud.google.com/go/run/apiv2"
	"cloud.google.com/go/run/apiv2/runpb"
	"github.com/flowchartsman/retry"
	"github.com/jellydator/ttlcache/v3"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/sandbox"
)

const (
	serviceURLCacheTTL      = 10 * time.Minute
	serviceURLMaxAttempts   = 5
	serviceURLInitialDelay  = 200 * time.Millisecond
	serviceURLMaxRetryDelay = 5 * time.Second
)

var (
	_ sandbox.CallbackResolver = (*ServiceURLResolver)(nil)
	_ sandbox.CallbackResolver = StaticURL("")

	errServiceWithoutURI = errors.New("service has no uri")
)

type serviceGetter interface {
	GetService(ctx context.Context, name string) (*runpb.Service, error)
}

type servicesClient struct {
	client *run.ServicesClient
}

func (c servicesClient) GetService(ctx context.Context, name string) (*runpb.Service, error) {
	return c.client.GetService(ctx, &runpb.GetServiceRequest{Name: name})
}

// ServiceURLResolver resolves the Cloud Run URI of this service. Results are
// cached, lookups retried on transient failures.
type ServiceURLResolver struct {
	services  serviceGetter
	serviceID string
	timeouts  Timeouts
	cache     *ttlcache.Cache[string, string]
}

func NewServiceURLResolver(client *run.ServicesClient, serviceID string, timeouts Timeouts) *ServiceURLResolver {
	return newServiceURLResolver(servicesClient{client: client}, serviceID, timeouts)
}

func newServiceURLResolver(services serviceGetter, serviceID string, timeouts Timeouts) *ServiceURLResolver {
	return &ServiceURLResolver{
		services:  services,
		serviceID: serviceID,
		timeouts:  timeouts,
		cache: ttlcache.New(
			ttlcache.WithTTL[string, string](serviceURLCacheTTL),
			ttlcache.WithDisableTouchOnHit[string, string](),
		),
	}
}

func (r *ServiceURLResolver) BaseURL(ctx context.Context) (string, error) {
	if item := r.cache.Get(r.serviceID); item != nil {
		return item.Value(), nil
	}

	var uri string
	retrier := retry.NewRetrier(serviceURLMaxAttempts, serviceURLInitialDelay, serviceURLMaxRetryDelay)
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, r.timeouts.Call)
		defer cancel()

		svc, err := r.services.GetService(callCtx, r.serviceID)
		if err != nil {
			switch status.Code(err) {
			case codes.NotFound, codes.PermissionDenied, codes.InvalidArgument, codes.Unauthenticated:
				return retry.Stop(err)
			default:
				return err
			}
		}

		if svc.GetUri() == "" {
			return errServiceWithoutURI
		}
		uri = svc.GetUri()

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve url of %s: %w", r.serviceID, err)
	}

	r.cache.Set(r.serviceID, uri, ttlcache.DefaultTTL)

	return uri, nil
}

// StaticURL is a callback base configured up front.
type StaticURL string

func (s StaticURL) BaseURL(context.Context) (string, error) {
	return string(s), nil
}
