package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/api"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/cfg"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/gcp"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/lock"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/sandbox"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/telemetry"
)

var _ api.ServerInterface = (*APIStore)(nil)

// SandboxManager is the sandbox lifecycle the handlers expose.
type SandboxManager interface {
	Create(ctx context.Context, req sandbox.Request) (sandbox.Project, error)
	Delete(ctx context.Context, projectID, invokingTask string) (sandbox.Teardown, error)
	Extend(ctx context.Context, projectID string, hours int) (sandbox.Extension, error)
}

type APIStore struct {
	Healthy atomic.Bool
	// Sandboxes is nil when the GCP provisioner is disabled.
	Sandboxes *sandbox.Manager

	sandboxes SandboxManager
	logger    *zap.Logger
	closers   []func(context.Context) error
}

func NewAPIStore(ctx context.Context, config cfg.Config, tel *telemetry.Client, l *zap.Logger) (*APIStore, error) {
	a := newAPIStore(nil, l)

	if !config.EnableGCPProvisioner {
		l.Info("GCP provisioner disabled")

		return a, nil
	}

	clients, err := gcp.NewClients(ctx, gcp.WithTelemetry(tel))
	if err != nil {
		return nil, fmt.Errorf("initializing google cloud clients: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return clients.Close() })

	timeouts := gcp.Timeouts{
		Call:      config.ProviderCallTimeout,
		Operation: config.ProviderOperationTimeout,
	}

	var callback sandbox.CallbackResolver
	if config.DeletionCallbackBaseURL != "" {
		callback = gcp.StaticURL(config.DeletionCallbackBaseURL)
	} else {
		callback = gcp.NewServiceURLResolver(clients.Services, config.CloudRunServiceID, timeouts)
	}

	var locker sandbox.Locker
	if config.RedisURL != "" {
		redisClient, err := lock.NewClient(ctx, config.RedisURL, tel)
		if err != nil {
			_ = a.Close(ctx)

			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return redisClient.Close() })
		locker = lock.NewRedis(redisClient, config.QuotaLockTTL)

		l.Info("Connected to Redis, quota checks are serialized per user")
	} else {
		l.Warn("REDIS_URL not set, concurrent requests of one user may exceed the quota")
	}

	projects := gcp.NewProjects(clients.Projects, timeouts)

	manager, err := sandbox.NewManager(
		sandbox.Settings{
			MaxProjectsPerUser:  config.MaxAllowedProjectsPerUser,
			TeamFolders:         config.AuthorizedTeamFolders,
			AuthorizedDomains:   config.AuthorizedDomainNames,
			BillingAccountID:    config.BillingAccountID,
			OwnerRole:           config.SandboxOwnerRole,
			DeletionQueue:       config.CloudTasksDeletionQueueID,
			ServiceAccountEmail: config.ServiceAccountEmail,
		},
		sandbox.Providers{
			Projects: projects,
			Access:   projects,
			Billing:  gcp.NewBilling(clients.Billing, timeouts),
			Tasks:    gcp.NewTasks(clients.Tasks, timeouts),
			Callback: callback,
			Locker:   locker,
		},
		l,
		tel,
	)
	if err != nil {
		_ = a.Close(ctx)

		return nil, fmt.Errorf("initializing sandbox manager: %w", err)
	}

	a.Sandboxes = manager
	a.sandboxes = manager

	return a, nil
}

func newAPIStore(sandboxes SandboxManager, l *zap.Logger) *APIStore {
	a := &APIStore{
		sandboxes: sandboxes,
		logger:    l,
	}
	a.Healthy.Store(true)

	return a
}

func (a *APIStore) Close(ctx context.Context) error {
	var errs []error
	for _, closeFn := range a.closers {
		if err := closeFn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("closing client: %w", err))
		}
	}
	a.closers = nil

	return errors.Join(errs...)
}

// This function wraps sending of an error in the Error format, and
// handling the failure to marshal that.
func (a *APIStore) sendAPIStoreError(c *gin.Context, code int, message string) {
	apiErr := api.Error{
		Code:    int32(code),
		Message: message,
	}

	c.Error(errors.New(message))
	c.JSON(code, apiErr)
}
