package sandbox

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/telemetry"
)

const instrumentationScope = "github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/sandbox"

type Settings struct {
	MaxProjectsPerUser  int
	TeamFolders         map[string]string
	AuthorizedDomains   []string
	BillingAccountID    string
	OwnerRole           string
	DeletionQueue       string
	ServiceAccountEmail string
}

func (s Settings) validate() error {
	var errs []error
	if s.MaxProjectsPerUser < 1 {
		errs = append(errs, errors.New("max projects per user must be at least 1"))
	}
	if len(s.TeamFolders) == 0 {
		errs = append(errs, errors.New("no team folders configured"))
	}
	if len(s.AuthorizedDomains) == 0 {
		errs = append(errs, errors.New("no authorized domains configured"))
	}
	if s.OwnerRole == "" {
		errs = append(errs, errors.New("owner role is empty"))
	}
	if s.DeletionQueue == "" {
		errs = append(errs, errors.New("deletion queue is empty"))
	}

	return errors.Join(errs...)
}

// Manager provisions, extends and tears down sandbox projects.
type Manager struct {
	settings  Settings
	validator *Validator
	quota     *QuotaChecker
	scheduler *Scheduler

	projects ProjectLifecycle
	access   AccessGranter
	billing  BillingLinker
	locker   Locker

	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time

	createdCounter         metric.Int64Counter
	deletedCounter         metric.Int64Counter
	extendedCounter        metric.Int64Counter
	provisionFailedCounter metric.Int64Counter
}

type Option func(*Manager)

// WithClock replaces the wall clock used for ids, expiries and task names.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(settings Settings, providers Providers, l *zap.Logger, tel *telemetry.Client, opts ...Option) (*Manager, error) {
	if err := settings.validate(); err != nil {
		return nil, fmt.Errorf("invalid sandbox settings: %w", err)
	}

	if providers.Projects == nil || providers.Access == nil || providers.Billing == nil || providers.Tasks == nil || providers.Callback == nil {
		return nil, errors.New("sandbox manager requires project, access, billing, task and callback providers")
	}

	locker := providers.Locker
	if locker == nil {
		locker = noopLocker{}
	}

	m := &Manager{
		settings:  settings,
		validator: NewValidator(settings.AuthorizedDomains, settings.TeamFolders),
		quota:     NewQuotaChecker(providers.Projects, settings.MaxProjectsPerUser),
		projects:  providers.Projects,
		access:    providers.Access,
		billing:   providers.Billing,
		locker:    locker,
		logger:    l,
		tracer:    tel.TracerProvider.Tracer(instrumentationScope),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.scheduler = NewScheduler(providers.Tasks, providers.Callback, settings.DeletionQueue, settings.ServiceAccountEmail, l, m.now)

	meter := tel.MeterProvider.Meter(instrumentationScope)
	var err error
	if m.createdCounter, err = telemetry.GetCounter(meter, telemetry.SandboxCreatedCounterName); err != nil {
		return nil, fmt.Errorf("creating counter: %w", err)
	}
	if m.deletedCounter, err = telemetry.GetCounter(meter, telemetry.SandboxDeletedCounterName); err != nil {
		return nil, fmt.Errorf("creating counter: %w", err)
	}
	if m.extendedCounter, err = telemetry.GetCounter(meter, telemetry.SandboxExtendedCounterName); err != nil {
		return nil, fmt.Errorf("creating counter: %w", err)
	}
	if m.provisionFailedCounter, err = telemetry.GetCounter(meter, telemetry.SandboxProvisionFailedCounterName); err != nil {
		return nil, fmt.Errorf("creating counter: %w", err)
	}

	return m, nil
}

// Teams returns the configured team names in sorted order.
func (m *Manager) Teams() []string {
	return slices.Clone(m.validator.teams)
}

func checkProjectID(projectID string) error {
	if !ValidProjectID(projectID) {
		return &ValidationError{
			Field:   "project_id",
			Message: fmt.Sprintf("%s is not a valid project id.", projectID),
		}
	}

	return nil
}
