package cfg

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// TeamFolders maps an authorized team name to the folder its sandboxes are created in.
type TeamFolders map[string]string

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"local"`
	Debug       bool   `env:"DEBUG" envDefault:"false"`
	Port        int    `env:"PORT" envDefault:"8000"`

	MaxAllowedProjectsPerUser int         `env:"MAX_ALLOWED_PROJECTS_PER_USER,required"`
	AuthorizedTeamFolders     TeamFolders `env:"AUTHORIZED_TEAM_FOLDERS,required,notEmpty"`
	AuthorizedDomainNames     []string    `env:"AUTHORIZED_DOMAIN_NAMES,required,notEmpty"`

	BillingAccountID          string `env:"BILLING_ACCOUNT_ID"`
	Location                  string `env:"LOCATION"`
	ServiceAccountEmail       string `env:"SERVICE_ACCOUNT_EMAIL"`
	OrganizationID            string `env:"ORGANIZATION_ID"`
	CloudTasksDeletionQueueID string `env:"CLOUD_TASKS_DELETION_QUEUE_ID"`
	CloudRunServiceID         string `env:"CLOUDRUN_SERVICE_ID"`
	DeletionCallbackBaseURL   string `env:"DELETION_CALLBACK_BASE_URL"`
	SandboxOwnerRole          string `env:"SANDBOX_OWNER_ROLE" envDefault:"roles/owner"`

	EnableGCPProvisioner   bool `env:"ENABLE_GCP_PROVISIONER" envDefault:"true"`
	EnableAWSProvisioner   bool `env:"ENABLE_AWS_PROVISIONER" envDefault:"false"`
	EnableAzureProvisioner bool `env:"ENABLE_AZURE_PROVISIONER" envDefault:"false"`
	EnableMCP              bool `env:"ENABLE_MCP" envDefault:"true"`

	// ProviderCallTimeout bounds a single provider RPC, ProviderOperationTimeout
	// bounds waiting on a long-running operation (project create/delete).
	ProviderCallTimeout      time.Duration `env:"PROVIDER_CALL_TIMEOUT" envDefault:"30s"`
	ProviderOperationTimeout time.Duration `env:"PROVIDER_OPERATION_TIMEOUT" envDefault:"5m"`

	// RedisURL enables the per-user quota lock. Without it concurrent requests
	// for the same user are not serialized. QuotaLockTTL must cover QuotaLockHold.
	RedisURL     string        `env:"REDIS_URL"`
	QuotaLockTTL time.Duration `env:"QUOTA_LOCK_TTL" envDefault:"6m"`

	OtelCollectorGRPCEndpoint string `env:"OTEL_COLLECTOR_GRPC_ENDPOINT"`
}

const (
	// maxProviderCallsPerRequest is the longest chain of provider RPCs behind one
	// request: an extension whose create fails and is restored, both resolving
	// the callback URL with every retry.
	maxProviderCallsPerRequest = 15
	// retryDelayAllowance covers the backoff between callback URL lookups.
	retryDelayAllowance = 45 * time.Second
)

// QuotaLockHold is the longest the quota lock is held: listing the user's
// projects and creating the new one.
func (c Config) QuotaLockHold() time.Duration {
	return c.ProviderCallTimeout + c.ProviderOperationTimeout
}

// RequestTimeout is the longest a sandbox request can spend waiting on the
// quota lock and provider calls.
func (c Config) RequestTimeout() time.Duration {
	d := c.ProviderOperationTimeout + maxProviderCallsPerRequest*c.ProviderCallTimeout + retryDelayAllowance
	if c.RedisURL != "" {
		d += c.QuotaLockTTL
	}

	return d
}

func (c Config) IsLocal() bool {
	return c.Environment == "local"
}

// Validate checks the settings that are only required when the GCP provisioner is enabled.
func (c Config) Validate() error {
	if c.MaxAllowedProjectsPerUser < 1 {
		return fmt.Errorf("MAX_ALLOWED_PROJECTS_PER_USER must be at least 1, got %d", c.MaxAllowedProjectsPerUser)
	}

	if !c.EnableGCPProvisioner {
		return nil
	}

	var errs []error
	required := map[string]string{
		"BILLING_ACCOUNT_ID":            c.BillingAccountID,
		"SERVICE_ACCOUNT_EMAIL":         c.ServiceAccountEmail,
		"CLOUD_TASKS_DELETION_QUEUE_ID": c.CloudTasksDeletionQueueID,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("environment variable %q is required when ENABLE_GCP_PROVISIONER is set", key))
		}
	}

	if c.CloudRunServiceID == "" && c.DeletionCallbackBaseURL == "" {
		errs = append(errs, errors.New("one of CLOUDRUN_SERVICE_ID or DELETION_CALLBACK_BASE_URL must be set when ENABLE_GCP_PROVISIONER is set"))
	}

	if c.RedisURL != "" && c.QuotaLockTTL < c.QuotaLockHold() {
		errs = append(errs, fmt.Errorf("QUOTA_LOCK_TTL (%s) must be at least PROVIDER_CALL_TIMEOUT + PROVIDER_OPERATION_TIMEOUT (%s)", c.QuotaLockTTL, c.QuotaLockHold()))
	}

	for team, folder := range c.AuthorizedTeamFolders {
		if !strings.HasPrefix(folder, "folders/") {
			errs = append(errs, fmt.Errorf("folder %q of team %q must have the form folders/<id>", folder, team))
		}
	}

	return errors.Join(errs...)
}

// Parse loads the optional .env file and then parses the environment.
// Variables already present in the environment take precedence over the file.
func Parse() (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = defaultEnvFile
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading env file %s: %w", envFile, err)
	}

	var config Config
	if err := env.Parse(&config); err != nil {
		return config, err
	}

	for i, domain := range config.AuthorizedDomainNames {
		config.AuthorizedDomainNames[i] = strings.ToLower(strings.TrimSpace(domain))
	}

	return config, nil
}

// UnmarshalText decodes the JSON object form used by AUTHORIZED_TEAM_FOLDERS.
func (t *TeamFolders) UnmarshalText(text []byte) error {
	folders := map[string]string{}
	if err := json.Unmarshal(text, &folders); err != nil {
		return fmt.Errorf("AUTHORIZED_TEAM_FOLDERS must be a JSON object of team to folder: %w", err)
	}

	*t = folders

	return nil
}
