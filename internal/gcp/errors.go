package gcp

import (
	"fmt"
	"time"

	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	retryInitialBackoff    = 200 * time.Millisecond
	retryMaxBackoff        = 10 * time.Second
	retryBackoffMultiplier = 2
)

var retryableCodes = []codes.Code{
	codes.Unavailable,
	codes.DeadlineExceeded,
	codes.ResourceExhausted,
}

// retryTransient retries idempotent calls on transient errors until the call
// context expires.
func retryTransient() gax.CallOption {
	return gax.WithRetry(func() gax.Retryer {
		return gax.OnCodes(retryableCodes, gax.Backoff{
			Initial:    retryInitialBackoff,
			Max:        retryMaxBackoff,
			Multiplier: retryBackoffMultiplier,
		})
	})
}

// notFound replaces a NotFound status with the sentinel, keeping the provider message.
func notFound(err error, sentinel error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %s", sentinel, status.Convert(err).Message())
	}

	return err
}

func projectName(projectID string) string {
	return "projects/" + projectID
}
