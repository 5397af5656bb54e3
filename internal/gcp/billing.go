package gcp

import (
	"context"
	"fmt"

	billing "cloud.google.com/go/billing/apiv1"
	"cloud.google.com/go/billing/apiv1/billingpb"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/sandbox"
)

var _ sandbox.BillingLinker = (*Billing)(nil)

type Billing struct {
	client   *billing.CloudBillingClient
	timeouts Timeouts
}

func NewBilling(client *billing.CloudBillingClient, timeouts Timeouts) *Billing {
	return &Billing{client: client, timeouts: timeouts}
}

func (b *Billing) LinkBilling(ctx context.Context, projectID, billingAccountID string) (bool, error) {
	info, err := b.update(ctx, projectID, "billingAccounts/"+billingAccountID)
	if err != nil {
		return false, fmt.Errorf("failed to link billing account to %s: %w", projectID, err)
	}

	return info.GetBillingEnabled(), nil
}

func (b *Billing) UnlinkBilling(ctx context.Context, projectID string) error {
	// An empty account name detaches the project from billing.
	if _, err := b.update(ctx, projectID, ""); err != nil {
		return fmt.Errorf("failed to unlink billing account from %s: %w", projectID, err)
	}

	return nil
}

func (b *Billing) update(ctx context.Context, projectID, accountName string) (*billingpb.ProjectBillingInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeouts.Call)
	defer cancel()

	info, err := b.client.UpdateProjectBillingInfo(ctx, &billingpb.UpdateProjectBillingInfoRequest{
		Name: projectName(projectID),
		ProjectBillingInfo: &billingpb.ProjectBillingInfo{
			BillingAccountName: accountName,
		},
	}, retryTransient())
	if err != nil {
		return nil, notFound(err, sandbox.ErrProjectNotFound)
	}

	return info, nil
}
