package sink

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// Compile-time check that azureUploader implements ObjectUploader.
var _ ObjectUploader = (*azureUploader)(nil)

// azureUploader writes archive objects to an Azure Blob Storage
// container using shared-key authentication.
type azureUploader struct {
	client    *azblob.Client
	container string
}

func newAzureUploader(container string, creds ArchiveCredentials) (*azureUploader, error) {
	if creds.AzureAccountName == "" || creds.AzureAccountKey == "" {
		return nil, fmt.Errorf("azure archive requires account name and account key")
	}

	sharedKey, err := azblob.NewSharedKeyCredential(creds.AzureAccountName, creds.AzureAccountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", creds.AzureAccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, sharedKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}

	return &azureUploader{client: client, container: container}, nil
}

// Upload implements ObjectUploader.
func (u *azureUploader) Upload(ctx context.Context, key string, body []byte) error {
	_, err := u.client.UploadBuffer(ctx, u.container, key, body, nil)
	if err != nil {
		return fmt.Errorf("upload az://%s/%s: %w", u.container, key, err)
	}
	return nil
}
