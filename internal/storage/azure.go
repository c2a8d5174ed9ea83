package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/sirupsen/logrus"
)

// AzureStorage keeps snapshots in an Azure Blob container, for deployments
// where the capture process uploads live_<user>.json instead of writing to
// local disk.
type AzureStorage struct {
	client        *azblob.Client
	containerName string
}

// Ensure AzureStorage implements Store
var _ Store = (*AzureStorage)(nil)

// NewAzureStorage creates a blob-backed store using managed identity.
func NewAzureStorage(accountName, containerName string) (*AzureStorage, error) {
	if accountName == "" {
		return nil, fmt.Errorf("storage account name is required")
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClient(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	storage := &AzureStorage{
		client:        client,
		containerName: containerName,
	}

	if err := storage.ensureContainer(); err != nil {
		return nil, fmt.Errorf("failed to ensure container exists: %w", err)
	}

	return storage, nil
}

func (s *AzureStorage) ensureContainer() error {
	ctx := context.Background()

	_, err := s.client.CreateContainer(ctx, s.containerName, nil)
	if err != nil {
		if !strings.Contains(err.Error(), "ContainerAlreadyExists") {
			return fmt.Errorf("failed to create container: %w", err)
		}
		logrus.Debugf("Container %s already exists", s.containerName)
	} else {
		logrus.Infof("Created container %s", s.containerName)
	}

	return nil
}

// Store uploads a snapshot blob.
func (s *AzureStorage) Store(filename string, data []byte) error {
	ctx := context.Background()

	_, err := s.client.UploadBuffer(ctx, s.containerName, filename, data, &azblob.UploadBufferOptions{})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot %s: %w", filename, err)
	}

	logrus.Debugf("Stored snapshot %s in container %s", filename, s.containerName)
	return nil
}

// Retrieve downloads a snapshot blob. A missing blob maps to os.ErrNotExist
// so callers treat local and blob backends the same way.
func (s *AzureStorage) Retrieve(filename string) ([]byte, error) {
	ctx := context.Background()

	response, err := s.client.DownloadStream(ctx, s.containerName, filename, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to download snapshot %s: %w", filename, err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot content: %w", err)
	}

	return data, nil
}

// List returns snapshot blob names matching a prefix.
func (s *AzureStorage) List(prefix string) ([]string, error) {
	ctx := context.Background()

	var blobNames []string
	pager := s.client.NewListBlobsFlatPager(s.containerName, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", err)
		}

		for _, blob := range page.Segment.BlobItems {
			if blob.Name != nil {
				blobNames = append(blobNames, *blob.Name)
			}
		}
	}

	return blobNames, nil
}

// Delete removes a snapshot blob.
func (s *AzureStorage) Delete(filename string) error {
	ctx := context.Background()

	_, err := s.client.DeleteBlob(ctx, s.containerName, filename, nil)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", filename, err)
	}

	return nil
}
