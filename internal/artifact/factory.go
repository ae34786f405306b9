package artifact

import (
	"context"
	"fmt"

	"github.com/oralvis/oralvis-api/internal/config"
)

// Provisioner is implemented by backends that can create their own bucket or container.
type Provisioner interface {
	Provision(ctx context.Context) error
}

func remote(c *config.StorageConfig) (Store, error) {
	switch c.Backend {
	case config.StorageBackendMinio:
		return NewMinioStore(
			c.Minio.Endpoint,
			c.Minio.AccessKeyID,
			c.Minio.SecretAccessKey,
			c.Minio.SSLEnabled,
			c.Minio.BucketName,
			c.Root,
		)
	case config.StorageBackendAzure:
		return NewAzureStore(c.Azure.Name, c.Azure.Key, c.Azure.URL, c.Azure.Container, c.Root)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Backend)
	}
}

// FromConfig builds the configured backend. Remote backends are wrapped in a RetryStore.
func FromConfig(c *config.StorageConfig) (Store, error) {
	if c.Backend == config.StorageBackendFilesystem || c.Backend == "" {
		return NewFilesystemStore(c.Root)
	}

	s, err := remote(c)
	if err != nil {
		return nil, err
	}
	return NewRetryStore(s, c.Retry.MaxRetries, c.Retry.BaseDelay), nil
}

// Provision creates the bucket for minio, and the container for azure when it
// is a dev account. The filesystem backend creates its root on construction.
func Provision(ctx context.Context, c *config.StorageConfig) error {
	switch {
	case c.Backend == config.StorageBackendMinio:
	case c.Backend == config.StorageBackendAzure && c.Azure.Dev:
	default:
		return nil
	}

	s, err := remote(c)
	if err != nil {
		return err
	}
	p, ok := s.(Provisioner)
	if !ok {
		return nil
	}
	if err := p.Provision(ctx); err != nil {
		return fmt.Errorf("provisioning %s storage: %w", c.Backend, err)
	}
	return nil
}
