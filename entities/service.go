package entities

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"keystone/database"
	"keystone/models"
)

// ErrNoServiceCredential is returned when a service client is requested
// without a service-role key.
var ErrNoServiceCredential = errors.New("service role key not configured")

// ServiceCredential is the elevated capability held by administrative jobs.
// It is created from the configured service-role key, never from a user session.
type ServiceCredential struct {
	key string
}

func NewServiceCredential(key string) (ServiceCredential, error) {
	if key == "" {
		return ServiceCredential{}, ErrNoServiceCredential
	}
	return ServiceCredential{key: key}, nil
}

// CredentialFromKey returns the configured credential. In dev mode a
// missing key is replaced by a random one for the life of the process.
func CredentialFromKey(key string, dev bool) (ServiceCredential, error) {
	if key == "" && dev {
		zap.S().Warn("SERVICE_ROLE_KEY not set, using a random service key")
		key = uuid.NewString()
	}
	return NewServiceCredential(key)
}

func (c ServiceCredential) valid() bool {
	return c.key != ""
}

// ServiceClient bypasses per-user policy. Every mutation is logged with
// actor=service.
type ServiceClient struct {
	store database.Store
}

func NewServiceClient(store database.Store, cred ServiceCredential) (*ServiceClient, error) {
	if !cred.valid() {
		return nil, ErrNoServiceCredential
	}
	return &ServiceClient{store: store}, nil
}

func (c *ServiceClient) List(ctx context.Context, collection string, opts database.ListOptions) ([]models.Record, error) {
	return c.store.List(ctx, collection, opts)
}

func (c *ServiceClient) Filter(ctx context.Context, collection string, match map[string]any, opts database.ListOptions) ([]models.Record, error) {
	return c.store.Filter(ctx, collection, match, opts)
}

func (c *ServiceClient) Get(ctx context.Context, collection, id string) (*models.Record, error) {
	return c.store.Get(ctx, collection, id)
}

func (c *ServiceClient) Create(ctx context.Context, collection string, fields map[string]any) (*models.Record, error) {
	rec, err := c.store.Create(ctx, collection, fields)
	if err == nil {
		zap.S().Debugw("service create", "actor", "service", "collection", collection, "id", rec.ID)
	}
	return rec, err
}

func (c *ServiceClient) Update(ctx context.Context, collection, id string, fields map[string]any) (*models.Record, error) {
	rec, err := c.store.Update(ctx, collection, id, fields)
	if err == nil {
		zap.S().Debugw("service update", "actor", "service", "collection", collection, "id", id)
	}
	return rec, err
}

func (c *ServiceClient) Delete(ctx context.Context, collection, id string) error {
	err := c.store.Delete(ctx, collection, id)
	if err == nil {
		zap.S().Debugw("service delete", "actor", "service", "collection", collection, "id", id)
	}
	return err
}
