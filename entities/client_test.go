package entities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keystone/auth"
	"keystone/database"
	"keystone/models"
)

var (
	admin   = auth.Principal{UserID: "u1", Role: models.RoleAdmin}
	visitor = auth.Principal{UserID: "u2", Role: models.RoleUser}
)

func TestClient_AnonymousPolicy(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	anon := NewClient(store, auth.Anonymous, nil)

	_, err := anon.List(ctx, models.CollectionProjects, database.ListOptions{})
	assert.NoError(t, err)

	_, err = anon.Create(ctx, models.CollectionLeads, map[string]any{"name": "Ana"})
	assert.NoError(t, err)

	_, err = anon.List(ctx, models.CollectionLeads, database.ListOptions{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = anon.Create(ctx, models.CollectionProjects, map[string]any{"title": "x"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = anon.List(ctx, models.CollectionUsers, database.ListOptions{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestClient_NonAdminCannotMutate(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	rec, err := store.Create(ctx, models.CollectionProjects, map[string]any{"title": "x"})
	require.NoError(t, err)

	c := NewClient(store, visitor, nil)
	_, err = c.Update(ctx, models.CollectionProjects, rec.ID, map[string]any{"order": 1})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, c.Delete(ctx, models.CollectionProjects, rec.ID), ErrForbidden)

	got, err := store.Get(ctx, models.CollectionProjects, rec.ID)
	require.NoError(t, err)
	assert.NotContains(t, got.Fields, "order")
}

func TestClient_AdminCanDoEverything(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	c := NewClient(store, admin, nil)

	rec, err := c.Create(ctx, models.CollectionProjects, map[string]any{"title": "x"})
	require.NoError(t, err)
	_, err = c.Update(ctx, models.CollectionProjects, rec.ID, map[string]any{"order": 2})
	require.NoError(t, err)
	_, err = c.List(ctx, models.CollectionLeads, database.ListOptions{})
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, models.CollectionProjects, rec.ID))
}

func TestNewServiceClient_RequiresCredential(t *testing.T) {
	store := database.NewMemoryStore()

	_, err := NewServiceClient(store, ServiceCredential{})
	assert.ErrorIs(t, err, ErrNoServiceCredential)

	_, err = NewServiceCredential("")
	assert.ErrorIs(t, err, ErrNoServiceCredential)

	cred, err := NewServiceCredential("service-key")
	require.NoError(t, err)
	svc, err := NewServiceClient(store, cred)
	require.NoError(t, err)

	rec, err := svc.Create(context.Background(), models.CollectionUsers, map[string]any{"email": "a@b.c"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), models.CollectionUsers, rec.ID))
}

func TestCredentialFromKey(t *testing.T) {
	_, err := CredentialFromKey("", false)
	assert.ErrorIs(t, err, ErrNoServiceCredential)

	cred, err := CredentialFromKey("", true)
	require.NoError(t, err)
	assert.True(t, cred.valid())

	cred, err = CredentialFromKey("configured", false)
	require.NoError(t, err)
	assert.Equal(t, "configured", cred.key)
}
