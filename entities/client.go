// Package entities scopes document store access to a caller.
//
// Client is bound to the request principal and enforces the per-collection
// policy. ServiceClient is a separate capability for administrative jobs
// and is only constructed from a ServiceCredential.
package entities

import (
	"context"
	"errors"
	"fmt"

	"keystone/auth"
	"keystone/database"
	"keystone/models"
)

// ErrForbidden is returned when the principal may not perform an operation.
var ErrForbidden = errors.New("forbidden")

// Rule is what anonymous or non-admin callers may do in a collection.
// Admins may do everything.
type Rule struct {
	PublicRead   bool
	PublicCreate bool
}

// Policy maps collection names to rules. Unlisted collections are admin-only.
type Policy map[string]Rule

// DefaultPolicy is the site's access policy.
var DefaultPolicy = Policy{
	models.CollectionProjects:     {PublicRead: true},
	models.CollectionBlogs:        {PublicRead: true},
	models.CollectionTestimonials: {PublicRead: true},
	models.CollectionCourses:      {PublicRead: true},
	models.CollectionLeads:        {PublicCreate: true},
	models.CollectionVisits:       {PublicCreate: true},
	models.CollectionEstimates:    {PublicCreate: true},
}

type Client struct {
	store     database.Store
	principal auth.Principal
	policy    Policy
}

func NewClient(store database.Store, principal auth.Principal, policy Policy) *Client {
	if policy == nil {
		policy = DefaultPolicy
	}
	return &Client{store: store, principal: principal, policy: policy}
}

func (c *Client) Principal() auth.Principal {
	return c.principal
}

func (c *Client) canRead(collection string) bool {
	return c.principal.IsAdmin() || c.policy[collection].PublicRead
}

func (c *Client) canCreate(collection string) bool {
	return c.principal.IsAdmin() || c.policy[collection].PublicCreate
}

func (c *Client) forbidden(op, collection string) error {
	return fmt.Errorf("%s %s: %w", op, collection, ErrForbidden)
}

func (c *Client) List(ctx context.Context, collection string, opts database.ListOptions) ([]models.Record, error) {
	if !c.canRead(collection) {
		return nil, c.forbidden("list", collection)
	}
	return c.store.List(ctx, collection, opts)
}

func (c *Client) Filter(ctx context.Context, collection string, match map[string]any, opts database.ListOptions) ([]models.Record, error) {
	if !c.canRead(collection) {
		return nil, c.forbidden("filter", collection)
	}
	return c.store.Filter(ctx, collection, match, opts)
}

func (c *Client) Get(ctx context.Context, collection, id string) (*models.Record, error) {
	if !c.canRead(collection) {
		return nil, c.forbidden("get", collection)
	}
	return c.store.Get(ctx, collection, id)
}

func (c *Client) Create(ctx context.Context, collection string, fields map[string]any) (*models.Record, error) {
	if !c.canCreate(collection) {
		return nil, c.forbidden("create", collection)
	}
	return c.store.Create(ctx, collection, fields)
}

func (c *Client) Update(ctx context.Context, collection, id string, fields map[string]any) (*models.Record, error) {
	if !c.principal.IsAdmin() {
		return nil, c.forbidden("update", collection)
	}
	return c.store.Update(ctx, collection, id, fields)
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	if !c.principal.IsAdmin() {
		return c.forbidden("delete", collection)
	}
	return c.store.Delete(ctx, collection, id)
}
