// Package leads records contact requests, page visits and estimate
// requests from the public site.
package leads

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"keystone/auth"
	"keystone/database"
	"keystone/entities"
	"keystone/models"
)

type Service struct {
	client   *entities.Client
	notifier *Notifier
}

// NewService builds the service. notifier may be nil when no CRM webhook
// is configured.
func NewService(store database.Store, notifier *Notifier) *Service {
	return &Service{
		client:   entities.NewClient(store, auth.Anonymous, nil),
		notifier: notifier,
	}
}

func (s *Service) CreateLead(ctx context.Context, lead models.Lead) (*models.Lead, error) {
	if err := lead.Validate(); err != nil {
		return nil, err
	}
	if lead.Source == "" {
		lead.Source = "website"
	}
	created, err := create(ctx, s.client, models.CollectionLeads, lead)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Notify(*created)
	}
	zap.S().Infow("Lead captured", "lead_id", created.ID, "source", created.Source)
	return created, nil
}

func (s *Service) RecordVisit(ctx context.Context, visit models.Visit) (*models.Visit, error) {
	if err := visit.Validate(); err != nil {
		return nil, err
	}
	return create(ctx, s.client, models.CollectionVisits, visit)
}

func (s *Service) CreateEstimate(ctx context.Context, estimate models.Estimate) (*models.Estimate, error) {
	if err := estimate.Validate(); err != nil {
		return nil, err
	}
	return create(ctx, s.client, models.CollectionEstimates, estimate)
}

func create[T any](ctx context.Context, client *entities.Client, collection string, v T) (*T, error) {
	fields, err := models.ToFields(v)
	if err != nil {
		return nil, err
	}
	rec, err := client.Create(ctx, collection, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s record: %w", collection, err)
	}
	var out T
	if err := models.Decode(collection, *rec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
