// Package purge deletes whole collections in rate-limited chunks.
//
// Each collection is paged newest first. A page is split into chunks whose
// deletes run concurrently; chunks run one after another with a short pause
// and pages with a longer one. A global ceiling bounds the work of a single
// run. Nothing is transactional: a failed run leaves what it deleted deleted
// and a new run starts again from the top.
package purge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"keystone/auth"
	"keystone/database"
	"keystone/entities"
	"keystone/models"
)

const TargetAll = "all"

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUnknownTarget = errors.New("unknown reset target")
)

// Collections lists the purgeable collections in the order "all" runs them.
var Collections = []string{
	models.CollectionVisits,
	models.CollectionEstimates,
	models.CollectionProjects,
	models.CollectionBlogs,
	models.CollectionLeads,
}

// ParseTarget returns the collections a target selects.
func ParseTarget(target string) ([]string, error) {
	target = strings.TrimSpace(target)
	if target == TargetAll {
		return append([]string(nil), Collections...), nil
	}
	for _, c := range Collections {
		if c == target {
			return []string{c}, nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownTarget, target)
}

type Config struct {
	PageSize   int
	ChunkSize  int
	ChunkDelay time.Duration
	PageDelay  time.Duration
	MaxDeletes int
}

func DefaultConfig() Config {
	return Config{
		PageSize:   100,
		ChunkSize:  10,
		ChunkDelay: 250 * time.Millisecond,
		PageDelay:  time.Second,
		MaxDeletes: 5000,
	}
}

// ChunkError reports the chunk whose delete failed.
type ChunkError struct {
	Collection string
	Page       int
	Chunk      int
	Err        error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("failed to delete %s page %d chunk %d: %v", e.Collection, e.Page, e.Chunk, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// Result holds per-collection delete counts.
type Result struct {
	Deleted        map[string]int
	CeilingReached bool
}

// Total is the number of records deleted across collections.
func (r Result) Total() int {
	n := 0
	for _, c := range r.Deleted {
		n += c
	}
	return n
}

// Summary is the reset endpoint's response body.
type Summary struct {
	Success          bool `json:"success"`
	DeletedVisits    int  `json:"deletedVisits"`
	DeletedEstimates int  `json:"deletedEstimates"`
	DeletedProjects  int  `json:"deletedProjects"`
	DeletedBlogs     int  `json:"deletedBlogs"`
	DeletedLeads     int  `json:"deletedLeads"`
}

func (r Result) Summary() Summary {
	return Summary{
		Success:          true,
		DeletedVisits:    r.Deleted[models.CollectionVisits],
		DeletedEstimates: r.Deleted[models.CollectionEstimates],
		DeletedProjects:  r.Deleted[models.CollectionProjects],
		DeletedBlogs:     r.Deleted[models.CollectionBlogs],
		DeletedLeads:     r.Deleted[models.CollectionLeads],
	}
}

// pager is what the purge loop needs from the service client.
type pager interface {
	List(ctx context.Context, collection string, opts database.ListOptions) ([]models.Record, error)
	Delete(ctx context.Context, collection, id string) error
}

type Purger struct {
	client pager
	cfg    Config
	sleep  func(ctx context.Context, d time.Duration) error
}

// New builds a purger. Deletes go through the service client, so the
// caller's own session is only used for the admin check.
func New(client *entities.ServiceClient, cfg Config) *Purger {
	return &Purger{client: client, cfg: cfg, sleep: sleepContext}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run deletes every record of the target's collections.
// Callers that are not admins get ErrUnauthorized and nothing is deleted.
func (p *Purger) Run(ctx context.Context, caller auth.Principal, target string) (Result, error) {
	result := Result{Deleted: map[string]int{}}
	if !caller.IsAdmin() {
		zap.S().Warnw("Reset rejected", "user_id", caller.UserID, "role", caller.Role, "target", target)
		return result, ErrUnauthorized
	}
	collections, err := ParseTarget(target)
	if err != nil {
		return result, err
	}

	start := time.Now()
	budget := p.cfg.MaxDeletes
	for _, collection := range collections {
		n, err := p.purgeCollection(ctx, collection, &budget)
		result.Deleted[collection] = n
		if err != nil {
			return result, err
		}
		if budget <= 0 {
			result.CeilingReached = true
			zap.S().Warnw("Reset stopped at delete ceiling", "max_deletes", p.cfg.MaxDeletes, "collection", collection)
			break
		}
	}

	zap.S().Infow("Reset complete", "duration", time.Since(start), "target", target, "user_id", caller.UserID,
		"deleted", result.Total(), "ceiling_reached", result.CeilingReached)
	return result, nil
}

// purgeCollection pages through one collection until it is empty or the
// budget is spent. Every attempted delete is charged to the budget.
func (p *Purger) purgeCollection(ctx context.Context, collection string, budget *int) (int, error) {
	deleted := 0
	for page := 0; *budget > 0; page++ {
		recs, err := p.client.List(ctx, collection, database.ListOptions{
			Sort:  "-" + models.FieldCreatedDate,
			Limit: p.cfg.PageSize,
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to list %s: %w", collection, err)
		}
		if len(recs) == 0 {
			return deleted, nil
		}
		if len(recs) > *budget {
			recs = recs[:*budget]
		}

		for chunk, start := 0, 0; start < len(recs); chunk, start = chunk+1, start+p.cfg.ChunkSize {
			end := min(start+p.cfg.ChunkSize, len(recs))
			if chunk > 0 {
				if err := p.sleep(ctx, p.cfg.ChunkDelay); err != nil {
					return deleted, err
				}
			}
			n, err := p.deleteChunk(ctx, collection, recs[start:end])
			deleted += n
			*budget -= end - start
			if err != nil {
				return deleted, &ChunkError{Collection: collection, Page: page, Chunk: chunk, Err: err}
			}
		}

		zap.S().Debugw("Reset page done", "collection", collection, "page", page, "size", len(recs), "deleted", deleted)
		if *budget <= 0 {
			break
		}
		if err := p.sleep(ctx, p.cfg.PageDelay); err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

// deleteChunk deletes records concurrently and waits for all of them.
// Records already gone are skipped, not counted.
func (p *Purger) deleteChunk(ctx context.Context, collection string, recs []models.Record) (int, error) {
	var n atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	for _, rec := range recs {
		eg.Go(func() error {
			err := p.client.Delete(egCtx, collection, rec.ID)
			if errors.Is(err, database.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			n.Add(1)
			return nil
		})
	}
	err := eg.Wait()
	return int(n.Load()), err
}
