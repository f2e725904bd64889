package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/portfolio-backend/internal/projects/domain"
)

// Repository is the persistence the service needs.
type Repository interface {
	ListAll(ctx context.Context) ([]domain.Project, error)
	Get(ctx context.Context, id int64) (*domain.Project, error)
	Create(ctx context.Context, in domain.ProjectInput) (*domain.Project, error)
	Update(ctx context.Context, id int64, in domain.ProjectInput) (*domain.Project, bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// AssetStore persists uploaded images.
type AssetStore interface {
	Store(ctx context.Context, r io.Reader, originalFilename string) (string, error)
	Exists(ref string) bool
	Remove(ref string) error
	List() ([]string, error)
	StoredAt(ref string) (time.Time, bool)
	PruneTemp(olderThan time.Duration) (int, error)
}

// ListCache is an optional cache of the full listing. Set must drop the
// listing when an Invalidate happened after gen was read.
type ListCache interface {
	Get(ctx context.Context) ([]domain.Project, bool, error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, gen int64, projects []domain.Project) error
	Invalidate(ctx context.Context) error
}

// DefaultPruneMinAge keeps files written by an upload whose row may not be
// committed yet.
const DefaultPruneMinAge = 10 * time.Minute

// Upload is an image attached to a create or update request.
type Upload struct {
	Filename string
	Body     io.Reader
}

// ProjectService handles project-related business logic
type ProjectService struct {
	repo   Repository
	assets AssetStore
	cache  ListCache
	log    *zap.Logger

	pruneMinAge time.Duration
	now         func() time.Time
}

type Option func(*ProjectService)

// WithPruneMinAge sets how old a stored file must be before PruneAssets may
// remove it.
func WithPruneMinAge(d time.Duration) Option {
	return func(s *ProjectService) { s.pruneMinAge = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *ProjectService) { s.now = now }
}

// NewProjectService creates a new project service
func NewProjectService(repo Repository, assets AssetStore, cache ListCache, log *zap.Logger, opts ...Option) *ProjectService {
	s := &ProjectService{
		repo:        repo,
		assets:      assets,
		cache:       cache,
		log:         log,
		pruneMinAge: DefaultPruneMinAge,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every project, from the cache when possible.
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	if cached, ok, err := s.cache.Get(ctx); err != nil {
		s.log.Warn("project cache read failed", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	gen, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		s.log.Warn("project cache read failed", zap.Error(genErr))
	}

	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	if genErr == nil {
		if err := s.cache.Set(ctx, gen, items); err != nil {
			s.log.Warn("project cache write failed", zap.Error(err))
		}
	}
	return items, nil
}

// Create stores the upload (if any) and then inserts the project. If the
// insert fails the stored file is removed again.
func (s *ProjectService) Create(ctx context.Context, in domain.ProjectInput, upload *Upload) (*domain.Project, error) {
	in = in.Normalize()
	in.Image = nil
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if upload != nil {
		ref, err := s.assets.Store(ctx, upload.Body, upload.Filename)
		if err != nil {
			return nil, err
		}
		in.Image = &ref
	}

	p, err := s.repo.Create(ctx, in)
	if err != nil {
		s.discard(in.Image)
		return nil, err
	}

	s.log.Info("project created", zap.Int64("id", p.ID), zap.Stringp("image", p.Image))
	s.invalidate(ctx)
	return p, nil
}

// Update replaces the project's fields. The image is the new upload when
// present, otherwise in.Image if it equals the current image and the file is
// still stored, otherwise nil.
// Returns domain.ErrNotFound for unknown ids, before any file is written.
func (s *ProjectService) Update(ctx context.Context, id int64, in domain.ProjectInput, upload *Upload) (*domain.Project, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var stored *string
	switch {
	case upload != nil:
		ref, err := s.assets.Store(ctx, upload.Body, upload.Filename)
		if err != nil {
			return nil, err
		}
		stored = &ref
		in.Image = stored
	case in.Image != nil && (current.Image == nil || *in.Image != *current.Image || !s.assets.Exists(*in.Image)):
		in.Image = nil
	}

	p, matched, err := s.repo.Update(ctx, id, in)
	if err != nil {
		s.discard(stored)
		return nil, err
	}
	if !matched {
		// deleted concurrently
		s.discard(stored)
		return nil, domain.ErrNotFound
	}

	if current.Image != nil && (p.Image == nil || *p.Image != *current.Image) {
		s.discard(current.Image)
	}

	s.log.Info("project updated", zap.Int64("id", p.ID), zap.Stringp("image", p.Image))
	s.invalidate(ctx)
	return p, nil
}

// Delete removes the project and its image. Deleting an unknown id is not an
// error; the boolean reports whether a row was removed.
func (s *ProjectService) Delete(ctx context.Context, id int64) (bool, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}

	if current != nil {
		s.discard(current.Image)
	}

	s.log.Info("project deleted", zap.Int64("id", id))
	s.invalidate(ctx)
	return true, nil
}

// PruneAssets removes stored files that no project references. Files younger
// than the prune min age are skipped, since Create writes the file before
// its row. Stale upload temp files are removed as well. With dryRun the
// files are only reported.
func (s *ProjectService) PruneAssets(ctx context.Context, dryRun bool) ([]string, error) {
	refs, err := s.assets.List()
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	referenced := make(map[string]struct{}, len(items))
	for _, p := range items {
		if p.Image != nil {
			referenced[*p.Image] = struct{}{}
		}
	}

	cutoff := s.now().Add(-s.pruneMinAge)
	var orphans []string
	for _, ref := range refs {
		if _, ok := referenced[ref]; ok {
			continue
		}
		if at, ok := s.assets.StoredAt(ref); ok && at.After(cutoff) {
			continue
		}
		orphans = append(orphans, ref)
		if dryRun {
			continue
		}
		if err := s.assets.Remove(ref); err != nil {
			return orphans, fmt.Errorf("prune %s: %w", ref, err)
		}
	}

	temps := 0
	if !dryRun {
		if temps, err = s.assets.PruneTemp(s.pruneMinAge); err != nil {
			return orphans, fmt.Errorf("prune temp uploads: %w", err)
		}
	}

	s.log.Info("asset prune finished",
		zap.Int("orphans", len(orphans)),
		zap.Int("temp_files", temps),
		zap.Bool("dry_run", dryRun),
	)
	return orphans, nil
}

func (s *ProjectService) discard(ref *string) {
	if ref == nil {
		return
	}
	if err := s.assets.Remove(*ref); err != nil {
		s.log.Warn("asset cleanup failed", zap.String("ref", *ref), zap.Error(err))
	}
}

func (s *ProjectService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("project cache invalidation failed", zap.Error(err))
	}
}
