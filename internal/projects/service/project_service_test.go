package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/portfolio-backend/internal/assets"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/projects/cache"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/projects/repository"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/storage"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/storage/sqlite"
)

type fixture struct {
	svc    *ProjectService
	repo   *repository.ProjectRepository
	assets *assets.Store
	cache  *cache.RedisListCache
	redis  *miniredis.Miniredis
	root   string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.OpenMemory(ctx, t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.RunMigrations(db))

	root := t.TempDir()
	store, err := assets.New(assets.Config{Root: root, URLPrefix: "/uploads"})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := repository.NewProjectRepository(db)
	lc := cache.NewRedisListCache(client, time.Minute)
	return &fixture{
		svc:    NewProjectService(repo, store, lc, zap.NewNop()),
		repo:   repo,
		assets: store,
		cache:  lc,
		redis:  mr,
		root:   root,
	}
}

func input(name string) domain.ProjectInput {
	return domain.ProjectInput{Name: name, Description: "desc " + name, Link: domain.StringPtr("https://e.com")}
}

func upload(name, body string) *Upload {
	return &Upload{Filename: name, Body: strings.NewReader(body)}
}

func readAsset(t *testing.T, s *assets.Store, ref string) string {
	t.Helper()
	rc, err := s.Open(ref)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestCreate_WithoutImage(t *testing.T) {
	f := setup(t)

	p, err := f.svc.Create(context.Background(), domain.ProjectInput{
		Name: "X", Description: "Y", Link: domain.StringPtr("https://e.com"),
	}, nil)
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Nil(t, p.Image)
}

func TestCreate_IgnoresClientSuppliedImageRef(t *testing.T) {
	f := setup(t)

	in := input("x")
	in.Image = domain.StringPtr("/uploads/someone-elses.png")
	p, err := f.svc.Create(context.Background(), in, nil)
	require.NoError(t, err)
	assert.Nil(t, p.Image)
}

func TestCreate_WithImage(t *testing.T) {
	f := setup(t)

	p, err := f.svc.Create(context.Background(), input("x"), upload("a.png", "png-bytes"))
	require.NoError(t, err)
	require.NotNil(t, p.Image)
	assert.True(t, strings.HasSuffix(*p.Image, ".png"))
	assert.Equal(t, "png-bytes", readAsset(t, f.assets, *p.Image))
}

func TestCreate_InvalidInputWritesNothing(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(context.Background(), domain.ProjectInput{Name: "  ", Description: "d"}, upload("a.png", "x"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	refs, err := f.assets.List()
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestCreate_AssetWriteFailureAbortsPersistence(t *testing.T) {
	f := setup(t)
	svc := NewProjectService(f.repo, failingAssets{}, cache.Nop{}, zap.NewNop())

	_, err := svc.Create(context.Background(), input("x"), upload("a.png", "x"))
	assert.ErrorIs(t, err, assets.ErrWrite)

	n, err := f.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "no record may be created when the asset write fails")
}

func TestCreate_PersistenceFailureRemovesAsset(t *testing.T) {
	f := setup(t)
	svc := NewProjectService(brokenRepo{}, f.assets, cache.Nop{}, zap.NewNop())

	_, err := svc.Create(context.Background(), input("x"), upload("a.png", "x"))
	var pe *domain.PersistenceError
	require.True(t, errors.As(err, &pe))

	refs, err := f.assets.List()
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestCreate_IDsDistinctAndIncreasing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		p, err := f.svc.Create(ctx, input("p"), nil)
		require.NoError(t, err)
		assert.Greater(t, p.ID, last)
		last = p.ID
	}
}

func TestList_RoundTripMatchesCreate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, input("x"), upload("a.jpg", "x"))
	require.NoError(t, err)

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, *created, all[0])
}

func TestList_UsesAndInvalidatesCache(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, input("a"), nil)
	require.NoError(t, err)

	first, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, f.redis.Exists("portfolio:projects:all"))

	_, err = f.svc.Create(ctx, input("b"), nil)
	require.NoError(t, err)
	assert.False(t, f.redis.Exists("portfolio:projects:all"), "mutation must invalidate the listing")

	second, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 2)
}

func TestList_CreateDuringQueryIsNotCached(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	hooked := &hookedRepo{ProjectRepository: f.repo}
	svc := NewProjectService(hooked, f.assets, f.cache, zap.NewNop())
	hooked.afterListAll = func() {
		_, err := svc.Create(ctx, input("late"), nil)
		require.NoError(t, err)
	}

	first, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, first, "rows were read before the create committed")

	second, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1, "the listing read before the create must not be cached")
	assert.Equal(t, "late", second[0].Name)
}

func TestList_CacheOutageFallsBackToRepository(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, input("a"), nil)
	require.NoError(t, err)
	f.redis.Close()

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdate_ReplacesFieldsAndImage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, input("x"), upload("old.png", "old"))
	require.NoError(t, err)
	oldRef := *created.Image

	updated, err := f.svc.Update(ctx, created.ID, domain.ProjectInput{Name: "new", Description: "d"}, upload("new.gif", "new"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "new", updated.Name)
	assert.Nil(t, updated.Link)
	require.NotNil(t, updated.Image)
	assert.True(t, strings.HasSuffix(*updated.Image, ".gif"))
	assert.Equal(t, "new", readAsset(t, f.assets, *updated.Image))
	assert.False(t, f.assets.Exists(oldRef), "replaced image is removed")
}

func TestUpdate_KeepsCurrentImageWhenReferenced(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, input("x"), upload("a.png", "x"))
	require.NoError(t, err)

	in := input("renamed")
	in.Image = created.Image
	updated, err := f.svc.Update(ctx, created.ID, in, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.Image)
	assert.Equal(t, *created.Image, *updated.Image)
	assert.True(t, f.assets.Exists(*created.Image))
}

func TestUpdate_WithoutImageClearsIt(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, input("x"), upload("a.png", "x"))
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, created.ID, input("x"), nil)
	require.NoError(t, err)
	assert.Nil(t, updated.Image)
	assert.False(t, f.assets.Exists(*created.Image))
}

func TestUpdate_ForeignImageRefIsDropped(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other, err := f.svc.Create(ctx, input("other"), upload("a.png", "x"))
	require.NoError(t, err)
	target, err := f.svc.Create(ctx, input("target"), nil)
	require.NoError(t, err)

	in := input("target")
	in.Image = other.Image
	updated, err := f.svc.Update(ctx, target.ID, in, nil)
	require.NoError(t, err)
	assert.Nil(t, updated.Image)
	assert.True(t, f.assets.Exists(*other.Image))
}

func TestUpdate_MissingFileRefIsDropped(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, input("x"), upload("a.png", "x"))
	require.NoError(t, err)
	require.NoError(t, f.assets.Remove(*created.Image))

	in := input("x")
	in.Image = created.Image
	updated, err := f.svc.Update(ctx, created.ID, in, nil)
	require.NoError(t, err)
	assert.Nil(t, updated.Image, "a ref whose file is gone is not kept")
}

func TestUpdate_NotFound(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Update(context.Background(), 404, input("x"), upload("a.png", "x"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	refs, err := f.assets.List()
	require.NoError(t, err)
	assert.Empty(t, refs, "no asset is written for an unknown id")
}

func TestDelete_RemovesRowAndAsset(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, input("x"), upload("a.png", "x"))
	require.NoError(t, err)

	deleted, err := f.svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, f.assets.Exists(*created.Image))

	deleted, err = f.svc.Delete(ctx, created.ID)
	require.NoError(t, err, "second delete is not an error")
	assert.False(t, deleted)
}

func TestPruneAssets(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	later := func() time.Time { return time.Now().Add(time.Hour) }
	svc := NewProjectService(f.repo, f.assets, f.cache, zap.NewNop(), WithClock(later))

	kept, err := svc.Create(ctx, input("x"), upload("keep.png", "x"))
	require.NoError(t, err)
	orphan, err := f.assets.Store(ctx, strings.NewReader("x"), "orphan.png")
	require.NoError(t, err)

	found, err := svc.PruneAssets(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{orphan}, found)
	assert.True(t, f.assets.Exists(orphan), "dry run keeps files")

	found, err = svc.PruneAssets(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{orphan}, found)
	assert.False(t, f.assets.Exists(orphan))
	assert.True(t, f.assets.Exists(*kept.Image))
}

func TestPruneAssets_SkipsRecentFiles(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	orphan, err := f.assets.Store(ctx, strings.NewReader("x"), "orphan.png")
	require.NoError(t, err)

	found, err := f.svc.PruneAssets(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.True(t, f.assets.Exists(orphan))

	svc := NewProjectService(f.repo, f.assets, f.cache, zap.NewNop(), WithPruneMinAge(0))
	found, err = svc.PruneAssets(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{orphan}, found)
	assert.False(t, f.assets.Exists(orphan))
}

func TestPruneAssets_DuringCreateKeepsUpload(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	hooked := &hookedRepo{ProjectRepository: f.repo}
	svc := NewProjectService(hooked, f.assets, f.cache, zap.NewNop())
	var pruned []string
	hooked.beforeCreate = func() {
		var err error
		pruned, err = svc.PruneAssets(ctx, false)
		require.NoError(t, err)
	}

	p, err := svc.Create(ctx, input("x"), upload("a.png", "x"))
	require.NoError(t, err)
	require.NotNil(t, p.Image)
	assert.Empty(t, pruned)
	assert.True(t, f.assets.Exists(*p.Image), "the upload of a create in progress survives a prune")
}

func TestPruneAssets_RemovesStaleTempFiles(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	stale := filepath.Join(f.root, ".upload-1")
	fresh := filepath.Join(f.root, ".upload-2")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	_, err := f.svc.PruneAssets(ctx, true)
	require.NoError(t, err)
	assert.FileExists(t, stale, "dry run keeps temp files")

	_, err = f.svc.PruneAssets(ctx, false)
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
}

// hookedRepo runs one-shot hooks around repository calls.
type hookedRepo struct {
	*repository.ProjectRepository
	beforeCreate func()
	afterListAll func()
}

func (r *hookedRepo) Create(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	if hook := r.beforeCreate; hook != nil {
		r.beforeCreate = nil
		hook()
	}
	return r.ProjectRepository.Create(ctx, in)
}

func (r *hookedRepo) ListAll(ctx context.Context) ([]domain.Project, error) {
	items, err := r.ProjectRepository.ListAll(ctx)
	if hook := r.afterListAll; hook != nil {
		r.afterListAll = nil
		hook()
	}
	return items, err
}

type failingAssets struct{}

func (failingAssets) Store(context.Context, io.Reader, string) (string, error) {
	return "", &assets.WriteError{Path: "/nowhere", Err: errors.New("no space left on device")}
}

func (failingAssets) Exists(string) bool                   { return false }
func (failingAssets) Remove(string) error                  { return nil }
func (failingAssets) List() ([]string, error)              { return nil, nil }
func (failingAssets) StoredAt(string) (time.Time, bool)    { return time.Time{}, false }
func (failingAssets) PruneTemp(time.Duration) (int, error) { return 0, nil }

var errDisk = &domain.PersistenceError{Op: "test", Err: errors.New("disk I/O error")}

type brokenRepo struct{}

func (brokenRepo) ListAll(context.Context) ([]domain.Project, error) {
	return nil, errDisk
}

func (brokenRepo) Get(context.Context, int64) (*domain.Project, error) {
	return nil, errDisk
}

func (brokenRepo) Create(context.Context, domain.ProjectInput) (*domain.Project, error) {
	return nil, errDisk
}

func (brokenRepo) Update(context.Context, int64, domain.ProjectInput) (*domain.Project, bool, error) {
	return nil, false, errDisk
}

func (brokenRepo) Delete(context.Context, int64) (bool, error) {
	return false, errDisk
}
