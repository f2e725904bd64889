package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/portfolio-backend/config"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/assets"
	authsvc "github.com/GoSim-25-26J-441/portfolio-backend/internal/auth/service"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/projects/cache"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/projects/repository"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/projects/service"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/storage"
)

// App holds the wired components shared by the CLI commands.
type App struct {
	Config    *config.Config
	Log       *zap.Logger
	DB        *storage.DB
	Redis     *redis.Client
	Assets    *assets.Store
	Repo      *repository.ProjectRepository
	Projects  *service.ProjectService
	Authority *authsvc.TokenAuthority
}

func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	authority, err := authsvc.NewTokenAuthority(authsvc.Config{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Username: cfg.Auth.AdminUsername,
		Password: cfg.Auth.AdminPassword,
		TTL:      cfg.Auth.TokenTTL,
		Issuer:   cfg.App.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("token authority: %w", err)
	}

	store, err := assets.New(assets.Config{Root: cfg.Assets.Dir, URLPrefix: cfg.Assets.URLPrefix})
	if err != nil {
		return nil, err
	}

	db, err := OpenDB(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	rdb, err := OpenRedis(ctx, cfg.Cache)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var listCache service.ListCache = cache.Nop{}
	if rdb != nil {
		listCache = cache.NewRedisListCache(rdb, cfg.Cache.TTL)
		log.Info("project cache enabled", zap.String("addr", cfg.Cache.RedisAddr))
	}

	repo := repository.NewProjectRepository(db)
	return &App{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Redis:     rdb,
		Assets:    store,
		Repo:      repo,
		Projects:  service.NewProjectService(repo, store, listCache, log.Named("projects"), service.WithPruneMinAge(cfg.Assets.PruneMinAge)),
		Authority: authority,
	}, nil
}

// Seed inserts the example projects into an empty table. Their bundled
// images are written through the asset store first, like any upload, and
// removed again when nothing was inserted.
func (a *App) Seed(ctx context.Context) error {
	n, err := a.Repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("seed projects: %w", err)
	}
	if n > 0 {
		return nil
	}

	seeds := repository.DefaultSeeds()
	inputs := repository.SeedInputs(seeds)
	var stored []string
	for i, s := range seeds {
		if s.ImageFile == "" {
			continue
		}
		ref, err := a.storeSeedImage(ctx, s.ImageFile)
		if err != nil {
			a.removeAssets(stored)
			return fmt.Errorf("seed image %s: %w", s.ImageFile, err)
		}
		stored = append(stored, ref)
		inputs[i].Image = &ref
	}

	inserted, err := a.Repo.SeedIfEmpty(ctx, inputs)
	if err != nil || inserted == 0 {
		a.removeAssets(stored)
	}
	if err != nil {
		return fmt.Errorf("seed projects: %w", err)
	}
	if inserted > 0 {
		a.Log.Info("seeded example projects", zap.Int("count", inserted))
	}
	return nil
}

func (a *App) storeSeedImage(ctx context.Context, name string) (string, error) {
	f, err := repository.OpenSeedImage(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return a.Assets.Store(ctx, f, name)
}

func (a *App) removeAssets(refs []string) {
	for _, ref := range refs {
		if err := a.Assets.Remove(ref); err != nil {
			a.Log.Warn("asset cleanup failed", zap.String("ref", ref), zap.Error(err))
		}
	}
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	errs = append(errs, a.DB.Close())
	return errors.Join(errs...)
}
