package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/shinyyama/motors-backend/internal/model"
	"github.com/shinyyama/motors-backend/internal/repository"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

type CatalogService interface {
	List(ctx context.Context) ([]model.Package, error)
	ListActive(ctx context.Context) ([]model.Package, error)
	Get(ctx context.Context, id string) (*model.Package, error)
	Create(ctx context.Context, in PackageInput) (*model.Package, error)
	Update(ctx context.Context, id string, in PackageInput) (*model.Package, error)
	Delete(ctx context.Context, id string) error
}

// PackageCache holds the full package list. Implementations are best-effort:
// a miss or a failure simply sends the read to the store.
type PackageCache interface {
	GetPackages(ctx context.Context) ([]model.Package, bool)
	SetPackages(ctx context.Context, pkgs []model.Package)
	InvalidatePackages(ctx context.Context)
}

type PackageInput struct {
	ID        string
	Name      string
	Price     float64
	Duration  string
	Features  []string
	IsActive  *bool
	IsPopular bool
	Color     string
	Icon      string
	SortOrder int
}

type catalogService struct {
	repo  repository.PackageRepository
	cache PackageCache
	group singleflight.Group
}

func NewCatalogService(repo repository.PackageRepository, cache PackageCache) CatalogService {
	return &catalogService{repo: repo, cache: cache}
}

func (s *catalogService) List(ctx context.Context) ([]model.Package, error) {
	if s.cache != nil {
		if pkgs, ok := s.cache.GetPackages(ctx); ok {
			return pkgs, nil
		}
	}
	v, err, _ := s.group.Do("packages", func() (interface{}, error) {
		return s.loadOrSeed(ctx)
	})
	if err != nil {
		return nil, err
	}
	pkgs := v.([]model.Package)
	if s.cache != nil {
		s.cache.SetPackages(ctx, pkgs)
	}
	return pkgs, nil
}

func (s *catalogService) loadOrSeed(ctx context.Context) ([]model.Package, error) {
	pkgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr(err, "list packages")
	}
	if len(pkgs) > 0 {
		return pkgs, nil
	}
	seeded, err := s.repo.SeedIfEmpty(ctx, model.DefaultPackages())
	if err != nil {
		return nil, storeErr(err, "seed default packages")
	}
	if seeded {
		zlog.Ctx(ctx).Info().Msg("promotion catalog was empty; seeded default packages")
	}
	pkgs, err = s.repo.List(ctx)
	if err != nil {
		return nil, storeErr(err, "list packages")
	}
	return pkgs, nil
}

func (s *catalogService) ListActive(ctx context.Context) ([]model.Package, error) {
	pkgs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]model.Package, 0, len(pkgs))
	for _, p := range pkgs {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active, nil
}

// Get falls back to the built-in tier of the same id when the store has no
// such row.
func (s *catalogService) Get(ctx context.Context, id string) (*model.Package, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalid("package id is required")
	}
	p, err := s.repo.FindByID(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr(err, "load package %s", id)
	}
	if def, ok := model.DefaultPackage(id); ok {
		return &def, nil
	}
	return nil, errors.Wrapf(ErrNotFound, "package %s", id)
}

func (s *catalogService) Create(ctx context.Context, in PackageInput) (*model.Package, error) {
	p := &model.Package{IsActive: true}
	if err := applyPackageInput(p, in); err != nil {
		return nil, err
	}
	p.ID = strings.TrimSpace(in.ID)
	if p.ID == "" {
		p.ID = uuid.NewString()
	} else if _, err := s.repo.FindByID(ctx, p.ID); err == nil {
		return nil, errors.Wrapf(ErrConflict, "package %s already exists", p.ID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr(err, "load package %s", p.ID)
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, storeErr(err, "create package %s", p.ID)
	}
	s.invalidate(ctx)
	return p, nil
}

func (s *catalogService) Update(ctx context.Context, id string, in PackageInput) (*model.Package, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "load package %s", id)
	}
	if err := applyPackageInput(p, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, storeErr(err, "update package %s", id)
	}
	s.invalidate(ctx)
	return p, nil
}

func (s *catalogService) Delete(ctx context.Context, id string) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return storeErr(err, "delete package %s", id)
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "package %s", id)
	}
	s.invalidate(ctx)
	return nil
}

func (s *catalogService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidatePackages(ctx)
	}
}

func applyPackageInput(p *model.Package, in PackageInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 120 {
		return invalid("invalid package name")
	}
	if in.Price < 0 {
		return invalid("price must not be negative")
	}
	duration := strings.TrimSpace(in.Duration)
	if _, ok := model.ParseDuration(duration); !ok {
		return invalid("unsupported duration %q", in.Duration)
	}
	features := make([]string, 0, len(in.Features))
	for _, f := range in.Features {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	p.Name = name
	p.Price = in.Price
	p.Duration = duration
	p.Features = features
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.IsPopular = in.IsPopular
	p.Color = strings.TrimSpace(in.Color)
	p.Icon = strings.TrimSpace(in.Icon)
	p.SortOrder = in.SortOrder
	return nil
}
