package repository

import (
	"context"

	"github.com/shinyyama/motors-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PackageRepository interface {
	List(ctx context.Context) ([]model.Package, error)
	FindByID(ctx context.Context, id string) (*model.Package, error)
	Create(ctx context.Context, p *model.Package) error
	Update(ctx context.Context, p *model.Package) error
	Delete(ctx context.Context, id string) (int64, error)
	// SeedIfEmpty inserts pkgs when the table holds no rows and reports
	// whether anything was written. Existing ids are left untouched.
	SeedIfEmpty(ctx context.Context, pkgs []model.Package) (bool, error)
	SetDB(db *gorm.DB)
}

type packageRepository struct {
	dbHandle
}

func NewPackageRepository(db *gorm.DB) PackageRepository {
	r := &packageRepository{}
	r.SetDB(db)
	return r
}

func (r *packageRepository) List(ctx context.Context) ([]model.Package, error) {
	q, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	var list []model.Package
	if err := q.Order("sort_order ASC, created_at ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *packageRepository) FindByID(ctx context.Context, id string) (*model.Package, error) {
	q, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	var p model.Package
	if err := q.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *packageRepository) Create(ctx context.Context, p *model.Package) error {
	q, err := r.session(ctx)
	if err != nil {
		return err
	}
	return q.Create(p).Error
}

func (r *packageRepository) Update(ctx context.Context, p *model.Package) error {
	q, err := r.session(ctx)
	if err != nil {
		return err
	}
	return q.Save(p).Error
}

func (r *packageRepository) Delete(ctx context.Context, id string) (int64, error) {
	q, err := r.session(ctx)
	if err != nil {
		return 0, err
	}
	res := q.Where("id = ?", id).Delete(&model.Package{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *packageRepository) SeedIfEmpty(ctx context.Context, pkgs []model.Package) (bool, error) {
	q, err := r.session(ctx)
	if err != nil {
		return false, err
	}
	seeded := false
	err = q.Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&model.Package{}).Clauses(clause.Locking{Strength: "UPDATE"}).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return nil
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&pkgs)
		if res.Error != nil {
			return res.Error
		}
		seeded = res.RowsAffected > 0
		return nil
	})
	return seeded, err
}
