package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shinyyama/motors-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListingRepository interface {
	Create(ctx context.Context, l *model.Listing) error
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	ListByOwner(ctx context.Context, userUID string) ([]model.Listing, error)
	ListByStatus(ctx context.Context, status model.Status, limit, offset int) ([]model.Listing, int64, error)
	ListPublic(ctx context.Context, now time.Time, limit, offset int) ([]model.Listing, int64, error)
	FindLatestApprovedByEmail(ctx context.Context, email string) (*model.Listing, error)
	ApplyPromotion(ctx context.Context, id string, generation int64, g model.PromotionGrant) (int64, error)
	SetDB(db *gorm.DB)
}

type listingRepository struct {
	dbHandle
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	r := &listingRepository{}
	r.SetDB(db)
	return r
}

func (r *listingRepository) Create(ctx context.Context, l *model.Listing) error {
	q, err := r.session(ctx)
	if err != nil {
		return err
	}
	return q.Create(l).Error
}

func (r *listingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	q, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	var l model.Listing
	if err := q.Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listingRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	q, err := r.session(ctx)
	if err != nil {
		return 0, err
	}
	res := q.Model(&model.Listing{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *listingRepository) Delete(ctx context.Context, id string) (int64, error) {
	q, err := r.session(ctx)
	if err != nil {
		return 0, err
	}
	res := q.Where("id = ?", id).Delete(&model.Listing{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *listingRepository) ListByOwner(ctx context.Context, userUID string) ([]model.Listing, error) {
	q, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	var list []model.Listing
	if err := q.Where("user_id = ?", userUID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *listingRepository) ListByStatus(ctx context.Context, status model.Status, limit, offset int) ([]model.Listing, int64, error) {
	q, err := r.session(ctx)
	if err != nil {
		return nil, 0, err
	}
	var (
		list  []model.Listing
		total int64
	)
	if err := q.Model(&model.Listing{}).Scopes(statusScope(status)).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Scopes(statusScope(status)).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListPublic returns approved listings with unexpired promotions first.
func (r *listingRepository) ListPublic(ctx context.Context, now time.Time, limit, offset int) ([]model.Listing, int64, error) {
	q, err := r.session(ctx)
	if err != nil {
		return nil, 0, err
	}
	var (
		list  []model.Listing
		total int64
	)
	approved := statusScope(model.StatusApproved)
	if err := q.Model(&model.Listing{}).Scopes(approved).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	featuredFirst := clause.OrderBy{Expression: clause.Expr{
		SQL:                "CASE WHEN is_paid AND paid_package_expiration > ? THEN 0 ELSE 1 END, created_at DESC",
		Vars:               []interface{}{now},
		WithoutParentheses: true,
	}}
	if err := q.Scopes(approved).
		Order(featuredFirst).
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// FindLatestApprovedByEmail returns the most recently created approved
// listing owned by email, or gorm.ErrRecordNotFound.
func (r *listingRepository) FindLatestApprovedByEmail(ctx context.Context, email string) (*model.Listing, error) {
	q, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	var l model.Listing
	if err := q.Scopes(statusScope(model.StatusApproved)).
		Where("user_email = ?", email).
		Order("created_at DESC").
		First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// ApplyPromotion writes the grant only if the listing's promotion generation
// still equals generation, and bumps it. Zero rows affected means the listing
// is gone or another grant landed first.
func (r *listingRepository) ApplyPromotion(ctx context.Context, id string, generation int64, g model.PromotionGrant) (int64, error) {
	q, err := r.session(ctx)
	if err != nil {
		return 0, err
	}
	var target model.Listing
	target.Apply(g)
	features, err := json.Marshal(target.PaidFeatures)
	if err != nil {
		return 0, err
	}
	res := q.Model(&model.Listing{}).
		Where("id = ? AND promotion_generation = ?", id, generation).
		Updates(map[string]interface{}{
			"is_paid":                 true,
			"paid_package_id":         target.PaidPackageID,
			"paid_package_name":       target.PaidPackageName,
			"paid_package_expiration": target.PaidPackageExpiration,
			"paid_features":           string(features),
			"paid_at":                 target.PaidAt,
			"promotion_generation":    gorm.Expr("promotion_generation + 1"),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
