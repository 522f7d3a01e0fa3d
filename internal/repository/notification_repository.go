package repository

import (
	"context"

	"github.com/shinyyama/motors-backend/internal/model"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkAllRead(ctx context.Context, userUID string) error
	MarkByListing(ctx context.Context, userUID, listingID string) error
	CountUnread(ctx context.Context, userUID string) (int64, error)
	SetDB(db *gorm.DB)
}

type notificationRepository struct {
	dbHandle
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	r := &notificationRepository{}
	r.SetDB(db)
	return r
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	q, err := r.session(ctx)
	if err != nil {
		return err
	}
	return q.Create(n).Error
}

func (r *notificationRepository) ListByUser(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	q, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	var list []model.Notification
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	q = q.Model(&model.Notification{}).Where("user_uid = ?", userUID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	if err := q.Order("created_at DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userUID string) error {
	q, err := r.session(ctx)
	if err != nil {
		return err
	}
	return q.Model(&model.Notification{}).
		Where("user_uid = ? AND read_at IS NULL", userUID).
		Update("read_at", q.NowFunc()).Error
}

func (r *notificationRepository) MarkByListing(ctx context.Context, userUID, listingID string) error {
	q, err := r.session(ctx)
	if err != nil {
		return err
	}
	return q.Model(&model.Notification{}).
		Where("user_uid = ? AND listing_id = ? AND read_at IS NULL", userUID, listingID).
		Update("read_at", q.NowFunc()).Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, userUID string) (int64, error) {
	q, err := r.session(ctx)
	if err != nil {
		return 0, err
	}
	var cnt int64
	if err := q.Model(&model.Notification{}).
		Where("user_uid = ? AND read_at IS NULL", userUID).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}
