package service

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/shinyyama/motors-backend/internal/model"
	"github.com/shinyyama/motors-backend/internal/repository"
)

type NotificationService interface {
	Notify(ctx context.Context, userUID, typ, title, body string, listingID, orderID *string)
	List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, userUID string) error
	MarkByListing(ctx context.Context, userUID, listingID string) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

// Notify is best-effort; it logs errors but does not return them to avoid breaking main flows.
func (s *notificationService) Notify(ctx context.Context, userUID, typ, title, body string, listingID, orderID *string) {
	if userUID == "" || typ == "" {
		return
	}
	ctx, cancel := withShortDeadline(ctx)
	defer cancel()
	n := &model.Notification{
		UserUID:        userUID,
		Type:           typ,
		Title:          title,
		Body:           body,
		ListingID:      listingID,
		PaymentOrderID: orderID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		zlog.Ctx(ctx).Warn().Err(err).Str("user", userUID).Str("type", typ).Msg("notification not stored")
	}
}

func (s *notificationService) List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if userUID == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, userUID, unreadOnly, limit)
	if err != nil {
		return nil, 0, storeErr(err, "list notifications")
	}
	cnt, err := s.repo.CountUnread(ctx, userUID)
	if err != nil {
		return list, 0, storeErr(err, "count unread notifications")
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userUID string) error {
	if userUID == "" {
		return nil
	}
	return storeErr(s.repo.MarkAllRead(ctx, userUID), "mark notifications read")
}

func (s *notificationService) MarkByListing(ctx context.Context, userUID, listingID string) error {
	if userUID == "" || listingID == "" {
		return nil
	}
	return storeErr(s.repo.MarkByListing(ctx, userUID, listingID), "mark listing notifications read")
}

func strPtr(v string) *string {
	return &v
}

// withShortDeadline wraps context with a short deadline to avoid blocking main flow.
func withShortDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 2*time.Second)
}
