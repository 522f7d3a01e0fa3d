package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shinyyama/motors-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockNotificationRepo struct {
	createFn      func(ctx context.Context, n *model.Notification) error
	listFn        func(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, error)
	countUnreadFn func(ctx context.Context, userUID string) (int64, error)
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return m.createFn(ctx, n)
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	return m.listFn(ctx, userUID, unreadOnly, limit)
}

func (m *mockNotificationRepo) MarkAllRead(context.Context, string) error { return nil }

func (m *mockNotificationRepo) MarkByListing(context.Context, string, string) error { return nil }

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userUID string) (int64, error) {
	return m.countUnreadFn(ctx, userUID)
}

func (m *mockNotificationRepo) SetDB(*gorm.DB) {}

func TestNotifySwallowsStoreErrors(t *testing.T) {
	var stored *model.Notification
	repo := &mockNotificationRepo{createFn: func(_ context.Context, n *model.Notification) error {
		stored = n
		return errors.New("table locked")
	}}
	svc := NewNotificationService(repo)

	svc.Notify(context.Background(), "u1", model.NotificationListingApproved, "title", "body", strPtr("L1"), nil)
	require.NotNil(t, stored)
	assert.Equal(t, "L1", *stored.ListingID)
	assert.Nil(t, stored.PaymentOrderID)
}

func TestNotifySkipsAnonymous(t *testing.T) {
	repo := &mockNotificationRepo{createFn: func(context.Context, *model.Notification) error {
		t.Fatal("unexpected create")
		return nil
	}}
	NewNotificationService(repo).Notify(context.Background(), "", model.NotificationListingApproved, "", "", nil, nil)
}

func TestNotificationList(t *testing.T) {
	repo := &mockNotificationRepo{
		listFn: func(_ context.Context, uid string, unreadOnly bool, limit int) ([]model.Notification, error) {
			assert.Equal(t, "u1", uid)
			assert.True(t, unreadOnly)
			return []model.Notification{{ID: 1, UserUID: uid}}, nil
		},
		countUnreadFn: func(context.Context, string) (int64, error) { return 4, nil },
	}
	list, unread, err := NewNotificationService(repo).List(context.Background(), "u1", true, 20)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.EqualValues(t, 4, unread)

	repo.listFn = func(context.Context, string, bool, int) ([]model.Notification, error) {
		return nil, errors.New("gone")
	}
	_, _, err = NewNotificationService(repo).List(context.Background(), "u1", true, 20)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
