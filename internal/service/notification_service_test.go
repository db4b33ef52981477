package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookora/internal/config"
	"bookora/internal/domain"
	"bookora/internal/domain/models"
	"bookora/internal/domain/services"
)

func note(title string) services.CreateNotificationRequest {
	return services.CreateNotificationRequest{Type: models.NotificationNewPost, Title: title, Message: title}
}

func TestNotificationsAreCappedPerUser(t *testing.T) {
	svc := NewNotificationService(testLogger())
	for i := 0; i < config.MaxNotifications+5; i++ {
		svc.Create("u@x.com", note("n"))
	}
	last := svc.Create("u@x.com", note("latest"))

	list := svc.List("U@x.com")
	require.Len(t, list, config.MaxNotifications)
	assert.Equal(t, last.ID, list[0].ID)
	assert.Regexp(t, `^notif_\d+_`, last.ID)
	assert.Empty(t, svc.List("other@x.com"))
}

func TestReadState(t *testing.T) {
	svc := NewNotificationService(testLogger())
	var ids []string
	for i := 0; i < 7; i++ {
		ids = append(ids, svc.Create("u@x.com", note("n")).ID)
	}

	assert.Equal(t, 7, svc.UnreadCount("u@x.com"))
	assert.Len(t, svc.RecentUnread("u@x.com", 0), 5, "default limit")

	require.NoError(t, svc.MarkRead("u@x.com", ids[6]))
	recent := svc.RecentUnread("u@x.com", 5)
	require.Len(t, recent, 5)
	assert.Equal(t, ids[5], recent[0].ID)
	assert.Equal(t, 6, svc.UnreadCount("u@x.com"))

	assert.ErrorIs(t, svc.MarkRead("u@x.com", "missing"), domain.ErrNotFound)

	svc.MarkAllRead("u@x.com")
	assert.Zero(t, svc.UnreadCount("u@x.com"))
	assert.Empty(t, svc.RecentUnread("u@x.com", 5))
}

func TestDeleteNotifications(t *testing.T) {
	svc := NewNotificationService(testLogger())
	a := svc.Create("u@x.com", note("a"))
	svc.Create("u@x.com", note("b"))

	require.NoError(t, svc.Delete("u@x.com", a.ID))
	assert.Len(t, svc.List("u@x.com"), 1)
	assert.ErrorIs(t, svc.Delete("u@x.com", a.ID), domain.ErrNotFound)

	svc.DeleteAll("u@x.com")
	assert.Empty(t, svc.List("u@x.com"))
}

func TestBroadcastAndSubscribe(t *testing.T) {
	svc := NewNotificationService(testLogger())
	events, cancel := svc.Subscribe("b@x.com")

	svc.Broadcast([]string{"a@x.com", "b@x.com"}, note("hello"))

	select {
	case n := <-events:
		assert.Equal(t, "hello", n.Title)
	case <-time.After(time.Second):
		t.Fatal("subscriber received nothing")
	}
	assert.Len(t, svc.List("a@x.com"), 1)

	cancel()
	cancel()
	_, open := <-events
	assert.False(t, open, "cancel closes the stream")

	svc.Create("b@x.com", note("after"))
	assert.Len(t, svc.List("b@x.com"), 2)
}
