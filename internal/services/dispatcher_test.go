package services

import (
	"errors"
	"testing"
)

type flakyNotifier struct {
	failFor int64
	texts   []int64
	albums  []int64
}

func (notifier *flakyNotifier) SendText(userID int64, text string) error {
	if userID == notifier.failFor {
		return errors.New("chat blocked")
	}
	notifier.texts = append(notifier.texts, userID)
	return nil
}

func (notifier *flakyNotifier) SendPhotoAlbum(userID int64, photoIDs []string, caption string) error {
	if userID == notifier.failFor {
		return errors.New("chat blocked")
	}
	notifier.albums = append(notifier.albums, userID)
	return nil
}

func TestDispatchContinuesPastFailedRecipients(t *testing.T) {
	notifier := &flakyNotifier{failFor: 2}
	dispatcher := NewNotificationDispatcher(notifier)

	sent := dispatcher.Dispatch([]Notification{
		{UserID: 1, Text: "hello"},
		{UserID: 2, Text: "hello"},
		{UserID: 3, Text: "hello"},
	})

	if sent != 2 {
		t.Fatalf("Dispatch() sent = %d, want 2", sent)
	}
	if len(notifier.texts) != 2 {
		t.Fatalf("delivered to %v, want users 1 and 3", notifier.texts)
	}
}

func TestDispatchUsesAlbumWhenPhotosAttached(t *testing.T) {
	notifier := &flakyNotifier{}
	dispatcher := NewNotificationDispatcher(notifier)

	dispatcher.Dispatch([]Notification{
		{UserID: 1, Text: "look", PhotoIDs: []string{"p1", "p2"}},
		{UserID: 2, Text: "plain"},
	})

	if len(notifier.albums) != 1 || notifier.albums[0] != 1 {
		t.Fatalf("albums sent to %v, want [1]", notifier.albums)
	}
	if len(notifier.texts) != 1 || notifier.texts[0] != 2 {
		t.Fatalf("texts sent to %v, want [2]", notifier.texts)
	}
}
