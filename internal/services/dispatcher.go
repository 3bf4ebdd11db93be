package services

import "log/slog"

// Notifier delivers messages over the chat transport. Best effort: the
// dispatcher treats every error as recoverable.
type Notifier interface {
	SendText(userID int64, text string) error
	SendPhotoAlbum(userID int64, photoIDs []string, caption string) error
}

// NotificationDispatcher drains intents emitted by the workflow engine.
// A failed recipient is logged and skipped; the loop always finishes.
type NotificationDispatcher struct {
	notifier Notifier
}

func NewNotificationDispatcher(notifier Notifier) *NotificationDispatcher {
	return &NotificationDispatcher{notifier: notifier}
}

func (dispatcher *NotificationDispatcher) Dispatch(notifications []Notification) int {
	sent := 0
	for _, notification := range notifications {
		var err error
		if len(notification.PhotoIDs) > 0 {
			err = dispatcher.notifier.SendPhotoAlbum(notification.UserID, notification.PhotoIDs, notification.Text)
		} else {
			err = dispatcher.notifier.SendText(notification.UserID, notification.Text)
		}
		if err != nil {
			slog.Warn("notification delivery failed",
				"user_id", notification.UserID,
				"error", err,
			)
			continue
		}
		sent++
	}
	return sent
}

func logMediaDeleteFailure(fileID string, err error) {
	slog.Warn("media blob delete failed", "file_id", fileID, "error", err)
}
