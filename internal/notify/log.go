package notify

import "log/slog"

// LogNotifier is the fallback transport when no bot token is configured:
// every delivery is written to the log instead of the chat platform.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (LogNotifier) SendText(userID int64, text string) error {
	slog.Info("notification (dry run)", "user_id", userID, "text", text)
	return nil
}

func (LogNotifier) SendPhotoAlbum(userID int64, photoIDs []string, caption string) error {
	slog.Info("notification album (dry run)", "user_id", userID, "photos", len(photoIDs), "caption", caption)
	return nil
}
