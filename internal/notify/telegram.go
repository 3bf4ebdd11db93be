// Package notify delivers workflow notifications over the Telegram Bot
// API. Only two calls are needed: plain text and a captioned photo album.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type TelegramNotifier struct {
	botToken string
	client   *http.Client
}

func NewTelegramNotifier(botToken string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		client: &http.Client{
			Timeout: 8 * time.Second,
		},
	}
}

func (notifier *TelegramNotifier) SendText(userID int64, text string) error {
	values := url.Values{}
	values.Set("chat_id", strconv.FormatInt(userID, 10))
	values.Set("text", text)
	return notifier.call("sendMessage", values)
}

func (notifier *TelegramNotifier) SendPhotoAlbum(userID int64, photoIDs []string, caption string) error {
	if len(photoIDs) == 0 {
		return notifier.SendText(userID, caption)
	}

	type inputMedia struct {
		Type    string `json:"type"`
		Media   string `json:"media"`
		Caption string `json:"caption,omitempty"`
	}
	album := make([]inputMedia, 0, len(photoIDs))
	for i, photoID := range photoIDs {
		item := inputMedia{Type: "photo", Media: photoID}
		// Telegram renders the album caption from the first item.
		if i == 0 {
			item.Caption = caption
		}
		album = append(album, item)
	}
	payload, err := json.Marshal(album)
	if err != nil {
		return fmt.Errorf("encode album: %w", err)
	}

	values := url.Values{}
	values.Set("chat_id", strconv.FormatInt(userID, 10))
	values.Set("media", string(payload))
	return notifier.call("sendMediaGroup", values)
}

func (notifier *TelegramNotifier) call(method string, values url.Values) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/%s", notifier.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := notifier.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
