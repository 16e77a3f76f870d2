package logic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultExpoPushURL is Expo's push send endpoint.
const DefaultExpoPushURL = "https://exp.host/--/api/v2/push/send"

// Expo reports tokens of uninstalled apps with this error code.
const ErrDeviceNotRegistered = "DeviceNotRegistered"

// PushMessage is one Expo push notification.
type PushMessage struct {
	To    string                 `json:"to"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Sound string                 `json:"sound,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// PushTicket is Expo's per-message answer, in request order.
type PushTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"`
	} `json:"details"`
}

func (t PushTicket) OK() bool { return t.Status == "ok" }

type pushResponse struct {
	Data   []PushTicket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// PushSender delivers push messages to devices.
type PushSender interface {
	Send(ctx context.Context, msgs []PushMessage) ([]PushTicket, error)
}

// ExpoSender posts messages to the Expo push API.
type ExpoSender struct {
	URL    string
	Client *http.Client
}

func NewExpoSender(url string) *ExpoSender {
	if url == "" {
		url = DefaultExpoPushURL
	}
	return &ExpoSender{URL: url, Client: &http.Client{Timeout: 15 * time.Second}}
}

func (s *ExpoSender) Send(ctx context.Context, msgs []PushMessage) ([]PushTicket, error) {
	if len(msgs) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("encode push messages: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read push response: %w", err)
	}
	var out pushResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode push response (status %d): %w", resp.StatusCode, err)
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("expo push error: %s - %s", out.Errors[0].Code, out.Errors[0].Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("expo push status %d", resp.StatusCode)
	}
	if len(out.Data) != len(msgs) {
		return nil, fmt.Errorf("expo push returned %d tickets for %d messages", len(out.Data), len(msgs))
	}
	return out.Data, nil
}

// ReminderMessage builds the daily check-in push for one device.
func ReminderMessage(token, name string) PushMessage {
	return PushMessage{
		To:    token,
		Title: "How are you feeling?",
		Body:  fmt.Sprintf("Hi %s, take a moment to log today's mood.", name),
		Sound: "default",
		Data:  map[string]interface{}{"type": "reminder"},
	}
}
