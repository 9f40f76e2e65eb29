package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const defaultWebhookTimeout = 5 * time.Second

// WebhookSink POSTs each message as JSON to a configured endpoint. An
// external relay turns these into mail or chat messages; this process only
// guarantees the POST attempt.
type WebhookSink struct {
	URL    string
	Secret string
	client *http.Client
}

func NewWebhookSink(url, secret string, timeout time.Duration) *WebhookSink {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &WebhookSink{
		URL:    url,
		Secret: secret,
		client: &http.Client{Timeout: timeout},
	}
}

type webhookBody struct {
	Kind       string            `json:"kind"`
	Subject    string            `json:"subject"`
	Recipients []string          `json:"recipients"`
	Template   string            `json:"template"`
	Context    map[string]string `json:"context"`
}

func (s *WebhookSink) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(webhookBody{
		Kind:       string(msg.Kind),
		Subject:    msg.Subject,
		Recipients: msg.Recipients,
		Template:   msg.Template,
		Context:    msg.Context,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Plantline-Event", string(msg.Kind))
	if strings.TrimSpace(s.Secret) != "" {
		req.Header.Set("X-Plantline-Secret", s.Secret)
	}
	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// LogSink writes notifications to the process log. Used when no webhook is
// configured, so workflows still exercise the dispatch path.
type LogSink struct{}

func (LogSink) Send(_ context.Context, msg Message) error {
	log.Printf("notify: [%s] %s -> %s", msg.Kind, msg.Subject, strings.Join(msg.Recipients, ","))
	return nil
}
