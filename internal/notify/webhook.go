package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookChannel POSTs events as JSON to an external endpoint.
type WebhookChannel struct {
	client *http.Client
	url    string
}

func NewWebhookChannel(url, token string) *WebhookChannel {
	return &WebhookChannel{
		url: url,
		client: &http.Client{
			Transport: &bearerTransport{
				Token: token,
				Base:  http.DefaultTransport,
			},
			Timeout: 10 * time.Second,
		},
	}
}

// bearerTransport adds the auth header to every outgoing request.
type bearerTransport struct {
	Token string
	Base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Token != "" {
		req.Header.Set("Authorization", "Bearer "+t.Token)
	}
	req.Header.Set("Content-Type", "application/json")
	return t.Base.RoundTrip(req)
}

func (c *WebhookChannel) Deliver(ctx context.Context, ev OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
