package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/trackroom/trackroom/internal/application/ports"
)

// HTTPEmitter POSTs audit events to a studio-configured endpoint, one JSON
// document per event. Delivery is at-most-once; a failed emit becomes a log
// line at the call site, never an error for the client request.
type HTTPEmitter struct {
	client *http.Client
	url    string
	secret []byte
}

type HTTPEmitterOption func(*HTTPEmitter)

// WithClient overrides the HTTP client, mainly for tests.
func WithClient(c *http.Client) HTTPEmitterOption {
	return func(e *HTTPEmitter) { e.client = c }
}

// WithSigningSecret adds an HMAC-SHA256 hex signature of the body in
// X-Trackroom-Signature, letting receivers authenticate deliveries.
func WithSigningSecret(secret string) HTTPEmitterOption {
	return func(e *HTTPEmitter) {
		if secret != "" {
			e.secret = []byte(secret)
		}
	}
}

func NewHTTPEmitter(url string, opts ...HTTPEmitterOption) *HTTPEmitter {
	e := &HTTPEmitter{
		client: &http.Client{Timeout: 5 * time.Second},
		url:    url,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// delivery is the wire form of one audit event.
type delivery struct {
	Event      string    `json:"event"`
	ResourceID string    `json:"resource_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	IP         string    `json:"ip,omitempty"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	SentAt     time.Time `json:"sent_at"`
}

func (e *HTTPEmitter) Emit(ctx context.Context, event ports.AuditEvent) error {
	body, err := json.Marshal(delivery{
		Event:      event.Event,
		ResourceID: event.ProjectID,
		ActorID:    event.ActorID,
		IP:         event.IP,
		Success:    event.Success,
		Error:      event.Err,
		SentAt:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Trackroom-Event", event.Event)
	if e.secret != nil {
		mac := hmac.New(sha256.New, e.secret)
		mac.Write(body)
		req.Header.Set("X-Trackroom-Signature", hex.EncodeToString(mac.Sum(nil)))
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	return nil
}

var _ ports.WebhookEmitter = (*HTTPEmitter)(nil)
