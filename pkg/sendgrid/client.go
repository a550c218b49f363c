// Package sendgrid is a minimal client for the SendGrid v3 mail send
// API.
package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Default base URL for the SendGrid v3 API.
const defaultBaseURL = "https://api.sendgrid.com/v3"

// Client defines the mail send operation.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Address is a named email address.
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Message is a single outbound email.
type Message struct {
	To      Address
	From    Address
	ReplyTo Address
	Subject string
	Text    string
	HTML    string
}

// sendRequest is the body for POST /mail/send.
type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             Address           `json:"from"`
	ReplyTo          *Address          `json:"reply_to,omitempty"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
	TrackingSettings *trackingSettings `json:"tracking_settings,omitempty"`
}

type personalization struct {
	To []Address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type trackingSettings struct {
	ClickTracking trackingToggle `json:"click_tracking"`
	OpenTracking  trackingToggle `json:"open_tracking"`
}

type trackingToggle struct {
	Enable bool `json:"enable"`
}

// APIError is returned when SendGrid responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sendgrid: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new SendGrid client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send delivers one message via POST /mail/send. SendGrid returns
// 202 Accepted on success.
func (c *httpClient) Send(ctx context.Context, msg Message) error {
	req := sendRequest{
		Personalizations: []personalization{{To: []Address{msg.To}}},
		From:             msg.From,
		Subject:          msg.Subject,
		TrackingSettings: &trackingSettings{
			ClickTracking: trackingToggle{Enable: true},
			OpenTracking:  trackingToggle{Enable: true},
		},
	}
	if msg.ReplyTo.Email != "" {
		req.ReplyTo = &msg.ReplyTo
	}
	if msg.Text != "" {
		req.Content = append(req.Content, content{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		req.Content = append(req.Content, content{Type: "text/html", Value: msg.HTML})
	}
	if len(req.Content) == 0 {
		return eris.New("sendgrid: message has no content")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return eris.Wrap(err, "sendgrid: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/mail/send", bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "sendgrid: create request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "sendgrid: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}
