// Package backend talks to transcription and chat services.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"golang.org/x/net/http2"
)

const (
	DefaultLocalURL      = "http://localhost:3000"
	DefaultAuthorization = "INTERNAL"
	DefaultTimeout       = 120 * time.Second

	maxErrorBody = 2048
)

// StatusError is a non-2xx reply from a backend.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Body)
}

// LocalOptions configures the self-hosted backend client.
type LocalOptions struct {
	BaseURL       string
	Authorization string
	Timeout       time.Duration
	HTTP2         bool
}

// Local calls POST /transcribe and POST /chat/nostream on a self-hosted service.
type Local struct {
	baseURL string
	auth    string
	http    *http.Client
}

func NewLocal(opts LocalOptions) (*Local, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultLocalURL
	}
	auth := opts.Authorization
	if auth == "" {
		auth = DefaultAuthorization
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client, err := newHTTPClient(timeout, opts.HTTP2)
	if err != nil {
		return nil, err
	}
	return &Local{baseURL: base, auth: auth, http: client}, nil
}

func newHTTPClient(timeout time.Duration, enableHTTP2 bool) (*http.Client, error) {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if enableHTTP2 {
		if err := configureHTTP2(tr); err != nil {
			return nil, err
		}
	}
	return &http.Client{Transport: tr, Timeout: timeout}, nil
}

func configureHTTP2(tr *http.Transport) error {
	if err := http2.ConfigureTransport(tr); err != nil {
		return fmt.Errorf("enable http2 for local backend: %w", err)
	}
	return nil
}

// BaseURL is used by health checks.
func (l *Local) BaseURL() string { return l.baseURL }

type transcriptionReply struct {
	Text string `json:"text"`
}

type chatRequest struct {
	Text string `json:"text"`
}

type chatReply struct {
	Response string `json:"response"`
}

// Transcribe uploads a WAV container as multipart field "audio".
func (l *Local) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="audio"; filename="audio.wav"`)
	header.Set("Content-Type", "audio/wav")
	part, err := form.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("create audio part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write audio part: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	var reply transcriptionReply
	if err := l.post(ctx, "transcribe", "/transcribe", form.FormDataContentType(), &body, &reply); err != nil {
		return "", err
	}
	return reply.Text, nil
}

// Respond posts transcript text and returns the assistant reply.
func (l *Local) Respond(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(chatRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	var reply chatReply
	if err := l.post(ctx, "respond", "/chat/nostream", "application/json", bytes.NewReader(payload), &reply); err != nil {
		return "", err
	}
	return reply.Response, nil
}

func (l *Local) post(ctx context.Context, op string, path string, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", l.auth)
	req.Header.Set("Content-Type", contentType)

	resp, err := l.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: parse response: %w", op, err)
	}
	return nil
}
