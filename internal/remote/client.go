package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pccr10001/ringline/internal/model"
)

var ErrUnexpectedStatus = errors.New("unexpected status")

// Client talks to the record/message store of the controller service.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) FetchConfig(ctx context.Context) (model.RingConfig, error) {
	var cfg model.RingConfig
	if err := c.getJSON(ctx, "/config", &cfg); err != nil {
		return model.RingConfig{}, err
	}
	return cfg, nil
}

func (c *Client) ListMessages(ctx context.Context) ([]model.Message, error) {
	var list []model.Message
	if err := c.getJSON(ctx, "/messages", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// FetchMessage returns the raw audio payload of one message.
func (c *Client) FetchMessage(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/messages/"+url.PathEscape(id)+"/binary", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get message %s: %w %d", id, ErrUnexpectedStatus, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// UploadRecord posts a finished recording as multipart field "file".
func (c *Client) UploadRecord(ctx context.Context, path string) (model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Record{}, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return model.Record{}, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return model.Record{}, fmt.Errorf("read recording: %w", err)
	}
	if err := mw.Close(); err != nil {
		return model.Record{}, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/records", &body, mw.FormDataContentType())
	if err != nil {
		return model.Record{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return model.Record{}, fmt.Errorf("post record: %w %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var rec model.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return model.Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: %w %d", path, ErrUnexpectedStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}
