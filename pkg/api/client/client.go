// pkg/api/client/client.go
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

var DefaultTimeout = 15 * time.Second
var DefaultConcurrencyLimit = 5

// Client wraps http.Client with rate limiting and concurrency control.
type Client struct {
	client     *http.Client
	semChan    chan struct{}
	maxRetries int
	retryDelay time.Duration
}

// New creates a new API client with the given concurrency limit.
func New(maxConcurrent int, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultConcurrencyLimit
	}
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		semChan:    make(chan struct{}, maxConcurrent),
		maxRetries: 3,
		retryDelay: 1 * time.Second,
	}
}

// Do executes request with rate limiting and concurrency control.
func (c *Client) Do(req *http.Request) (*http.Response, []byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, nil, req.Context().Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
			newReq := req.Clone(req.Context())
			if req.Body != nil && req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, nil, err
				}
				newReq.Body = body
			}
			req = newReq
		}

		c.semChan <- struct{}{}
		resp, body, err := c.doRequest(req)
		<-c.semChan

		if err == nil {
			if resp.StatusCode < 500 {
				if resp.StatusCode == http.StatusTooManyRequests {
					if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
						if secs, err := strconv.Atoi(retryAfter); err == nil {
							time.Sleep(time.Duration(secs) * time.Second)
							continue
						}
					}
				}
				return resp, body, nil
			}
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}
		lastErr = err
	}
	return nil, nil, fmt.Errorf("all retries failed: %v", lastErr)
}

func (c *Client) doRequest(req *http.Request) (*http.Response, []byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}

	return resp, body, nil
}

// FetchBytes скачивает адрес и возвращает тело ответа. Любой сбой — таймаут,
// сетевая ошибка, статус вне 2xx — даёт nil: обложка всегда необязательна.
func (c *Client) FetchBytes(ctx context.Context, url string) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, body, err := c.Do(req)
	if err != nil {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil
	}
	return body
}

// DownloadFile сохраняет адрес в файл на диске.
func (c *Client) DownloadFile(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, body, err := c.Do(req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download status %d", resp.StatusCode)
	}
	return os.WriteFile(path, body, 0o644)
}
