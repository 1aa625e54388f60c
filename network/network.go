// Package network fetches pages from novel sites and resolves their text
// encoding. Transport failures are the only errors surfaced to callers,
// decode problems are always recovered internally.
package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Breeze-mi/Novel-crawler/base"
	"github.com/charmbracelet/log"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.5359.125 Safari/537.36"

const (
	DefaultTimeout  = 20 * time.Second
	DefaultRetryCnt = 3

	retryBackoffStep = 300 * time.Millisecond
)

var ErrMaxRetry = errors.New("max retry")

// Fetcher requests pages with bounded retry and charset resolution.
type Fetcher struct {
	client    *http.Client
	userAgent string
	retryCnt  int
}

func NewFetcher(timeout time.Duration, retryCnt int) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: base.GetDurationOr(timeout, DefaultTimeout)},
		userAgent: DefaultUserAgent,
		retryCnt:  base.GetIntOr(retryCnt, DefaultRetryCnt),
	}
}

// Fetch requests given URL and returns decoded page text. Failed requests are
// retried with linear backoff, the last error is wrapped into ErrMaxRetry
// once all attempts fail.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= f.retryCnt; attempt++ {
		text, err := f.fetchOnce(ctx, pageURL)
		if err == nil {
			return text, nil
		}

		lastErr = err
		if attempt == f.retryCnt {
			break
		}

		log.Warnf("request failed (%d/%d) %s: %s", attempt, f.retryCnt, pageURL, err)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(retryBackoffStep * time.Duration(attempt)):
		}
	}

	return "", fmt.Errorf("%w: give up requesting %s: %s", ErrMaxRetry, pageURL, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid request URL %s: %s", pageURL, err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("bad response status %s for %s", resp.Status, pageURL)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body of %s: %s", pageURL, err)
	}

	data, err := DecompressBody(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return "", err
	}

	return DecodeBody(data, resp.Header.Get("Content-Type")), nil
}
