package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/unicode"

	"github.com/de-tools/compliance-signals/pkg/services/config"
)

var ErrUnexpectedStatus = errors.New("unexpected status")

// Fetcher downloads the compliance-action export once per call.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
	URL() string
}

type httpFetcher struct {
	url       string
	userAgent string
	client    *http.Client
}

func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

func NewFetcher(cfg config.SourceConfig) Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	return &httpFetcher{url: cfg.URL, userAgent: ua, client: NewHTTPClient(timeout)}
}

func (f *httpFetcher) URL() string { return f.url }

// Fetch performs a single GET and returns the body as UTF-8 text. Invalid
// byte sequences are dropped and a leading byte order mark is stripped.
func (f *httpFetcher) Fetch(ctx context.Context) (string, error) {
	logger := zerolog.Ctx(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/csv, */*")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", f.url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close export response body")
		}
	}()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w %d from %s: %s", ErrUnexpectedStatus, resp.StatusCode, f.url, strings.TrimSpace(string(b)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read export body: %w", err)
	}

	logger.Debug().
		Str("url", f.url).
		Int("status", resp.StatusCode).
		Int("bytes", len(raw)).
		Dur("elapsed", time.Since(start)).
		Msg("export downloaded")

	return Decode(raw)
}

// Decode converts raw export bytes to text the way the CSV reader expects.
func Decode(raw []byte) (string, error) {
	text := strings.ToValidUTF8(string(raw), "")
	out, err := unicode.UTF8BOM.NewDecoder().String(text)
	if err != nil {
		return "", fmt.Errorf("failed to decode export: %w", err)
	}
	return out, nil
}

// Preview returns at most n runes of text; n <= 0 returns "".
func Preview(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
