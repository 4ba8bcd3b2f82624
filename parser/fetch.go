package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ecolabdata/ecospheres-vocabularies/metrics"
)

// maxResponseSize bounds remote register responses.
const maxResponseSize = 64 * 1024 * 1024 // 64MB

// defaultTimeout applies when neither the catalog nor the caller set one.
const defaultTimeout = 30 * time.Second

// HTTPError is a transport failure translated into a logical error so
// parsers never have to inspect raw responses.
type HTTPError struct {
	URL        string
	StatusCode int
}

// Error implements error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// fetchBytes performs an HTTP GET honouring the request options carried
// in params (timeout, proxy, basic auth) and returns the bounded body.
func fetchBytes(ctx context.Context, vocabulary, rawURL string, params Params, accept string) ([]byte, error) {
	data, err := doFetch(ctx, rawURL, params, accept)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.FetchTotal.WithLabelValues(vocabulary, outcome).Inc()
	return data, err
}

func doFetch(ctx context.Context, rawURL string, params Params, accept string) ([]byte, error) {
	timeout := params.Timeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport
	if proxy := params.String(ParamProxy); proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", proxy, err)
		}
		base, ok := transport.(*http.Transport)
		if ok {
			t := base.Clone()
			t.Proxy = http.ProxyURL(proxyURL)
			transport = t
		}
	}
	client := &http.Client{Timeout: timeout, Transport: transport}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if user := params.String(ParamUser); user != "" {
		req.SetBasicAuth(user, params.String(ParamPassword))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return data, nil
}

// fetchJSON fetches rawURL and decodes the JSON body into v.
func fetchJSON(ctx context.Context, vocabulary, rawURL string, params Params, v any) error {
	data, err := fetchBytes(ctx, vocabulary, rawURL, params, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode JSON from %s: %w", rawURL, err)
	}
	return nil
}
