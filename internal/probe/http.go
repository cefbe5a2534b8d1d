package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"
)

type httpProber struct {
	client *http.Client
	url    string
	expect []int

	// anyStatus treats every response as success.
	anyStatus bool
}

// NewHTTP returns a prober that issues a GET against url. Without explicit
// expected codes any 2xx or 3xx response counts as alive.
func NewHTTP(url string, timeout time.Duration, expect ...int) Prober {
	client := &http.Client{Timeout: timeout}
	return &httpProber{
		client: client,
		url:    url,
		expect: append([]int(nil), expect...),
	}
}

// NewHTTPReachable returns a prober that succeeds whenever the server answers
// at all, whatever the status code.
func NewHTTPReachable(url string, timeout time.Duration) Prober {
	return &httpProber{
		client:    &http.Client{Timeout: timeout},
		url:       url,
		anyStatus: true,
	}
}

func (p *httpProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("request %s: %w", p.url, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if !p.accepts(resp.StatusCode) {
		return fmt.Errorf("%s answered %d", p.url, resp.StatusCode)
	}
	return nil
}

func (p *httpProber) accepts(code int) bool {
	if p.anyStatus {
		return true
	}
	if len(p.expect) > 0 {
		return slices.Contains(p.expect, code)
	}
	return code >= 200 && code < 400
}
