// Package probe checks that a target answers before fuzzing starts and
// reports what it learns about it along the way.
package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds the reachability request.
const DefaultTimeout = 5 * time.Second

const maxRedirects = 10

// ErrUnreachable is returned when no scheme yields an HTTP 200.
var ErrUnreachable = errors.New("target not reachable (no scheme returned HTTP 200)")

// Hop is one step of a redirect chain.
type Hop struct {
	StatusCode int
	From       string
	To         string
}

// Report describes a single probe of one candidate URL.
type Report struct {
	URL           string
	Scheme        string
	Host          string
	IP            string
	RDNS          string
	Chain         []Hop
	FinalURL      string
	StatusCode    int
	Server        string
	ContentType   string
	ContentLength string
}

// Reachable reports whether the probe ended with HTTP 200.
func (r *Report) Reachable() bool {
	return r.StatusCode == http.StatusOK
}

// Attempt is the outcome of probing one candidate URL.
type Attempt struct {
	URL    string
	Report *Report // nil when Err is set before any response
	Err    error
}

// Prober issues HEAD requests that follow redirects.
type Prober struct {
	timeout   time.Duration
	resolver  *net.Resolver
	transport http.RoundTripper
	userAgent string
}

// New creates a Prober. A zero timeout uses DefaultTimeout.
func New(timeout time.Duration, userAgent string) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		timeout:  timeout,
		resolver: net.DefaultResolver,
		transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			DialContext:     (&net.Dialer{Timeout: timeout}).DialContext,
		},
		userAgent: userAgent,
	}
}

// Candidates returns the URLs to try for raw input: the input itself when
// it carries a scheme, otherwise http:// and then https://.
func Candidates(raw string) []string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return []string{raw}
	}
	return []string{"http://" + raw, "https://" + raw}
}

// Check probes every candidate for raw until one answers HTTP 200. It
// returns all attempts made and the reachable report, or ErrUnreachable.
func (p *Prober) Check(ctx context.Context, raw string) ([]Attempt, *Report, error) {
	var attempts []Attempt
	for _, candidate := range Candidates(raw) {
		rep, err := p.Probe(ctx, candidate)
		attempts = append(attempts, Attempt{URL: candidate, Report: rep, Err: err})
		if err == nil && rep.Reachable() {
			return attempts, rep, nil
		}
		if ctx.Err() != nil {
			return attempts, nil, ctx.Err()
		}
	}
	return attempts, nil, ErrUnreachable
}

// Probe resolves the host of target and sends a HEAD request that follows
// redirects. A non-nil Report with a partial picture may accompany an error.
func (p *Prober) Probe(ctx context.Context, target string) (*Report, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", target, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", target)
	}

	rep := &Report{URL: target, Scheme: u.Scheme, Host: u.Hostname(), RDNS: "N/A"}

	addrs, err := p.resolver.LookupHost(ctx, rep.Host)
	if err != nil {
		return rep, fmt.Errorf("resolving %s: %w", rep.Host, err)
	}
	rep.IP = addrs[0]
	if names, err := p.resolver.LookupAddr(ctx, rep.IP); err == nil && len(names) > 0 {
		rep.RDNS = strings.TrimSuffix(names[0], ".")
	}

	client := &http.Client{
		Transport: p.transport,
		Timeout:   p.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			hop := Hop{From: via[len(via)-1].URL.String(), To: req.URL.String()}
			if req.Response != nil {
				hop.StatusCode = req.Response.StatusCode
			}
			rep.Chain = append(rep.Chain, hop)
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return rep, err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return rep, fmt.Errorf("connection failed: %w", err)
	}
	defer resp.Body.Close()

	rep.StatusCode = resp.StatusCode
	rep.FinalURL = resp.Request.URL.String()
	rep.Server = headerOr(resp.Header, "Server", "N/A")
	rep.ContentType = headerOr(resp.Header, "Content-Type", "N/A")
	rep.ContentLength = headerOr(resp.Header, "Content-Length", "N/A")
	if rep.ContentLength == "N/A" && resp.ContentLength >= 0 {
		rep.ContentLength = strconv.FormatInt(resp.ContentLength, 10)
	}
	return rep, nil
}

func headerOr(h http.Header, key, fallback string) string {
	if v := h.Get(key); v != "" {
		return v
	}
	return fallback
}
