package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	wappalyzer "github.com/projectdiscovery/wappalyzergo"
)

// maxFingerprintBody caps how much of the page is read for fingerprinting.
const maxFingerprintBody = 2 << 20

// Fingerprinter detects the technologies behind a page from its headers
// and body.
type Fingerprinter struct {
	wapp      *wappalyzer.Wappalyze
	client    *http.Client
	userAgent string
}

// NewFingerprinter loads the fingerprint database.
func NewFingerprinter(timeout time.Duration, userAgent string) (*Fingerprinter, error) {
	w, err := wappalyzer.New()
	if err != nil {
		return nil, fmt.Errorf("loading fingerprints: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fingerprinter{
		wapp: w,
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}},
		},
		userAgent: userAgent,
	}, nil
}

// Detect fetches target and returns the sorted names of detected technologies.
func (f *Fingerprinter) Detect(ctx context.Context, target string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFingerprintBody))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", target, err)
	}

	found := f.wapp.Fingerprint(resp.Header, body)
	techs := make([]string, 0, len(found))
	for name := range found {
		techs = append(techs, name)
	}
	sort.Strings(techs)
	return techs, nil
}
