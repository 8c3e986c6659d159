package solanarpc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// DefaultMaxFailures is how many consecutive failures move the pool on.
const DefaultMaxFailures = 2

// Endpoint is an RPC URL with a priority weight. Higher weights are tried first.
type Endpoint struct {
	URL    string
	Weight int
}

// DefaultEndpoints are public mainnet endpoints.
var DefaultEndpoints = []Endpoint{
	{URL: "https://solana-mainnet.g.alchemy.com/v2/demo", Weight: 3},
	{URL: "https://api.mainnet-beta.solana.com", Weight: 2},
	{URL: "https://rpc.ankr.com/solana", Weight: 2},
	{URL: "https://solana-api.projectserum.com", Weight: 1},
}

// ParseEndpoints parses "url|weight,url|weight". A missing weight is 1.
func ParseEndpoints(raw string) ([]Endpoint, error) {
	var out []Endpoint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		url, weightStr, hasWeight := strings.Cut(part, "|")
		ep := Endpoint{URL: strings.TrimSpace(url), Weight: 1}
		if hasWeight {
			w, err := strconv.Atoi(strings.TrimSpace(weightStr))
			if err != nil || w < 0 {
				return nil, fmt.Errorf("invalid weight for endpoint %q", ep.URL)
			}
			ep.Weight = w
		}
		if ep.URL == "" {
			return nil, fmt.Errorf("empty endpoint url in %q", raw)
		}
		out = append(out, ep)
	}
	return out, nil
}

// Pool picks the active endpoint and rotates after repeated failures.
type Pool struct {
	mu          sync.Mutex
	endpoints   []Endpoint
	current     int
	failures    int
	maxFailures int
}

// NewPool orders endpoints by weight, keeping input order among equals.
func NewPool(endpoints []Endpoint, maxFailures int) *Pool {
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints
	}
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	eps := make([]Endpoint, len(endpoints))
	copy(eps, endpoints)
	sort.SliceStable(eps, func(i, j int) bool { return eps[i].Weight > eps[j].Weight })
	return &Pool{endpoints: eps, maxFailures: maxFailures}
}

func (p *Pool) Len() int { return len(p.endpoints) }

// Current returns the URL calls should go to.
func (p *Pool) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.endpoints[p.current].URL
}

// ReportSuccess resets the failure count if url is still current.
func (p *Pool) ReportSuccess(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.endpoints[p.current].URL == url {
		p.failures = 0
	}
}

// ReportFailure counts a failure against url and reports whether the pool
// rotated. Failures against a URL that is no longer current are ignored.
func (p *Pool) ReportFailure(url string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.endpoints[p.current].URL != url {
		return false
	}
	p.failures++
	if p.failures < p.maxFailures {
		return false
	}
	p.current = (p.current + 1) % len(p.endpoints)
	p.failures = 0
	return true
}
