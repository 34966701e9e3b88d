package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bft-labs/nsqs/internal/domain"
	"github.com/bft-labs/nsqs/internal/ports"
)

const lookupEndpoint = "/lookup"

// maxResponseBytes caps how much of a lookup response is read.
const maxResponseBytes = 4 << 20

// LookupQuerier implements ports.Querier against nsqlookupd's HTTP API.
type LookupQuerier struct {
	client ports.HTTPClient
}

// NewLookupQuerier creates a querier that issues requests through client.
func NewLookupQuerier(client ports.HTTPClient) *LookupQuerier {
	return &LookupQuerier{client: client}
}

// producer is one entry of the lookup response.
type producer struct {
	BroadcastAddress string `json:"broadcast_address"`
	Hostname         string `json:"hostname"`
	TCPPort          int    `json:"tcp_port"`
}

type lookupData struct {
	Producers []producer `json:"producers"`
}

// lookupResponse accepts both the current shape ({"producers": [...]}) and
// the legacy enveloped shape ({"status_code": 200, "data": {...}}).
type lookupResponse struct {
	lookupData
	StatusCode int         `json:"status_code"`
	StatusTxt  string      `json:"status_txt"`
	Message    string      `json:"message"`
	Data       *lookupData `json:"data"`
}

// topicNotFound is nsqlookupd's answer for a topic with no registrations.
const topicNotFound = "TOPIC_NOT_FOUND"

// isTopicNotFound reports whether a 404 body is nsqlookupd's unknown topic
// reply in either response shape.
func isTopicNotFound(body []byte) bool {
	var lr lookupResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return false
	}
	return lr.Message == topicNotFound || lr.StatusTxt == topicNotFound
}

// Query asks lookupHost for the producers of topic.
func (q *LookupQuerier) Query(ctx context.Context, lookupHost, topic string) ([]domain.ServerAddress, error) {
	endpoint, err := lookupURL(lookupHost, topic)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.nsq; version=1.0")

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// nsqlookupd answers 404 TOPIC_NOT_FOUND for unknown topics. Any other
	// 404 means the host is not a lookup daemon.
	if resp.StatusCode == http.StatusNotFound && isTopicNotFound(body) {
		return nil, nil
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("lookup returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var lr lookupResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if lr.StatusCode == http.StatusNotFound && lr.StatusTxt == topicNotFound {
		return nil, nil
	}
	if lr.StatusCode != 0 && lr.StatusCode/100 != 2 {
		return nil, fmt.Errorf("lookup returned status_code %d: %s", lr.StatusCode, lr.StatusTxt)
	}
	producers := lr.Producers
	if lr.Data != nil {
		producers = lr.Data.Producers
	}

	addrs := make([]domain.ServerAddress, 0, len(producers))
	for _, p := range producers {
		host := p.BroadcastAddress
		if host == "" {
			host = p.Hostname
		}
		addr, err := domain.NewServerAddress(host, p.TCPPort)
		if err != nil {
			return nil, fmt.Errorf("decode producer: %w", err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// lookupURL builds <host>/lookup?topic=<topic>. Hosts without a scheme are
// treated as plain http.
func lookupURL(lookupHost, topic string) (string, error) {
	base := strings.TrimRight(lookupHost, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse lookup host %q: %w", lookupHost, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("parse lookup host %q: missing host", lookupHost)
	}
	u.Path = strings.TrimRight(u.Path, "/") + lookupEndpoint
	u.RawQuery = url.Values{"topic": {topic}}.Encode()
	return u.String(), nil
}
