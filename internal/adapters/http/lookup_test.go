package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bft-labs/nsqs/internal/domain"
)

func TestLookupQuerier_Query(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    []domain.ServerAddress
		wantErr bool
	}{
		{
			name:   "current response shape",
			status: http.StatusOK,
			body: `{"channels":["c"],"producers":[
				{"broadcast_address":"10.0.0.1","hostname":"a","tcp_port":4150,"http_port":4151},
				{"broadcast_address":"10.0.0.2","hostname":"b","tcp_port":4152}]}`,
			want: []domain.ServerAddress{{Host: "10.0.0.1", Port: 4150}, {Host: "10.0.0.2", Port: 4152}},
		},
		{
			name:   "legacy enveloped shape",
			status: http.StatusOK,
			body:   `{"status_code":200,"status_txt":"OK","data":{"producers":[{"broadcast_address":"10.0.0.3","tcp_port":4150}]}}`,
			want:   []domain.ServerAddress{{Host: "10.0.0.3", Port: 4150}},
		},
		{
			name:   "falls back to hostname",
			status: http.StatusOK,
			body:   `{"producers":[{"hostname":"nsqd-1","tcp_port":4150}]}`,
			want:   []domain.ServerAddress{{Host: "nsqd-1", Port: 4150}},
		},
		{
			name:   "no producers",
			status: http.StatusOK,
			body:   `{"producers":[]}`,
			want:   []domain.ServerAddress{},
		},
		{
			name:   "unknown topic",
			status: http.StatusNotFound,
			body:   `{"message":"TOPIC_NOT_FOUND"}`,
			want:   nil,
		},
		{
			name:   "unknown topic legacy shape",
			status: http.StatusNotFound,
			body:   `{"status_code":404,"status_txt":"TOPIC_NOT_FOUND","data":null}`,
			want:   nil,
		},
		{
			name:   "unknown topic enveloped in a 200",
			status: http.StatusOK,
			body:   `{"status_code":404,"status_txt":"TOPIC_NOT_FOUND","data":null}`,
			want:   nil,
		},
		{
			name:    "404 from a host that is not nsqlookupd",
			status:  http.StatusNotFound,
			body:    "404 page not found",
			wantErr: true,
		},
		{
			name:    "404 with unrelated json",
			status:  http.StatusNotFound,
			body:    `{"message":"NOT_FOUND"}`,
			wantErr: true,
		},
		{
			name:    "legacy error envelope without data",
			status:  http.StatusOK,
			body:    `{"status_code":500,"status_txt":"INTERNAL_ERROR","data":null}`,
			wantErr: true,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    "boom",
			wantErr: true,
		},
		{
			name:    "unparseable body",
			status:  http.StatusOK,
			body:    "<html>",
			wantErr: true,
		},
		{
			name:    "legacy error envelope",
			status:  http.StatusOK,
			body:    `{"status_code":500,"data":{"producers":[]}}`,
			wantErr: true,
		},
		{
			name:    "invalid producer port",
			status:  http.StatusOK,
			body:    `{"producers":[{"broadcast_address":"x","tcp_port":0}]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotTopic string
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotTopic = r.URL.Query().Get("topic")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			q := NewLookupQuerier(ts.Client())
			got, err := q.Query(context.Background(), ts.URL, "orders & co")

			if gotPath != "/lookup" {
				t.Errorf("path = %s, want /lookup", gotPath)
			}
			if gotTopic != "orders & co" {
				t.Errorf("topic = %q, want %q", gotTopic, "orders & co")
			}
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

type failingClient struct{ err error }

func (c failingClient) Do(*http.Request) (*http.Response, error) { return nil, c.err }

func TestLookupQuerier_TransportError(t *testing.T) {
	errDown := errors.New("connection refused")
	q := NewLookupQuerier(failingClient{err: errDown})

	_, err := q.Query(context.Background(), "127.0.0.1:4161", "t")
	if !errors.Is(err, errDown) {
		t.Errorf("expected wrapped transport error, got %v", err)
	}
}

func TestLookupURL(t *testing.T) {
	tests := []struct {
		host    string
		want    string
		wantErr bool
	}{
		{host: "127.0.0.1:4161", want: "http://127.0.0.1:4161/lookup?topic=t"},
		{host: "http://lookupd:4161/", want: "http://lookupd:4161/lookup?topic=t"},
		{host: "https://lookupd/nsq", want: "https://lookupd/nsq/lookup?topic=t"},
		{host: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := lookupURL(tt.host, "t")
		if tt.wantErr {
			if err == nil {
				t.Errorf("lookupURL(%q) expected error, got %s", tt.host, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("lookupURL(%q): %v", tt.host, err)
			continue
		}
		if !strings.EqualFold(got, tt.want) {
			t.Errorf("lookupURL(%q) = %s, want %s", tt.host, got, tt.want)
		}
	}
}
