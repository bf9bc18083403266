package pprof

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	logx "arborsched/pkg/logx"
)

func TestStartStopLoopback(t *testing.T) {
	svc := New(Config{Enabled: true, Addr: "127.0.0.1:0"}, logx.Nop())
	t.Cleanup(func() { svc.Stop(context.Background()) })

	svc.Start()
	addr := svc.Addr()
	if addr == "" {
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("healthz = %d %q", resp.StatusCode, body)
	}

	svc.Stop(context.Background())
	if svc.Addr() != "" {
		t.Fatal("Addr must be empty after stop")
	}
}

func TestRefusesInsecureBind(t *testing.T) {
	svc := New(Config{Enabled: true, Addr: "0.0.0.0:0"}, logx.Nop())
	svc.Start()
	if svc.Addr() != "" {
		svc.Stop(context.Background())
		t.Fatal("non-loopback bind without token must be refused")
	}
}

func TestWithAuth(t *testing.T) {
	t.Parallel()
	h := withAuth("secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"no credentials", "", "", http.StatusUnauthorized},
		{"bearer ok", "Bearer secret", "", http.StatusOK},
		{"bearer wrong", "Bearer nope", "", http.StatusUnauthorized},
		{"query ok", "", "secret", http.StatusOK},
		{"query wrong", "", "nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			url := "/healthz"
			if tt.query != "" {
				url += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestNormalizePrefix(t *testing.T) {
	t.Parallel()
	tests := []struct{ in, want string }{
		{"", "/debug/pprof/"},
		{"debug/pprof", "/debug/pprof/"},
		{"/custom", "/custom/"},
		{"/custom/", "/custom/"},
	}
	for _, tt := range tests {
		if got := normalizePrefix(tt.in); got != tt.want {
			t.Fatalf("normalizePrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsLoopbackAddr(t *testing.T) {
	t.Parallel()
	tests := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:6060", true},
		{"localhost:6060", true},
		{"[::1]:6060", true},
		{"0.0.0.0:6060", false},
		{":6060", false},
		{"10.0.0.5:6060", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := isLoopbackAddr(tt.addr); got != tt.want {
			t.Fatalf("isLoopbackAddr(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}
