package compress

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_PassThroughWithoutKey(t *testing.T) {
	client := NewClient("", "")
	out, err := client.Compress(context.Background(), "long corpus text", 4000)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if out != "long corpus text" {
		t.Errorf("Compress() = %q, want input unchanged", out)
	}
}

func TestClient_Compress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/compress" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("Authorization = %s", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"compressed_text": "short"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "k")
	out, err := client.Compress(context.Background(), "long corpus text", 4000)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if out != "short" {
		t.Errorf("Compress() = %q, want %q", out, "short")
	}
}

func TestClient_ReturnsOriginalOnAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k")
	out, err := client.Compress(context.Background(), "original", 4000)
	if err == nil {
		t.Error("Compress() expected error on 503")
	}
	// 失败时必须原样返回输入，调用方可直接透传
	if out != "original" {
		t.Errorf("Compress() = %q, want original text", out)
	}
}

func TestClient_EmptyResponseKeepsOriginal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"compressed_text": ""}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "k")
	out, err := client.Compress(context.Background(), "original", 4000)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if out != "original" {
		t.Errorf("Compress() = %q, want original text", out)
	}
}
