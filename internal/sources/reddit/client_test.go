package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "bitcoin 100k" || q.Get("limit") != "5" || q.Get("sort") != "relevance" {
			t.Errorf("unexpected query: %v", q)
		}
		if r.Header.Get("User-Agent") != "polyterm/1.0" {
			t.Errorf("User-Agent = %s", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(`{"data": {"children": [
			{"data": {
				"title": "BTC to 100k?",
				"selftext": "discussion body",
				"permalink": "/r/Bitcoin/comments/abc/btc_100k/",
				"url": "https://external.example/link",
				"num_comments": 42
			}}
		]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "polyterm/1.0")
	threads, err := client.Search(context.Background(), "bitcoin 100k", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(threads) != 1 {
		t.Fatalf("len(threads) = %d, want 1", len(threads))
	}

	thread := threads[0]
	if thread.Title != "BTC to 100k?" || thread.Body != "discussion body" {
		t.Errorf("thread = %+v", thread)
	}
	if thread.CommentCount != 42 {
		t.Errorf("CommentCount = %d, want 42", thread.CommentCount)
	}
	// 优先使用站内 permalink 而非外链
	if thread.URL != server.URL+"/r/Bitcoin/comments/abc/btc_100k/" {
		t.Errorf("URL = %s", thread.URL)
	}
}

func TestClient_Search_Unconfigured(t *testing.T) {
	client := NewClient("", "ua")
	threads, err := client.Search(context.Background(), "q", 5)
	if err != nil || threads != nil {
		t.Errorf("Search() with empty base url = %v, %v, want nil, nil", threads, err)
	}
}

func TestClient_Search_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "ua")
	if _, err := client.Search(context.Background(), "q", 5); err == nil {
		t.Error("Search() expected error on 429")
	}
}
