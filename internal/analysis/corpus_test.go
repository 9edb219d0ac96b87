package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/polyterm/polyterm/internal/sources"
)

func TestAssembleCorpus_Deterministic(t *testing.T) {
	docs := []sources.Document{
		{URL: "https://example.com/a", Title: "Article A", Body: "body a"},
		{URL: "https://example.com/b", Title: "Article B", Body: "body b"},
	}
	threads := []sources.Thread{
		{URL: "https://reddit.com/r/x/1", Title: "Thread 1", Body: "thread body"},
	}
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	c1, cites1 := AssembleCorpus("Will BTC close above 100k?", 0.62, docs, threads, at)
	c2, cites2 := AssembleCorpus("Will BTC close above 100k?", 0.62, docs, threads, at)

	if c1 != c2 {
		t.Error("corpus not byte-stable for identical input")
	}
	if len(cites1) != len(cites2) || len(cites1) != 3 {
		t.Fatalf("citations = %d, want 3", len(cites1))
	}
}

func TestAssembleCorpus_HeaderAndOrdering(t *testing.T) {
	docs := []sources.Document{{URL: "https://n.example/1", Title: "News", Body: "news body"}}
	threads := []sources.Thread{{URL: "https://reddit.com/1", Title: "Reddit Post", Body: "reddit body"}}

	corpus, citations := AssembleCorpus("Will it rain?", 0.5, docs, threads, time.Now().UTC())

	if !strings.HasPrefix(corpus, "Market: Will it rain?\nCurrent Price: 0.5\n\n") {
		t.Errorf("unexpected header: %q", corpus[:50])
	}
	newsIdx := strings.Index(corpus, "SOURCE: https://n.example/1")
	redditIdx := strings.Index(corpus, "REDDIT: Reddit Post")
	if newsIdx < 0 || redditIdx < 0 || newsIdx > redditIdx {
		t.Errorf("news block must precede reddit block (news=%d reddit=%d)", newsIdx, redditIdx)
	}

	if citations[0].SourceType != "news" || citations[1].SourceType != "reddit" {
		t.Errorf("citation order mismatch: %+v", citations)
	}
}

func TestAssembleCorpus_Truncation(t *testing.T) {
	longNews := strings.Repeat("x", 5000)
	longThread := strings.Repeat("y", 5000)

	corpus, _ := AssembleCorpus("q", 0.1,
		[]sources.Document{{URL: "u", Body: longNews}},
		[]sources.Thread{{URL: "t", Title: "T", Body: longThread}},
		time.Now().UTC())

	if strings.Contains(corpus, strings.Repeat("x", newsExcerptLimit+1)) {
		t.Error("news body not truncated to excerpt limit")
	}
	if strings.Contains(corpus, strings.Repeat("y", socialExcerptLimit+1)) {
		t.Error("thread body not truncated to excerpt limit")
	}
	if !strings.Contains(corpus, strings.Repeat("x", newsExcerptLimit)) {
		t.Error("news body truncated below excerpt limit")
	}
}

func TestAssembleCorpus_FailedExtractionStillCited(t *testing.T) {
	docs := []sources.Document{{URL: "https://unreachable.example", Title: "", Body: ""}}

	corpus, citations := AssembleCorpus("q", 0.3, docs, nil, time.Now().UTC())

	if !strings.Contains(corpus, "SOURCE: https://unreachable.example\nCONTENT: \n\n") {
		t.Error("empty-body document missing from corpus")
	}
	if len(citations) != 1 {
		t.Fatalf("citations = %d, want 1", len(citations))
	}
	if citations[0].Title != "News Article" {
		t.Errorf("empty title should default to %q, got %q", "News Article", citations[0].Title)
	}
}

func TestAssembleCorpus_NoSources(t *testing.T) {
	corpus, citations := AssembleCorpus("q", 0.99, nil, nil, time.Now().UTC())
	if corpus != "Market: q\nCurrent Price: 0.99\n\n" {
		t.Errorf("unexpected corpus: %q", corpus)
	}
	if len(citations) != 0 {
		t.Errorf("citations = %d, want 0", len(citations))
	}
}
