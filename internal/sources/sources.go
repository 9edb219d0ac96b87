package sources

import "context"

// SearchHit 新闻搜索命中，仅含定位信息
type SearchHit struct {
	URL   string
	Title string
}

// Document 抽取正文后的新闻文档。Body 为空表示原文不可达。
type Document struct {
	URL   string
	Title string
	Body  string
}

// Thread 社交讨论帖
type Thread struct {
	URL          string
	Title        string
	Body         string
	CommentCount int
}

// NewsSource 新闻检索与正文抽取能力
type NewsSource interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchHit, error)
	Extract(ctx context.Context, urls []string) ([]Document, error)
}

// SocialSource 社交内容检索能力。凭据缺失时实现应返回空结果而非错误。
type SocialSource interface {
	Search(ctx context.Context, query string, maxThreads int) ([]Thread, error)
}
