package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/polyterm/polyterm/internal/models"
	"github.com/polyterm/polyterm/internal/sources"
)

// 单篇文档进入语料的字符上限，约束内存与下游 token 开销
const (
	newsExcerptLimit   = 2000
	socialExcerptLimit = 1000
)

// truncateRunes 按字符截断，避免切断多字节序列
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// AssembleCorpus 把市场快照与检索文档合并为单个有界语料，并生成对齐的引用列表。
// 纯函数：相同输入产生字节相同的语料与相同顺序的引用（新闻在前，社交在后）。
// 抽取失败（正文为空）的文档仍然保留引用，保证引用与证据映射稳定。
func AssembleCorpus(question string, price float64, newsDocs []sources.Document, threads []sources.Thread, extractedAt time.Time) (string, []models.Citation) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Market: %s\nCurrent Price: %s\n\n",
		question, strconv.FormatFloat(price, 'g', -1, 64))

	citations := make([]models.Citation, 0, len(newsDocs)+len(threads))

	for _, doc := range newsDocs {
		fmt.Fprintf(&sb, "SOURCE: %s\nCONTENT: %s\n\n", doc.URL, truncateRunes(doc.Body, newsExcerptLimit))
		title := doc.Title
		if title == "" {
			title = "News Article"
		}
		citations = append(citations, models.Citation{
			URL:         doc.URL,
			SourceType:  "news",
			Title:       title,
			ExtractedAt: extractedAt,
		})
	}

	for _, thread := range threads {
		fmt.Fprintf(&sb, "REDDIT: %s\n%s\n\n", thread.Title, truncateRunes(thread.Body, socialExcerptLimit))
		citations = append(citations, models.Citation{
			URL:         thread.URL,
			SourceType:  "reddit",
			Title:       thread.Title,
			ExtractedAt: extractedAt,
		})
	}

	return sb.String(), citations
}
