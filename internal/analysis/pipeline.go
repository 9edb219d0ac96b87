package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/polyterm/polyterm/internal/models"
	"github.com/polyterm/polyterm/internal/sources"
	"github.com/polyterm/polyterm/internal/store"
)

// ErrJobNotFound 任务不存在或已过期
var ErrJobNotFound = errors.New("analysis: job not found")

// ErrInvalidRequest 提交入参非法
var ErrInvalidRequest = errors.New("analysis: market_id is required")

// SnapshotProvider 市场快照能力。市场无法解析时必须返回确定性错误。
type SnapshotProvider interface {
	GetSnapshot(ctx context.Context, marketID string) (*models.MarketSnapshot, error)
}

// Compressor 语料压缩能力，失败时返回原文由上游透传
type Compressor interface {
	Compress(ctx context.Context, text string, targetTokens int) (string, error)
}

// Generator 结构化生成能力
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string) (map[string]any, error)
}

// Archiver 已完成分析的落库能力，尽力而为
type Archiver interface {
	SaveAnalysis(ctx context.Context, jobID, marketID string, result *models.ExplainMoveResult) error
}

// Options 管道行为参数
type Options struct {
	JobTTL       time.Duration // 任务记录保留时长，默认 1 小时
	TargetTokens int           // 压缩目标 token 数
	MaxJobs      int           // 同时执行的任务数上限
}

// Pipeline 分析任务编排器。每个任务由独立协程驱动，
// 状态只通过注入的 Store 对外暴露（轮询契约）。
type Pipeline struct {
	store        store.Store
	snapshots    SnapshotProvider
	news         sources.NewsSource
	social       sources.SocialSource
	compressor   Compressor
	generator    Generator
	archive      Archiver
	log          *logrus.Logger
	jobTTL       time.Duration
	targetTokens int
	slots        chan struct{}
}

// NewPipeline 创建编排器。archive 可为 nil 表示不归档。
func NewPipeline(st store.Store, snapshots SnapshotProvider, news sources.NewsSource,
	social sources.SocialSource, compressor Compressor, generator Generator,
	archive Archiver, log *logrus.Logger, opts Options) *Pipeline {

	if log == nil {
		log = logrus.New()
	}
	if opts.JobTTL <= 0 {
		opts.JobTTL = time.Hour
	}
	if opts.TargetTokens <= 0 {
		opts.TargetTokens = 4000
	}
	if opts.MaxJobs <= 0 {
		opts.MaxJobs = 8
	}

	return &Pipeline{
		store:        st,
		snapshots:    snapshots,
		news:         news,
		social:       social,
		compressor:   compressor,
		generator:    generator,
		archive:      archive,
		log:          log,
		jobTTL:       opts.JobTTL,
		targetTokens: opts.TargetTokens,
		slots:        make(chan struct{}, opts.MaxJobs),
	}
}

func jobKey(id string) string {
	return "analysis:" + id
}

// Submit 受理分析请求：写入 queued 记录后立即返回任务 id，
// 管道在后台执行，提交方永不阻塞在执行上。同一请求重复提交产生新任务。
func (p *Pipeline) Submit(ctx context.Context, req models.AnalysisRequest) (string, error) {
	if req.MarketID == "" {
		return "", ErrInvalidRequest
	}
	req.ApplyDefaults()

	id := uuid.NewString()
	job := models.Job{ID: id, Status: models.JobQueued, Progress: 0}
	if err := p.store.Set(ctx, jobKey(id), &job, p.jobTTL); err != nil {
		return "", fmt.Errorf("persist job failed: %w", err)
	}

	go p.run(id, req)
	return id, nil
}

// Status 查询任务当前状态
func (p *Pipeline) Status(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	err := p.store.Get(ctx, jobKey(id), &job)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// write 覆盖写任务记录；任务仅由所属协程写入，无需跨任务加锁
func (p *Pipeline) write(job *models.Job) {
	if err := p.store.Set(context.Background(), jobKey(job.ID), job, p.jobTTL); err != nil {
		p.log.Errorf("job %s: failed to persist state: %v", job.ID, err)
	}
}

// advance 推进进度并持久化；进度只增不减
func (p *Pipeline) advance(job *models.Job, progress float64) {
	if progress > job.Progress {
		job.Progress = progress
	}
	p.write(job)
}

// fail 终结任务为 failed，保留失败前已到达的进度
func (p *Pipeline) fail(job *models.Job, msg string) {
	job.Status = models.JobFailed
	job.Error = msg
	job.Result = nil
	p.write(job)
}

// run 驱动单个任务走完全部阶段。只有市场解析失败是致命的；
// 其余外部依赖的故障一律降级，保证局部数据中断只影响质量而非可用性。
// 其他任何异常由顶层兜底捕获并转为 failed。
func (p *Pipeline) run(id string, req models.AnalysisRequest) {
	p.slots <- struct{}{}
	defer func() { <-p.slots }()

	ctx := context.Background()
	job := &models.Job{ID: id, Status: models.JobQueued}

	defer func() {
		if r := recover(); r != nil {
			p.log.Errorf("job %s: pipeline panic: %v", id, r)
			p.fail(job, fmt.Sprintf("pipeline error: %v", r))
		}
	}()

	// 阶段 1: 市场快照
	job.Status = models.JobProcessing
	p.advance(job, 0.1)

	snapshot, err := p.snapshots.GetSnapshot(ctx, req.MarketID)
	if err != nil {
		p.log.Warnf("job %s: market %s not resolvable: %v", id, req.MarketID, err)
		p.fail(job, "Market not found")
		return
	}
	p.advance(job, 0.2)

	// 阶段 2: 新闻与社交并发检索，互不阻塞，单源失败降级为空
	query := req.NewsQuery
	if query == "" {
		query = fmt.Sprintf("%s Polymarket prediction market", snapshot.Question)
	}

	var hits []sources.SearchHit
	var threads []sources.Thread

	newsDone := make(chan struct{})
	go func() {
		defer close(newsDone)
		result, err := p.news.Search(ctx, query, req.MaxNewsSources)
		if err != nil {
			p.log.Warnf("job %s: news search failed: %v", id, err)
			return
		}
		hits = result
	}()

	socialDone := make(chan struct{})
	go func() {
		defer close(socialDone)
		if !req.RedditEnabled() {
			return
		}
		result, err := p.social.Search(ctx, query, req.MaxRedditThreads)
		if err != nil {
			p.log.Warnf("job %s: social search failed: %v", id, err)
			return
		}
		threads = result
	}()

	<-newsDone
	<-socialDone
	p.advance(job, 0.4)

	// 阶段 3: 展开新闻正文；不可达文档留空正文但保留引用
	docs := p.extractNews(ctx, id, hits)
	p.advance(job, 0.6)

	// 阶段 4: 组装语料并压缩；压缩不可用时原样透传
	corpus, citations := AssembleCorpus(snapshot.Question, snapshot.Price, docs, threads, time.Now().UTC())
	compressed, err := p.compressor.Compress(ctx, corpus, p.targetTokens)
	if err != nil {
		p.log.Warnf("job %s: compression unavailable, passing corpus through: %v", id, err)
		compressed = corpus
	}
	p.advance(job, 0.8)

	// 阶段 5: 结构化抽取；输出异常时落到占位结果而非失败
	raw, err := p.generator.GenerateJSON(ctx, buildAnalysisPrompt(snapshot.Question, compressed))
	if err != nil {
		p.log.Warnf("job %s: structured generation failed, using placeholders: %v", id, err)
		raw = map[string]any{}
	}

	commentTotal := 0
	for _, t := range threads {
		commentTotal += t.CommentCount
	}
	result := BuildResult(raw, citations, len(hits), commentTotal)

	// 阶段 6: 终态写入，恰好一次
	job.Status = models.JobCompleted
	job.Result = result
	job.Error = ""
	p.advance(job, 1.0)

	if p.archive != nil {
		if err := p.archive.SaveAnalysis(ctx, id, req.MarketID, result); err != nil {
			p.log.Warnf("job %s: archive write failed: %v", id, err)
		}
	}
	p.log.Infof("job %s: analysis completed with %d citations", id, len(result.Citations))
}

// extractNews 把搜索命中展开为带正文的文档，标题沿用搜索结果
func (p *Pipeline) extractNews(ctx context.Context, id string, hits []sources.SearchHit) []sources.Document {
	if len(hits) == 0 {
		return nil
	}

	urls := make([]string, 0, len(hits))
	for _, h := range hits {
		urls = append(urls, h.URL)
	}

	bodies := make(map[string]string, len(hits))
	docs, err := p.news.Extract(ctx, urls)
	if err != nil {
		p.log.Warnf("job %s: content extraction failed: %v", id, err)
	} else {
		for _, d := range docs {
			bodies[d.URL] = d.Body
		}
	}

	out := make([]sources.Document, 0, len(hits))
	for _, h := range hits {
		out = append(out, sources.Document{
			URL:   h.URL,
			Title: h.Title,
			Body:  bodies[h.URL],
		})
	}
	return out
}
