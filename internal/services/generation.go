package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/snappy-loop/blogs/internal/agents"
	"github.com/snappy-loop/blogs/internal/apperr"
	"github.com/snappy-loop/blogs/internal/config"
	"github.com/snappy-loop/blogs/internal/mailer"
	"github.com/snappy-loop/blogs/internal/markup"
	"github.com/snappy-loop/blogs/internal/models"
	"github.com/snappy-loop/blogs/internal/moderation"
	"github.com/snappy-loop/blogs/internal/prompts"
	"github.com/snappy-loop/blogs/internal/storage"
	"github.com/snappy-loop/blogs/internal/workflow"
)

// GenerationDeps are the collaborators of GenerationService. Any field except
// Workflow may be nil; the operations needing it then return apperr.ErrUnavailable.
type GenerationDeps struct {
	Workflow workflow.Runner
	Blog     agents.TextAgent
	Image    agents.ImageAgent
	News     TrendingSource
	Keywords KeywordSource
	Mailer   mailer.Mailer
	Archive  Archiver
}

// GenerationService runs the synchronous generation operations behind /api.
type GenerationService struct {
	deps       GenerationDeps
	system     workflow.System
	config     *config.Config
	httpClient *http.Client
	now        func() time.Time
}

// NewGenerationService creates a new GenerationService
func NewGenerationService(deps GenerationDeps, cfg *config.Config) *GenerationService {
	return &GenerationService{
		deps:       deps,
		config:     cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// Close releases provider clients held by the image agent.
func (s *GenerationService) Close() error {
	if c, ok := s.deps.Image.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Generate runs the full workflow for one keyword and renders the result.
func (s *GenerationService) Generate(ctx context.Context, keyword string) (*models.GeneratedPost, error) {
	kw, err := validateKeyword(keyword, s.config.MaxKeywordLength)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, kw)
}

func (s *GenerationService) generate(ctx context.Context, kw string) (*models.GeneratedPost, error) {
	res, err := s.system.Run(ctx, s.deps.Workflow, kw)
	if err != nil {
		return nil, err
	}
	html, err := markup.Render(res.BlogContent)
	if err != nil {
		return nil, err
	}

	post := &models.GeneratedPost{
		Keyword:             kw,
		BlogContent:         res.BlogContent,
		PostContentHTML:     html,
		ImageURL:            res.ImageURL,
		IntermediateResults: res.IntermediateResults,
	}
	if s.config.ArchiveEnabled && s.deps.Archive != nil {
		key := storage.PostKey(markup.Slug(kw))
		doc := markup.FrontMatter(kw, s.now(), res.BlogContent)
		if _, err := s.deps.Archive.Put(ctx, key, []byte(doc), "text/markdown"); err != nil {
			log.Warn().Err(err).Str("keyword", kw).Msg("Failed to archive post")
		} else {
			post.ArchiveKey = key
		}
	}
	return post, nil
}

// Outcome is the result of one keyword of a batch.
type Outcome struct {
	Index   int
	Keyword string
	Post    *models.GeneratedPost
	Err     error
}

// GenerateEach validates all keywords, then runs them concurrently and calls onDone as
// each finishes. Calls to onDone are serialized. Per-keyword failures are reported
// through Outcome.Err and do not stop the others.
func (s *GenerationService) GenerateEach(ctx context.Context, keywords []string, onDone func(Outcome)) error {
	kws, err := validateKeywords(keywords, s.config.MaxKeywordsPerBatch, s.config.MaxKeywordLength)
	if err != nil {
		return err
	}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(s.config.MaxConcurrentKeywords)
	for i, kw := range kws {
		g.Go(func() error {
			post, err := s.generate(ctx, kw)
			if err != nil {
				log.Error().Err(err).Str("keyword", kw).Msg("Keyword generation failed")
			}
			mu.Lock()
			defer mu.Unlock()
			onDone(Outcome{Index: i, Keyword: kw, Post: post, Err: err})
			return nil
		})
	}
	return g.Wait()
}

// GenerateBatch returns one entry per keyword in input order; failed keywords are nil.
func (s *GenerationService) GenerateBatch(ctx context.Context, keywords []string) ([]*models.GeneratedPost, error) {
	results := make([]*models.GeneratedPost, len(keywords))
	failed := 0
	err := s.GenerateEach(ctx, keywords, func(o Outcome) {
		if o.Err != nil {
			failed++
			return
		}
		results[o.Index] = o.Post
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int("keywords", len(keywords)).Int("failed", failed).Msg("Batch generation complete")
	return results, nil
}

// GenerateBlog runs only the first text agent of the chain.
func (s *GenerationService) GenerateBlog(ctx context.Context, keyword string) (*models.GeneratedPost, error) {
	kw, err := validateKeyword(keyword, s.config.MaxKeywordLength)
	if err != nil {
		return nil, err
	}
	if s.deps.Blog == nil {
		return nil, apperr.Unavailable("text agent")
	}
	content, err := s.deps.Blog.Generate(ctx, kw, "")
	if err != nil {
		return nil, err
	}
	html, err := markup.Render(content)
	if err != nil {
		return nil, err
	}
	return &models.GeneratedPost{Keyword: kw, BlogContent: content, PostContentHTML: html}, nil
}

// GenerateImage runs only the image agent.
func (s *GenerationService) GenerateImage(ctx context.Context, keyword string) (string, error) {
	kw, err := validateKeyword(keyword, s.config.MaxKeywordLength)
	if err != nil {
		return "", err
	}
	if s.deps.Image == nil {
		return "", apperr.Unavailable("image agent")
	}
	return s.deps.Image.Generate(ctx, kw)
}

// Trending returns trending stories for topic.
func (s *GenerationService) Trending(ctx context.Context, topic string) ([]prompts.Story, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, apperr.Validation("topic", "is required")
	}
	if s.deps.News == nil {
		return nil, apperr.Unavailable("news")
	}
	return s.deps.News.Trending(ctx, topic)
}

// Keywords suggests blog titles for topic.
func (s *GenerationService) Keywords(ctx context.Context, topic string, stories []prompts.Story) ([]string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, apperr.Validation("topic", "is required")
	}
	if err := moderation.Check(topic); err != nil {
		return nil, err
	}
	if s.deps.Keywords == nil {
		return nil, apperr.Unavailable("keywords")
	}
	return s.deps.Keywords.Generate(ctx, topic, stories)
}

// SendEmail mails an already generated post.
func (s *GenerationService) SendEmail(ctx context.Context, req *models.SendEmailRequest) error {
	to, err := validateEmail(req.Email)
	if err != nil {
		return err
	}
	kw, err := validateKeyword(req.Keyword, s.config.MaxKeywordLength)
	if err != nil {
		return err
	}
	if s.deps.Mailer == nil {
		return apperr.Unavailable("mailer")
	}

	html := req.PostContentHTML
	if html == "" && req.BlogContent != "" {
		if html, err = markup.Render(req.BlogContent); err != nil {
			return err
		}
	}
	return s.deps.Mailer.SendPost(ctx, to, mailer.Post{
		Keyword:     kw,
		BlogContent: req.BlogContent,
		ContentHTML: html,
		ImageURL:    req.ImageURL,
	})
}

// SaveCopy archives the post document and, when given, a copy of its image.
func (s *GenerationService) SaveCopy(ctx context.Context, req *models.SaveCopyRequest) (*models.SaveCopyResponse, error) {
	kw, err := validateKeyword(req.Keyword, s.config.MaxKeywordLength)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.BlogContent) == "" {
		return nil, apperr.Validation("blogContent", "is required")
	}
	if s.deps.Archive == nil {
		return nil, apperr.Unavailable("storage")
	}

	resp := &models.SaveCopyResponse{PostKey: storage.PostKey(markup.Slug(kw))}
	doc := markup.FrontMatter(kw, s.now(), req.BlogContent)
	if _, err := s.deps.Archive.Put(ctx, resp.PostKey, []byte(doc), "text/markdown"); err != nil {
		return nil, fmt.Errorf("archive post: %w", err)
	}

	if req.ImageURL != "" {
		data, contentType, err := storage.Fetch(ctx, s.httpClient, req.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("download image: %w", err)
		}
		if contentType == "" {
			contentType = "image/png"
		}
		resp.ImageKey = storage.ImageKey(contentType)
		if _, err := s.deps.Archive.Put(ctx, resp.ImageKey, data, contentType); err != nil {
			return nil, fmt.Errorf("archive image: %w", err)
		}
	}

	resp.Message = "Files saved successfully"
	log.Info().Str("keyword", kw).Str("post_key", resp.PostKey).Str("image_key", resp.ImageKey).Msg("Post archived")
	return resp, nil
}
