package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/snappy-loop/blogs/internal/apperr"
	"github.com/snappy-loop/blogs/internal/config"
	"github.com/snappy-loop/blogs/internal/mailer"
	"github.com/snappy-loop/blogs/internal/models"
	"github.com/snappy-loop/blogs/internal/prompts"
	"github.com/snappy-loop/blogs/internal/workflow"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeRunner) Run(ctx context.Context, keyword string) (*workflow.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, keyword)
	f.mu.Unlock()
	if err := f.fail[keyword]; err != nil {
		return nil, err
	}
	return &workflow.Result{
		BlogContent:         "# " + keyword,
		ImageURL:            "http://img/" + keyword + ".png",
		IntermediateResults: map[string]string{},
	}, nil
}

type fakeText struct {
	out string
	err error
}

func (f *fakeText) Name() string { return "text-1-openai" }
func (f *fakeText) Generate(ctx context.Context, keyword, previousDraft string) (string, error) {
	return f.out, f.err
}

type fakeImage struct{ url string }

func (f *fakeImage) Name() string { return "image-dalle" }
func (f *fakeImage) Generate(ctx context.Context, keyword string) (string, error) {
	return f.url, nil
}

type fakeArchive struct {
	mu   sync.Mutex
	puts map[string]string
	err  error
}

func (f *fakeArchive) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.puts == nil {
		f.puts = map[string]string{}
	}
	f.puts[key] = string(data)
	return "http://cdn/" + key, nil
}

type fakeMailer struct {
	to   string
	post mailer.Post
}

func (f *fakeMailer) SendPost(ctx context.Context, to string, post mailer.Post) error {
	f.to, f.post = to, post
	return nil
}

type fakeNews struct{ stories []prompts.Story }

func (f *fakeNews) Trending(ctx context.Context, topic string) ([]prompts.Story, error) {
	return f.stories, nil
}

var (
	sendEmailReq = models.SendEmailRequest{
		Email:           "reader@example.com",
		Keyword:         "coffee",
		BlogContent:     "# Coffee",
		PostContentHTML: "<h1>Coffee</h1>",
	}
	saveCopyReq = models.SaveCopyRequest{Keyword: "coffee", BlogContent: "# Coffee"}
)

func testConfig() *config.Config {
	return &config.Config{
		MaxKeywordsPerBatch:   10,
		MaxKeywordLength:      200,
		MaxConcurrentKeywords: 3,
	}
}

func newGeneration(deps GenerationDeps, cfg *config.Config) *GenerationService {
	s := NewGenerationService(deps, cfg)
	s.now = func() time.Time { return time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestGenerate(t *testing.T) {
	runner := &fakeRunner{}
	s := newGeneration(GenerationDeps{Workflow: runner}, testConfig())

	post, err := s.Generate(context.Background(), "  coffee  ")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if post.Keyword != "coffee" || post.BlogContent != "# coffee" || post.ImageURL != "http://img/coffee.png" {
		t.Errorf("post = %+v", post)
	}
	if !strings.Contains(post.PostContentHTML, "<h1>coffee</h1>") {
		t.Errorf("html = %q", post.PostContentHTML)
	}
	if post.ArchiveKey != "" {
		t.Errorf("archived with archiving disabled: %q", post.ArchiveKey)
	}
}

type closingImage struct {
	fakeImage
	closed bool
}

func (c *closingImage) Close() error {
	c.closed = true
	return nil
}

func TestGenerationService_Close(t *testing.T) {
	img := &closingImage{}
	if err := NewGenerationService(GenerationDeps{Workflow: &fakeRunner{}, Image: img}, testConfig()).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !img.closed {
		t.Error("image agent was not closed")
	}
	if err := NewGenerationService(GenerationDeps{Workflow: &fakeRunner{}}, testConfig()).Close(); err != nil {
		t.Errorf("Close without image agent: %v", err)
	}
}

func TestGenerate_Validation(t *testing.T) {
	runner := &fakeRunner{}
	s := newGeneration(GenerationDeps{Workflow: runner}, testConfig())

	for _, kw := range []string{"", "   ", "how to commit fraud", strings.Repeat("a", 201)} {
		if _, err := s.Generate(context.Background(), kw); !apperr.IsValidation(err) {
			t.Errorf("Generate(%q) err = %v, want validation error", kw, err)
		}
	}
	if len(runner.calls) != 0 {
		t.Errorf("workflow called for invalid input: %v", runner.calls)
	}
}

func TestGenerate_Archives(t *testing.T) {
	cfg := testConfig()
	cfg.ArchiveEnabled = true
	archive := &fakeArchive{}
	s := newGeneration(GenerationDeps{Workflow: &fakeRunner{}, Archive: archive}, cfg)

	post, err := s.Generate(context.Background(), "Cold Brew")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(post.ArchiveKey, "/cold-brew.mdx") {
		t.Errorf("archive key = %q", post.ArchiveKey)
	}
	if doc := archive.puts[post.ArchiveKey]; !strings.Contains(doc, "title: \"Cold Brew\"") {
		t.Errorf("archived doc = %q", doc)
	}
}

func TestGenerate_ArchiveFailureIsNotFatal(t *testing.T) {
	cfg := testConfig()
	cfg.ArchiveEnabled = true
	s := newGeneration(GenerationDeps{Workflow: &fakeRunner{}, Archive: &fakeArchive{err: errors.New("s3 down")}}, cfg)

	post, err := s.Generate(context.Background(), "coffee")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if post.ArchiveKey != "" {
		t.Errorf("archive key set after failure: %q", post.ArchiveKey)
	}
}

func TestGenerateBatch_OrderAndFailures(t *testing.T) {
	genErr := &apperr.GenerationError{Agent: "image-dalle", Provider: "dalle", Err: errors.New("quota")}
	runner := &fakeRunner{fail: map[string]error{"tea": genErr}}
	s := newGeneration(GenerationDeps{Workflow: runner}, testConfig())

	keywords := []string{"coffee", "tea", "cocoa", "matcha"}
	results, err := s.GenerateBatch(context.Background(), keywords)
	if err != nil {
		t.Fatalf("GenerateBatch: %v", err)
	}
	if len(results) != len(keywords) {
		t.Fatalf("len = %d", len(results))
	}
	for i, kw := range keywords {
		if kw == "tea" {
			if results[i] != nil {
				t.Errorf("failed keyword has result %+v", results[i])
			}
			continue
		}
		if results[i] == nil || results[i].Keyword != kw {
			t.Errorf("results[%d] = %+v, want keyword %q", i, results[i], kw)
		}
	}
}

func TestGenerateBatch_ValidatesAllFirst(t *testing.T) {
	runner := &fakeRunner{}
	s := newGeneration(GenerationDeps{Workflow: runner}, testConfig())

	_, err := s.GenerateBatch(context.Background(), []string{"coffee", "", "tea"})
	if !apperr.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("workflow ran before validation finished: %v", runner.calls)
	}

	if _, err := s.GenerateBatch(context.Background(), nil); !apperr.IsValidation(err) {
		t.Errorf("empty batch err = %v", err)
	}
	tooMany := make([]string, 11)
	for i := range tooMany {
		tooMany[i] = "coffee"
	}
	if _, err := s.GenerateBatch(context.Background(), tooMany); !apperr.IsValidation(err) {
		t.Errorf("oversized batch err = %v", err)
	}
}

func TestGenerateBlogAndImage(t *testing.T) {
	s := newGeneration(GenerationDeps{
		Workflow: &fakeRunner{},
		Blog:     &fakeText{out: "**draft**"},
		Image:    &fakeImage{url: "http://img/x.png"},
	}, testConfig())

	post, err := s.GenerateBlog(context.Background(), "coffee")
	if err != nil {
		t.Fatal(err)
	}
	if post.BlogContent != "**draft**" || !strings.Contains(post.PostContentHTML, "<strong>draft</strong>") {
		t.Errorf("post = %+v", post)
	}

	url, err := s.GenerateImage(context.Background(), "coffee")
	if err != nil || url != "http://img/x.png" {
		t.Errorf("GenerateImage = %q, %v", url, err)
	}
}

func TestUnavailableComponents(t *testing.T) {
	s := newGeneration(GenerationDeps{Workflow: &fakeRunner{}}, testConfig())
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["blog"] = s.GenerateBlog(ctx, "coffee")
	_, checks["image"] = s.GenerateImage(ctx, "coffee")
	_, checks["trending"] = s.Trending(ctx, "coffee")
	_, checks["keywords"] = s.Keywords(ctx, "coffee", nil)
	checks["email"] = s.SendEmail(ctx, &sendEmailReq)
	_, checks["save"] = s.SaveCopy(ctx, &saveCopyReq)

	for name, err := range checks {
		if !errors.Is(err, apperr.ErrUnavailable) {
			t.Errorf("%s: err = %v, want ErrUnavailable", name, err)
		}
	}
}

func TestTrending(t *testing.T) {
	stories := []prompts.Story{{Title: "Beans up", URL: "http://n/1"}}
	s := newGeneration(GenerationDeps{Workflow: &fakeRunner{}, News: &fakeNews{stories: stories}}, testConfig())

	got, err := s.Trending(context.Background(), "coffee")
	if err != nil || len(got) != 1 {
		t.Errorf("Trending = %v, %v", got, err)
	}
	if _, err := s.Trending(context.Background(), " "); !apperr.IsValidation(err) {
		t.Errorf("blank topic err = %v", err)
	}
}

func TestSendEmail(t *testing.T) {
	m := &fakeMailer{}
	s := newGeneration(GenerationDeps{Workflow: &fakeRunner{}, Mailer: m}, testConfig())

	req := sendEmailReq
	req.PostContentHTML = ""
	if err := s.SendEmail(context.Background(), &req); err != nil {
		t.Fatalf("SendEmail: %v", err)
	}
	if m.to != "reader@example.com" || m.post.Keyword != "coffee" {
		t.Errorf("mailed %q %+v", m.to, m.post)
	}
	if !strings.Contains(m.post.ContentHTML, "<h1>Coffee</h1>") {
		t.Errorf("html not rendered from markdown: %q", m.post.ContentHTML)
	}

	bad := sendEmailReq
	bad.Email = "not-an-address"
	if err := s.SendEmail(context.Background(), &bad); !apperr.IsValidation(err) {
		t.Errorf("bad email err = %v", err)
	}
}

func TestSaveCopy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png"))
	}))
	defer srv.Close()

	archive := &fakeArchive{}
	s := newGeneration(GenerationDeps{Workflow: &fakeRunner{}, Archive: archive}, testConfig())

	req := saveCopyReq
	req.ImageURL = srv.URL + "/pic.png"
	resp, err := s.SaveCopy(context.Background(), &req)
	if err != nil {
		t.Fatalf("SaveCopy: %v", err)
	}
	if !strings.HasSuffix(resp.PostKey, "/coffee.mdx") || !strings.HasSuffix(resp.ImageKey, ".png") {
		t.Errorf("resp = %+v", resp)
	}
	if archive.puts[resp.ImageKey] != "png" {
		t.Errorf("image not archived: %v", archive.puts)
	}

	empty := saveCopyReq
	empty.BlogContent = " "
	if _, err := s.SaveCopy(context.Background(), &empty); !apperr.IsValidation(err) {
		t.Errorf("empty content err = %v", err)
	}
}
