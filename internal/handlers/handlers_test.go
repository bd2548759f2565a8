package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/snappy-loop/blogs/internal/apperr"
	"github.com/snappy-loop/blogs/internal/database"
	"github.com/snappy-loop/blogs/internal/models"
	"github.com/snappy-loop/blogs/internal/prompts"
	"github.com/snappy-loop/blogs/internal/ratelimit"
	"github.com/snappy-loop/blogs/internal/services"
)

// fakeGeneration returns canned posts; keywords listed in fail yield a GenerationError and
// keywords listed in block wait for the context to end.
type fakeGeneration struct {
	fail  map[string]bool
	block map[string]bool
	err   error
}

func (f *fakeGeneration) post(kw string) (*models.GeneratedPost, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.fail[kw] {
		return nil, &apperr.GenerationError{Agent: "image-dalle", Provider: "dalle", Err: errors.New("quota")}
	}
	return &models.GeneratedPost{Keyword: kw, BlogContent: "# " + kw, PostContentHTML: "<h1>" + kw + "</h1>", ImageURL: "http://img/" + kw}, nil
}

func (f *fakeGeneration) Generate(ctx context.Context, kw string) (*models.GeneratedPost, error) {
	return f.post(kw)
}

func (f *fakeGeneration) GenerateEach(ctx context.Context, kws []string, onDone func(services.Outcome)) error {
	if len(kws) == 0 {
		return apperr.Validation("keywords", "at least one keyword is required")
	}
	for i, kw := range kws {
		if f.block[kw] {
			<-ctx.Done()
		}
		p, err := f.post(kw)
		if cerr := ctx.Err(); cerr != nil {
			p, err = nil, cerr
		}
		onDone(services.Outcome{Index: i, Keyword: kw, Post: p, Err: err})
	}
	return nil
}

func (f *fakeGeneration) GenerateBatch(ctx context.Context, kws []string) ([]*models.GeneratedPost, error) {
	out := make([]*models.GeneratedPost, len(kws))
	err := f.GenerateEach(ctx, kws, func(o services.Outcome) { out[o.Index] = o.Post })
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeGeneration) GenerateBlog(ctx context.Context, kw string) (*models.GeneratedPost, error) {
	return f.post(kw)
}

func (f *fakeGeneration) GenerateImage(ctx context.Context, kw string) (string, error) {
	p, err := f.post(kw)
	if err != nil {
		return "", err
	}
	return p.ImageURL, nil
}

func (f *fakeGeneration) Trending(ctx context.Context, topic string) ([]prompts.Story, error) {
	return []prompts.Story{{Title: topic + " news", URL: "http://n/1"}}, f.err
}

func (f *fakeGeneration) Keywords(ctx context.Context, topic string, stories []prompts.Story) ([]string, error) {
	return []string{"A", "B"}, f.err
}

func (f *fakeGeneration) SendEmail(ctx context.Context, req *models.SendEmailRequest) error {
	return f.err
}

func (f *fakeGeneration) SaveCopy(ctx context.Context, req *models.SaveCopyRequest) (*models.SaveCopyResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.SaveCopyResponse{Message: "Files saved successfully", PostKey: "posts/x.mdx"}, nil
}

type fakeJobs struct {
	created *models.CreateJobRequest
	job     *models.JobStatusResponse
	err     error
}

func (f *fakeJobs) CreateJob(ctx context.Context, req *models.CreateJobRequest) (*models.CreateJobResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = req
	return &models.CreateJobResponse{JobID: uuid.New(), Status: models.JobQueued, Posts: len(req.Keywords), CreatedAt: time.Now()}, nil
}

func (f *fakeJobs) GetJob(ctx context.Context, id uuid.UUID) (*models.JobStatusResponse, error) {
	if f.job == nil || f.job.ID != id {
		return nil, fmt.Errorf("job not found: %w", database.ErrNotFound)
	}
	return f.job, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGenerate_NullForFailedKeywords(t *testing.T) {
	h := NewHandler(&fakeGeneration{fail: map[string]bool{"tea": true}}, nil, nil)
	rec := do(t, h.Router(nil, 0), http.MethodPost, "/api/generate", `{"keywords":["coffee","tea"]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 || string(resp.Results[1]) != "null" {
		t.Errorf("results = %s", rec.Body)
	}
	if !strings.Contains(string(resp.Results[0]), `"postContentHtml":"<h1>coffee</h1>"`) {
		t.Errorf("first result = %s", resp.Results[0])
	}
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		gen    *fakeGeneration
		method string
		path   string
		body   string
		want   int
	}{
		{"post ok", &fakeGeneration{}, "POST", "/api/generate-post", `{"keyword":"coffee"}`, 200},
		{"blog ok", &fakeGeneration{}, "POST", "/api/generate-blog", `{"keyword":"coffee"}`, 200},
		{"image ok", &fakeGeneration{}, "POST", "/api/generate-image", `{"keyword":"coffee"}`, 200},
		{"keywords ok", &fakeGeneration{}, "POST", "/api/generate-keywords", `{"topic":"coffee"}`, 200},
		{"trending ok", &fakeGeneration{}, "POST", "/api/trending-stories", `{"topic":"coffee"}`, 200},
		{"email ok", &fakeGeneration{}, "POST", "/api/send-email", `{"email":"a@b.c","keyword":"coffee"}`, 200},
		{"save ok", &fakeGeneration{}, "POST", "/api/save-local-copy", `{"keyword":"coffee","blogContent":"x"}`, 200},
		{"malformed body", &fakeGeneration{}, "POST", "/api/generate-post", `{"keyword":`, 400},
		{"empty batch", &fakeGeneration{}, "POST", "/api/generate", `{"keywords":[]}`, 400},
		{"validation", &fakeGeneration{err: apperr.Validation("keyword", "is required")}, "POST", "/api/generate-post", `{}`, 400},
		{"generation failure", &fakeGeneration{fail: map[string]bool{"coffee": true}}, "POST", "/api/generate-post", `{"keyword":"coffee"}`, 500},
		{"not configured", &fakeGeneration{err: apperr.Unavailable("mailer")}, "POST", "/api/send-email", `{}`, 503},
		{"wrong method", &fakeGeneration{}, "GET", "/api/generate", ``, 405},
		{"jobs not configured", &fakeGeneration{}, "POST", "/v1/jobs", `{"keywords":["coffee"]}`, 503},
		{"health", &fakeGeneration{}, "GET", "/healthz", ``, 200},
		{"metrics", &fakeGeneration{}, "GET", "/metrics", ``, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, NewHandler(tt.gen, nil, nil).Router(nil, 0), tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d: %s", tt.method, tt.path, rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestErrorBodyShape(t *testing.T) {
	rec := do(t, NewHandler(&fakeGeneration{err: apperr.Validation("keyword", "is required")}, nil, nil).Router(nil, 0),
		"POST", "/api/generate-post", `{}`)
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body["error"], "keyword") {
		t.Errorf("error body = %v", body)
	}
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewMemory(2, time.Minute)
	router := NewHandler(&fakeGeneration{}, nil, nil).Router(limiter, 2)

	for i := 0; i < 2; i++ {
		if rec := do(t, router, "POST", "/api/generate-post", `{"keyword":"coffee"}`); rec.Code != 200 {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	if rec := do(t, router, "POST", "/api/generate-post", `{"keyword":"coffee"}`); rec.Code != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", rec.Code)
	}
	if rec := do(t, router, "POST", "/api/trending-stories", `{"topic":"coffee"}`); rec.Code != 200 {
		t.Errorf("unlimited route = %d", rec.Code)
	}
}

func TestJobs(t *testing.T) {
	jobs := &fakeJobs{}
	router := NewHandler(&fakeGeneration{}, jobs, nil).Router(nil, 0)

	rec := do(t, router, "POST", "/v1/jobs", `{"keywords":["coffee","tea"],"email":"a@b.c"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body)
	}
	if jobs.created == nil || len(jobs.created.Keywords) != 2 || jobs.created.Email != "a@b.c" {
		t.Errorf("created = %+v", jobs.created)
	}

	if rec := do(t, router, "GET", "/v1/jobs/not-a-uuid", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d", rec.Code)
	}
	if rec := do(t, router, "GET", "/v1/jobs/"+uuid.New().String(), ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id = %d", rec.Code)
	}

	id := uuid.New()
	jobs.job = &models.JobStatusResponse{Job: models.Job{ID: id, Status: models.JobRunning}}
	req := httptest.NewRequest("GET", "/v1/jobs/"+id.String(), nil)
	req = mux.SetURLVars(req, map[string]string{"id": id.String()})
	rec = httptest.NewRecorder()
	NewHandler(&fakeGeneration{}, jobs, nil).GetJob(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"running"`) {
		t.Errorf("get = %d: %s", rec.Code, rec.Body)
	}
}

func TestJobs_ValidationError(t *testing.T) {
	jobs := &fakeJobs{err: apperr.Validation("keywords", "at least one keyword is required")}
	rec := do(t, NewHandler(&fakeGeneration{}, jobs, nil).Router(nil, 0), "POST", "/v1/jobs", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHealth_Unhealthy(t *testing.T) {
	h := NewHandler(&fakeGeneration{}, nil, func() error { return errors.New("db down") })
	if rec := do(t, h.Router(nil, 0), "GET", "/healthz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestGenerateWS_StreamsResults(t *testing.T) {
	h := NewHandler(&fakeGeneration{fail: map[string]bool{"tea": true}}, nil, nil)
	srv := httptest.NewServer(h.Router(nil, 0))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/generate/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(models.GenerateRequest{Keywords: []string{"coffee", "tea"}}); err != nil {
		t.Fatal(err)
	}

	var msgs []generateWSOutMessage
	for len(msgs) < 3 {
		var m generateWSOutMessage
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v", err)
		}
		msgs = append(msgs, m)
	}
	if msgs[0].Type != "result" || msgs[0].Result == nil || msgs[0].Keyword != "coffee" {
		t.Errorf("first = %+v", msgs[0])
	}
	if msgs[1].Type != "result" || msgs[1].Result != nil || msgs[1].Error == "" {
		t.Errorf("second = %+v", msgs[1])
	}
	if msgs[2].Type != "done" {
		t.Errorf("last = %+v", msgs[2])
	}

	if err := conn.WriteJSON(models.GenerateRequest{}); err != nil {
		t.Fatal(err)
	}
	var m generateWSOutMessage
	if err := conn.ReadJSON(&m); err != nil || m.Type != "error" {
		t.Errorf("empty batch = %+v, %v", m, err)
	}
}

func dialGenerateWS(t *testing.T, h http.Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/generate/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) generateWSOutMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var m generateWSOutMessage
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

func TestGenerateWS_OutlivesRequestTimeout(t *testing.T) {
	h := NewHandler(&fakeGeneration{}, nil, nil)
	conn := dialGenerateWS(t, AccessLog(WithTimeout(h.Router(nil, 0), 50*time.Millisecond)))

	time.Sleep(150 * time.Millisecond)
	if err := conn.WriteJSON(models.GenerateRequest{Keywords: []string{"coffee"}}); err != nil {
		t.Fatal(err)
	}
	m := readWS(t, conn)
	if m.Type != "result" || m.Result == nil || m.Error != "" {
		t.Errorf("result = %+v", m)
	}
	if m := readWS(t, conn); m.Type != "done" {
		t.Errorf("last = %+v", m)
	}
}

func TestGenerateWS_BatchTimeout(t *testing.T) {
	h := NewHandler(&fakeGeneration{block: map[string]bool{"slow": true}}, nil, nil)
	h.SetStreamTimeout(50 * time.Millisecond)
	conn := dialGenerateWS(t, h.Router(nil, 0))

	if err := conn.WriteJSON(models.GenerateRequest{Keywords: []string{"slow"}}); err != nil {
		t.Fatal(err)
	}
	m := readWS(t, conn)
	if m.Type != "result" || m.Result != nil || !strings.Contains(m.Error, "deadline") {
		t.Errorf("slow result = %+v", m)
	}
	if m := readWS(t, conn); m.Type != "done" {
		t.Errorf("slow last = %+v", m)
	}

	// Each batch gets a fresh deadline.
	if err := conn.WriteJSON(models.GenerateRequest{Keywords: []string{"coffee"}}); err != nil {
		t.Fatal(err)
	}
	if m := readWS(t, conn); m.Result == nil || m.Error != "" {
		t.Errorf("next batch = %+v", m)
	}
}
