package workflow

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/snappy-loop/blogs/internal/agents"
	"github.com/snappy-loop/blogs/internal/apperr"
)

type fakeText struct {
	name  string
	out   string
	err   error
	delay time.Duration

	mu   sync.Mutex
	seen []string // previous drafts observed
}

func (f *fakeText) Name() string { return f.name }

func (f *fakeText) Generate(ctx context.Context, _ string, previousDraft string) (string, error) {
	f.mu.Lock()
	f.seen = append(f.seen, previousDraft)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", &apperr.GenerationError{Agent: f.name, Provider: "fake", Err: f.err}
	}
	return f.out, nil
}

type fakeImage struct {
	url   string
	err   error
	delay time.Duration
}

func (f *fakeImage) Name() string { return "image-fake" }

func (f *fakeImage) Generate(ctx context.Context, _ string) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", &apperr.GenerationError{Agent: "image-fake", Provider: "fake", Err: f.err}
	}
	return f.url, nil
}

func TestWorkflow_SingleAgent(t *testing.T) {
	w, err := New(&fakeImage{url: "http://img/1.png"}, &fakeText{name: "t1", out: "DRAFT"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := w.Run(context.Background(), "coffee")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := &Result{BlogContent: "DRAFT", ImageURL: "http://img/1.png", IntermediateResults: map[string]string{}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestWorkflow_ChainFoldsDrafts(t *testing.T) {
	a := &fakeText{name: "t1", out: "A"}
	b := &fakeText{name: "t2", out: "B"}
	w, err := New(&fakeImage{url: "u"}, a, b)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := w.Run(context.Background(), "coffee")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.BlogContent != "B" {
		t.Errorf("BlogContent = %q, want B", got.BlogContent)
	}
	if !reflect.DeepEqual(got.IntermediateResults, map[string]string{"step1": "A"}) {
		t.Errorf("IntermediateResults = %v", got.IntermediateResults)
	}
	if !reflect.DeepEqual(a.seen, []string{""}) || !reflect.DeepEqual(b.seen, []string{"A"}) {
		t.Errorf("drafts seen: a=%v b=%v", a.seen, b.seen)
	}
}

func TestWorkflow_IntermediateCount(t *testing.T) {
	for n := 1; n <= 4; n++ {
		chain := make([]agents.TextAgent, n)
		for i := range chain {
			chain[i] = &fakeText{name: "t", out: string(rune('A' + i))}
		}
		w, err := New(&fakeImage{}, chain...)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		got, err := w.Run(context.Background(), "k")
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(got.IntermediateResults) != n-1 {
			t.Errorf("n=%d: %d intermediate results", n, len(got.IntermediateResults))
		}
		if got.BlogContent != string(rune('A'+n-1)) {
			t.Errorf("n=%d: BlogContent = %q", n, got.BlogContent)
		}
		for _, v := range got.IntermediateResults {
			if v == got.BlogContent {
				t.Errorf("n=%d: final output duplicated in intermediate results", n)
			}
		}
	}
}

func TestWorkflow_RunsImageConcurrently(t *testing.T) {
	const d = 150 * time.Millisecond
	w, err := New(&fakeImage{url: "u", delay: d}, &fakeText{name: "t1", out: "x", delay: d})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	start := time.Now()
	if _, err := w.Run(context.Background(), "k"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed >= 2*d-20*time.Millisecond {
		t.Errorf("elapsed %v; image and text did not overlap", elapsed)
	}
}

func TestWorkflow_Errors(t *testing.T) {
	tests := []struct {
		name      string
		image     *fakeImage
		chain     []agents.TextAgent
		wantAgent string
	}{
		{
			name:      "image fails",
			image:     &fakeImage{err: errors.New("quota")},
			chain:     []agents.TextAgent{&fakeText{name: "t1", out: "A", delay: 20 * time.Millisecond}},
			wantAgent: "image-fake",
		},
		{
			name:      "first text step fails",
			image:     &fakeImage{url: "u", delay: 20 * time.Millisecond},
			chain:     []agents.TextAgent{&fakeText{name: "t1", err: errors.New("500")}, &fakeText{name: "t2", out: "B"}},
			wantAgent: "t1",
		},
		{
			name:      "second text step fails",
			image:     &fakeImage{url: "u"},
			chain:     []agents.TextAgent{&fakeText{name: "t1", out: "A"}, &fakeText{name: "t2", err: errors.New("500")}},
			wantAgent: "t2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := New(tt.image, tt.chain...)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			got, err := w.Run(context.Background(), "coffee")
			if got != nil {
				t.Errorf("partial result returned: %+v", got)
			}
			var gerr *apperr.GenerationError
			if !errors.As(err, &gerr) {
				t.Fatalf("err = %v, want GenerationError", err)
			}
			if gerr.Agent != tt.wantAgent {
				t.Errorf("agent = %q, want %q", gerr.Agent, tt.wantAgent)
			}
		})
	}
}

func TestWorkflow_FailedTextSkipsLaterSteps(t *testing.T) {
	second := &fakeText{name: "t2", out: "B"}
	w, _ := New(&fakeImage{}, &fakeText{name: "t1", err: errors.New("x")}, second)
	if _, err := w.Run(context.Background(), "k"); err == nil {
		t.Fatal("expected error")
	}
	if len(second.seen) != 0 {
		t.Error("second step ran after first failed")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, &fakeText{}); err == nil {
		t.Error("expected error for nil image agent")
	}
	if _, err := New(&fakeImage{}); err == nil {
		t.Error("expected error for empty chain")
	}
	if _, err := New(&fakeImage{}, nil); err == nil {
		t.Error("expected error for nil text agent")
	}
}

type stubRunner struct {
	res *Result
	err error
	got string
}

func (s *stubRunner) Run(_ context.Context, keyword string) (*Result, error) {
	s.got = keyword
	return s.res, s.err
}

func TestSystem_Delegates(t *testing.T) {
	want := &Result{BlogContent: "x"}
	r := &stubRunner{res: want}
	got, err := System{}.Run(context.Background(), r, "tea")
	if err != nil || got != want || r.got != "tea" {
		t.Errorf("got (%v, %v), keyword %q", got, err, r.got)
	}

	cause := errors.New("boom")
	if _, err := (System{}).Run(context.Background(), &stubRunner{err: cause}, "tea"); err != cause {
		t.Errorf("err = %v, want untranslated cause", err)
	}
}
