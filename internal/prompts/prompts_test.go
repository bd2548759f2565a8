package prompts

import (
	"strings"
	"testing"
)

func TestBuild_InitialAndRevisionDiffer(t *testing.T) {
	for _, kw := range []string{"coffee", "remote work", "a", "ünïcödé"} {
		initial := Build(kw, "")
		revised := Build(kw, "# Draft\n\nSome text.")
		if initial == revised {
			t.Errorf("keyword %q: initial and revision prompts are identical", kw)
		}
	}
}

func TestBuild_Initial(t *testing.T) {
	p := Build("coffee", "")
	for _, want := range []string{`"coffee"`, "formatted markdown", "In today's fast-paced world...", "AI customer service"} {
		if !strings.Contains(p, want) {
			t.Errorf("initial prompt missing %q", want)
		}
	}
	if p != Build("coffee", "") {
		t.Error("Build is not deterministic")
	}
}

func TestBuild_Revision(t *testing.T) {
	draft := "# Coffee\n\nCoffee is great."
	p := Build("coffee", draft)
	for _, want := range []string{draft, "sound like they were written by an AI", "AI customer service", "coffee"} {
		if !strings.Contains(p, want) {
			t.Errorf("revision prompt missing %q", want)
		}
	}
}

func TestImage(t *testing.T) {
	if got := Image(ImageStylePastel, "tea"); !strings.Contains(got, "soft pastel") || !strings.Contains(got, "tea") {
		t.Errorf("pastel prompt = %q", got)
	}
	if got := Image(ImageStyleMinimal, "tea"); !strings.Contains(got, "Minimalist") || !strings.Contains(got, `"tea"`) {
		t.Errorf("minimal prompt = %q", got)
	}
}

func TestKeywords(t *testing.T) {
	p := Keywords("ai", []Story{{Title: "First"}, {Title: "Second"}})
	if !strings.Contains(p, "1. First\n2. Second\n") {
		t.Errorf("stories not numbered: %q", p)
	}
	if !strings.Contains(p, "30 relevant titles") {
		t.Error("missing title count")
	}
}
