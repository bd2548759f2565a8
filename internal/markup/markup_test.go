package markup

import (
	"strings"
	"testing"
	"time"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"heading", "# Coffee", []string{"<h1>Coffee</h1>"}},
		{"emphasis", "**bold** and *it*", []string{"<strong>bold</strong>", "<em>it</em>"}},
		{"list", "- a\n- b", []string{"<ul>", "<li>a</li>"}},
		{"gfm table", "| a | b |\n|---|---|\n| 1 | 2 |", []string{"<table>", "<td>1</td>"}},
		{"gfm strikethrough", "~~old~~", []string{"<del>old</del>"}},
		{"autolink", "see https://example.com", []string{`<a href="https://example.com">`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.in)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Render(%q) = %q, missing %q", tt.in, got, w)
				}
			}
		})
	}
}

func TestRender_DropsRawHTML(t *testing.T) {
	got, err := Render("<script>alert(1)</script>\n\ntext")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("raw html passed through: %q", got)
	}
}

func TestFrontMatter(t *testing.T) {
	got := FrontMatter(`Best "coffee"`, time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC), "# Body")
	want := "---\ntitle: \"Best \\\"coffee\\\"\"\ndate: '7/4/2024'\n---\n\n# Body"
	if got != want {
		t.Errorf("FrontMatter = %q, want %q", got, want)
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Best Coffee Beans": "best-coffee-beans",
		"  Cold  brew!  ":   "cold-brew",
		"AI & You: 2024":    "ai-you-2024",
		"???":               "post",
		"already-a-slug":    "already-a-slug",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
