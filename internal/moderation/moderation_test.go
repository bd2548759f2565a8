package moderation

import (
	"testing"

	"github.com/snappy-loop/blogs/internal/apperr"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		keyword string
		banned  bool
	}{
		{"best coffee beans", false},
		{"How to brew cold brew", false},
		{"Hate speech online", true},
		{"protect against PHISHING", true},
		{"stop a ddos attack", true},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			err := Check(tt.keyword)
			if tt.banned != (err != nil) {
				t.Fatalf("Check(%q) = %v, banned=%v", tt.keyword, err, tt.banned)
			}
			if err != nil && !apperr.IsValidation(err) {
				t.Errorf("err = %T, want ValidationError", err)
			}
		})
	}
}
