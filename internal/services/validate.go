package services

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/snappy-loop/blogs/internal/apperr"
	"github.com/snappy-loop/blogs/internal/moderation"
)

// validateKeyword trims keyword and rejects empty, oversized or disallowed input.
func validateKeyword(keyword string, maxLen int) (string, error) {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return "", apperr.Validation("keyword", "is required")
	}
	if maxLen > 0 && utf8.RuneCountInString(kw) > maxLen {
		return "", apperr.Validation("keyword", "exceeds maximum length of %d characters", maxLen)
	}
	if err := moderation.Check(kw); err != nil {
		return "", err
	}
	return kw, nil
}

// validateKeywords checks every keyword before any work starts; one bad keyword rejects the batch.
func validateKeywords(keywords []string, maxBatch, maxLen int) ([]string, error) {
	if len(keywords) == 0 {
		return nil, apperr.Validation("keywords", "at least one keyword is required")
	}
	if maxBatch > 0 && len(keywords) > maxBatch {
		return nil, apperr.Validation("keywords", "exceeds maximum of %d keywords", maxBatch)
	}
	out := make([]string, len(keywords))
	for i, k := range keywords {
		kw, err := validateKeyword(k, maxLen)
		if err != nil {
			return nil, err
		}
		out[i] = kw
	}
	return out, nil
}

func validateEmail(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", apperr.Validation("email", "is required")
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return "", apperr.Validation("email", "is not a valid address")
	}
	return parsed.Address, nil
}

func validateWebhookURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.Validation("webhook.url", "must be an absolute http(s) URL")
	}
	return nil
}
