package handlers

import (
	"net/http"

	"github.com/snappy-loop/blogs/internal/models"
)

// Generate handles POST /api/generate
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	results, err := h.generation.GenerateBatch(r.Context(), req.Keywords)
	if err != nil {
		writeServiceError(w, err, "Batch generation failed")
		return
	}
	writeJSON(w, http.StatusOK, models.GenerateResponse{Results: results})
}

// GeneratePost handles POST /api/generate-post
func (h *Handler) GeneratePost(w http.ResponseWriter, r *http.Request) {
	var req models.KeywordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	post, err := h.generation.Generate(r.Context(), req.Keyword)
	if err != nil {
		writeServiceError(w, err, "Post generation failed")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// GenerateBlog handles POST /api/generate-blog
func (h *Handler) GenerateBlog(w http.ResponseWriter, r *http.Request) {
	var req models.KeywordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	post, err := h.generation.GenerateBlog(r.Context(), req.Keyword)
	if err != nil {
		writeServiceError(w, err, "Blog generation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"blogContent":     post.BlogContent,
		"postContentHtml": post.PostContentHTML,
	})
}

// GenerateImage handles POST /api/generate-image
func (h *Handler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var req models.KeywordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	url, err := h.generation.GenerateImage(r.Context(), req.Keyword)
	if err != nil {
		writeServiceError(w, err, "Image generation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": url})
}

// GenerateKeywords handles POST /api/generate-keywords
func (h *Handler) GenerateKeywords(w http.ResponseWriter, r *http.Request) {
	var req models.KeywordsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	keywords, err := h.generation.Keywords(r.Context(), req.Topic, req.TrendingStories)
	if err != nil {
		writeServiceError(w, err, "Keyword generation failed")
		return
	}
	writeJSON(w, http.StatusOK, models.KeywordsResponse{Keywords: keywords})
}

// TrendingStories handles POST /api/trending-stories
func (h *Handler) TrendingStories(w http.ResponseWriter, r *http.Request) {
	var req models.TrendingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	stories, err := h.generation.Trending(r.Context(), req.Topic)
	if err != nil {
		writeServiceError(w, err, "Trending lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, models.TrendingResponse{Stories: stories})
}

// SendEmail handles POST /api/send-email
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req models.SendEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.generation.SendEmail(r.Context(), &req); err != nil {
		writeServiceError(w, err, "Failed to send email")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email sent successfully"})
}

// SaveCopy handles POST /api/save-local-copy
func (h *Handler) SaveCopy(w http.ResponseWriter, r *http.Request) {
	var req models.SaveCopyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.generation.SaveCopy(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "Failed to save copy")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
