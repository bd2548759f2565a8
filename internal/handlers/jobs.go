package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/snappy-loop/blogs/internal/models"
)

// CreateJob handles POST /v1/jobs
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "batch jobs not configured")
		return
	}
	var req models.CreateJobRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.jobs.CreateJob(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "Failed to create job")
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// GetJob handles GET /v1/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "batch jobs not configured")
		return
	}
	jobID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	resp, err := h.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			writeJSONError(w, http.StatusNotFound, "job not found")
			return
		}
		writeServiceError(w, err, "Failed to get job")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
