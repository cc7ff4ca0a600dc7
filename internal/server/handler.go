package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ahmethakanbesel/jobmanager/internal/job"
)

const maxBodyBytes = 1 << 20

type handler struct {
	jobSvc   *job.Service
	database string
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Database:  h.database,
	})
}

func (h *handler) createJob(jobType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isJSON(r) {
			writeError(w, http.StatusBadRequest, "Content-Type must be application/json")
			return
		}

		input, err := decodeObject(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		resp, err := h.jobSvc.Create(r.Context(), job.CreateJobRequest{Type: jobType, Input: input})
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, resp)
	}
}

func (h *handler) getJob(jobType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		j, err := h.jobSvc.Get(r.Context(), job.GetJobRequest{ID: r.PathValue("id"), Type: jobType})
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, j)
	}
}

func (h *handler) listJobs(jobType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := job.ListJobsRequest{
			Type:   jobType,
			Status: r.URL.Query().Get("status"),
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, err := strconv.Atoi(v)
			if err != nil || limit < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			req.Limit = limit
		}

		jobs, err := h.jobSvc.List(r.Context(), req)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, jobs)
	}
}

func (h *handler) deleteJob(jobType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.jobSvc.Delete(r.Context(), job.DeleteJobRequest{ID: r.PathValue("id"), Type: jobType})
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Job deleted successfully"})
	}
}

// isJSON accepts application/json and application/*+json media types.
func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/json" ||
		(strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+json"))
}

// decodeObject reads a single JSON object, keeping numbers as json.Number.
func decodeObject(body io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("request body must be a JSON object")
		}
		return nil, errors.New("invalid JSON body")
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New("request body must be a JSON object")
	}
	return obj, nil
}
