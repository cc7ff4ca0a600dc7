package server

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/ahmethakanbesel/jobmanager/internal/job"
)

// NewHandler builds the routed, middleware-wrapped handler. database is the
// backend name reported by /health.
func NewHandler(jobSvc *job.Service, database string) http.Handler {
	h := &handler{jobSvc: jobSvc, database: database}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)

	// Each job type owns the collection at /<type>.
	for _, jobType := range jobSvc.Types() {
		collection := "/" + jobType
		item := collection + "/{id}"

		mux.HandleFunc("POST "+collection, h.createJob(jobType))
		mux.HandleFunc("GET "+collection, h.listJobs(jobType))
		mux.HandleFunc("GET "+item, h.getJob(jobType))
		mux.HandleFunc("DELETE "+item, h.deleteJob(jobType))
	}

	return chain(mux,
		recovery,
		requestID,
		accessLog,
		cors.AllowAll().Handler,
	)
}
