package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Pipelines
	mux.Handle("GET /api/v1/pipelines", chain(http.HandlerFunc(h.ListPipelines)))
	mux.Handle("POST /api/v1/pipelines", chain(http.HandlerFunc(h.CreatePipeline)))
	mux.Handle("GET /api/v1/pipelines/{name}", chain(http.HandlerFunc(h.GetPipeline)))
	mux.Handle("DELETE /api/v1/pipelines/{name}", chain(http.HandlerFunc(h.DeletePipeline)))
	mux.Handle("POST /api/v1/pipelines/{name}/execute", chain(http.HandlerFunc(h.ExecutePipeline)))
	mux.Handle("POST /api/v1/pipelines/{name}/pause", chain(http.HandlerFunc(h.PausePipeline)))
	mux.Handle("POST /api/v1/pipelines/{name}/resume", chain(http.HandlerFunc(h.ResumePipeline)))
	mux.Handle("POST /api/v1/pipelines/{name}/reset", chain(http.HandlerFunc(h.ResetPipeline)))
	mux.Handle("GET /api/v1/pipelines/{name}/results", chain(http.HandlerFunc(h.GetPipelineResults)))
	mux.Handle("GET /api/v1/pipelines/{name}/metrics", chain(http.HandlerFunc(h.GetPipelineMetrics)))

	// Error records
	mux.Handle("GET /api/v1/records", chain(http.HandlerFunc(h.ListRecords)))
	mux.Handle("GET /api/v1/records/{id}", chain(http.HandlerFunc(h.GetRecord)))
	mux.Handle("POST /api/v1/errors", chain(http.HandlerFunc(h.ReportError)))

	// Triggers
	mux.Handle("GET /api/v1/triggers", chain(http.HandlerFunc(h.ListTriggers)))
	mux.Handle("POST /api/v1/triggers", chain(http.HandlerFunc(h.CreateTrigger)))
	mux.Handle("DELETE /api/v1/triggers/{id}", chain(http.HandlerFunc(h.DeleteTrigger)))
	mux.Handle("PUT /api/v1/triggers/{id}/enabled", chain(http.HandlerFunc(h.SetTriggerEnabled)))

	// Step catalog
	mux.Handle("GET /api/v1/steps", chain(http.HandlerFunc(h.ListStepTypes)))
}
