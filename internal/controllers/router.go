package controllers

import "net/http"

// RegisterRoutes wires the HTTP routes for this controller.
func (c *HooksController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /hooks/catch/{workflowId}", c.handleCatchHook)
}

func (c *RunsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/runs/{id}", c.handleGetRun)
	mux.HandleFunc("GET /api/workflows/{id}/runs", c.handleGetWorkflowRuns)
}
