package http

import (
	"net/http"

	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type ResultHandler struct {
	service ports.ResultService
}

func NewResultHandler(service ports.ResultService) *ResultHandler {
	return &ResultHandler{
		service: service,
	}
}

func (h *ResultHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	electionID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	results, err := h.service.GetResults(r.Context(), electionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type auditResponse struct {
	Consistent bool `json:"consistent"`
	Drift      any  `json:"drift"`
}

func (h *ResultHandler) Audit(w http.ResponseWriter, r *http.Request) {
	electionID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	drift, err := h.service.AuditTally(r.Context(), electionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, auditResponse{Consistent: len(drift) == 0, Drift: drift})
}

type finalizeResponse struct {
	Finalized int `json:"finalized"`
}

func (h *ResultHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.FinalizeCompleted(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, finalizeResponse{Finalized: n})
}
