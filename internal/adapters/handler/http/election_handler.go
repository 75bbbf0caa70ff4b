package http

import (
	"net/http"
	"time"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type ElectionHandler struct {
	service ports.ElectionService
}

func NewElectionHandler(service ports.ElectionService) *ElectionHandler {
	return &ElectionHandler{
		service: service,
	}
}

func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	id, ok := voterID(w, r)
	if !ok {
		return
	}
	overview, err := h.service.Overview(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

type candidatesResponse struct {
	Election   *domain.Election   `json:"election"`
	Candidates []domain.Candidate `json:"candidates"`
}

func (h *ElectionHandler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	electionID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	election, candidates, err := h.service.Candidates(r.Context(), electionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	election.Candidates = nil
	writeJSON(w, http.StatusOK, candidatesResponse{Election: election, Candidates: candidates})
}

type candidateRequest struct {
	Name        string `json:"name"`
	Party       string `json:"party"`
	Description string `json:"description"`
}

type createElectionRequest struct {
	Name       string             `json:"name"`
	StartAt    time.Time          `json:"start_date"`
	EndAt      time.Time          `json:"end_date"`
	Active     *bool              `json:"is_active"`
	Candidates []candidateRequest `json:"candidates"`
}

func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req createElectionRequest
	if !decode(w, r, &req) {
		return
	}

	input := ports.CreateElectionInput{
		Name:    req.Name,
		StartAt: req.StartAt,
		EndAt:   req.EndAt,
		Active:  req.Active == nil || *req.Active,
	}
	for _, c := range req.Candidates {
		input.Candidates = append(input.Candidates, ports.CandidateInput(c))
	}

	election, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, election)
}

func (h *ElectionHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	electionID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req candidateRequest
	if !decode(w, r, &req) {
		return
	}

	candidate, err := h.service.AddCandidate(r.Context(), electionID, ports.CandidateInput(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, candidate)
}

type updateElectionRequest struct {
	Active *bool `json:"is_active"`
}

func (h *ElectionHandler) UpdateElection(w http.ResponseWriter, r *http.Request) {
	electionID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req updateElectionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Active == nil {
		http.Error(w, "is_active is required", http.StatusBadRequest)
		return
	}

	if err := h.service.SetActive(r.Context(), electionID, *req.Active); err != nil {
		writeError(w, r, err)
		return
	}
	election, err := h.service.Get(r.Context(), electionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, election)
}

func (h *ElectionHandler) DeleteElection(w http.ResponseWriter, r *http.Request) {
	electionID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), electionID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ElectionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
