package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
}

func NewVoteHandler(service ports.VoteService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

type voteRequest struct {
	CandidateID uuid.UUID `json:"candidate_id"`
}

func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	electionID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req voteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.CandidateID == uuid.Nil {
		http.Error(w, "candidate_id is required", http.StatusBadRequest)
		return
	}

	id, ok := voterID(w, r)
	if !ok {
		return
	}

	receipt, err := h.service.CastVote(r.Context(), ports.VoteInput{
		VoterID:     id,
		ElectionID:  electionID,
		CandidateID: req.CandidateID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *VoteHandler) MyVote(w http.ResponseWriter, r *http.Request) {
	electionID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	id, ok := voterID(w, r)
	if !ok {
		return
	}

	vote, err := h.service.MyVote(r.Context(), id, electionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vote)
}
