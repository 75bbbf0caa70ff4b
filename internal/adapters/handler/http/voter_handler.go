package http

import (
	"net/http"

	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type VoterHandler struct {
	service ports.VoterService
}

func NewVoterHandler(service ports.VoterService) *VoterHandler {
	return &VoterHandler{
		service: service,
	}
}

type registerRequest struct {
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	DateOfBirth     string `json:"date_of_birth"`
	Phone           string `json:"phone_number"`
	NationalID      string `json:"national_id"`
}

func (h *VoterHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}

	voter, err := h.service.Register(r.Context(), ports.RegisterVoterInput{
		Username:        req.Username,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		DateOfBirth:     req.DateOfBirth,
		Phone:           req.Phone,
		NationalID:      req.NationalID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, voter)
}

func (h *VoterHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token, ok := idParam(w, r, "token")
	if !ok {
		return
	}
	voter, err := h.service.Verify(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, voter)
}

func (h *VoterHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := voterID(w, r)
	if !ok {
		return
	}

	voter, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, voter)
}

type updateProfileRequest struct {
	Phone       *string `json:"phone_number"`
	DateOfBirth *string `json:"date_of_birth"`
}

func (h *VoterHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id, ok := voterID(w, r)
	if !ok {
		return
	}
	var req updateProfileRequest
	if !decode(w, r, &req) {
		return
	}

	voter, err := h.service.UpdateProfile(r.Context(), id, ports.UpdateProfileInput{
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, voter)
}
