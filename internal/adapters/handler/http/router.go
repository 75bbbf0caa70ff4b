package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vncsmyrnk/evote/internal/core/ports"
)

// Handlers groups the endpoint handlers mounted by NewHandler.
type Handlers struct {
	Auth     *AuthHandler
	Voters   *VoterHandler
	Election *ElectionHandler
	Votes    *VoteHandler
	Results  *ResultHandler
}

func NewHandler(h Handlers, auth ports.AuthService, logger zerolog.Logger, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, messageResponse{Message: "welcome"})
		})

		r.Post("/register", h.Voters.Register)
		r.Get("/verify-email/{token}", h.Voters.VerifyEmail)
		r.Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(auth))

			r.Get("/me", h.Voters.GetMe)
			r.Patch("/me", h.Voters.UpdateMe)

			r.Route("/elections", func(r chi.Router) {
				r.Get("/", h.Election.ListElections)
				r.Get("/{id}/candidates", h.Election.GetCandidates)
				r.Get("/{id}/results", h.Results.GetResults)
				r.Post("/{id}/vote", h.Votes.CastVote)
				r.Get("/{id}/my-vote", h.Votes.MyVote)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin)

				r.Get("/stats", h.Election.Stats)
				r.Post("/finalize", h.Results.Finalize)
				r.Post("/elections", h.Election.CreateElection)
				r.Patch("/elections/{id}", h.Election.UpdateElection)
				r.Delete("/elections/{id}", h.Election.DeleteElection)
				r.Post("/elections/{id}/candidates", h.Election.AddCandidate)
				r.Get("/elections/{id}/audit", h.Results.Audit)
			})
		})
	})

	return r
}
