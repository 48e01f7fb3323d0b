package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"
)

const MaxBodyBytes = 1 << 20

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Handler struct {
	manager *Manager
	logger  aqm.Logger
	tlm     *telemetry.HTTP
}

func NewHandler(manager *Manager, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		manager: manager,
		logger:  logger,
		tlm:     telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/token", h.RefreshToken)
		r.Get("/session", h.GetSession)
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Login")
	defer finish()
	log := h.log(r)

	req, ok := h.decodeLoginPayload(w, r, log)
	if !ok {
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		aqm.RespondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	if err := h.manager.Login(r.Context(), req.Email, req.Password); err != nil {
		log.Info("login failed", "error", err)
		aqm.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	aqm.RespondSuccess(w, h.manager.Session())
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Logout")
	defer finish()
	log := h.log(r)

	if err := h.manager.Logout(r.Context()); err != nil {
		log.Error("remote logout failed", "error", err)
		aqm.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}

	aqm.RespondSuccess(w, h.manager.Session())
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RefreshToken")
	defer finish()
	log := h.log(r)

	if err := h.manager.Refresh(r.Context()); err != nil {
		log.Info("token refresh failed", "error", err)
		var refreshErr *RefreshError
		if errors.As(err, &refreshErr) && errors.Is(refreshErr, ErrMissingRefreshToken) {
			aqm.RespondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		aqm.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}

	aqm.RespondSuccess(w, h.manager.Session())
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetSession")
	defer finish()

	aqm.RespondSuccess(w, h.manager.Session())
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}

func (h *Handler) decodeLoginPayload(w http.ResponseWriter, r *http.Request, log aqm.Logger) (LoginRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("error reading request body", "error", err)
		aqm.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return LoginRequest{}, false
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		aqm.RespondError(w, http.StatusBadRequest, "Request body is empty")
		return LoginRequest{}, false
	}

	var req LoginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("error decoding JSON", "error", err)
		aqm.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return LoginRequest{}, false
	}

	return req, true
}
