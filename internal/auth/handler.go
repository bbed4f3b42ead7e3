package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/storefront/storefront/internal/platform/httpx"
	"github.com/storefront/storefront/internal/users"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      *Gate
	limit     func(http.Handler) http.Handler
	validator *validator.Validate
}

// NewHandler constructs a Handler instance. limit, when non-nil, guards the
// credential endpoints.
func NewHandler(logger *slog.Logger, service *Service, gate *Gate, limit func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, gate: gate, limit: limit, validator: httpx.NewValidator()}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.limit != nil {
			r.Use(h.limit)
		}
		r.Post("/signup", h.handleSignup)
		r.Post("/login", h.handleLogin)
	})
	r.Post("/logout", h.handleLogout)
}

type signupRequest struct {
	FirstName string       `json:"firstName" validate:"required,max=100"`
	LastName  string       `json:"lastName" validate:"max=100"`
	Email     string       `json:"email" validate:"required,email,max=254"`
	Password  string       `json:"password" validate:"required,max=72"`
	Phone     string       `json:"phone" validate:"required,min=6,max=20"`
	Gender    users.Gender `json:"gender" validate:"required,oneof=Male Female"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(h.validator, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	account, err := h.service.Signup(r.Context(), SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		Gender:    req.Gender,
	})
	if err != nil {
		h.fail(w, "signup", err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(h.validator, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, "login", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// handleLogout revokes the presented token when it verifies. A missing or
// invalid token still logs out successfully.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	identity, reason, err := h.gate.Identify(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		h.fail(w, "logout", err)
		return
	}
	if reason == "" {
		if err := h.service.Logout(r.Context(), identity); err != nil {
			h.fail(w, "logout", err)
			return
		}
	}
	httpx.JSON(w, http.StatusOK, httpx.SuccessBody{Success: true})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
