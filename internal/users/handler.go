package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/storefront/storefront/internal/platform/httpx"
	"github.com/storefront/storefront/internal/rbac"
	"github.com/storefront/storefront/internal/shared"
)

// Handler manages account, wishlist and cart endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authn     func(http.Handler) http.Handler
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance. authn must store the caller identity in
// the request context.
func NewHandler(logger *slog.Logger, service *Service, authn func(http.Handler) http.Handler, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, authn: authn, rbac: rbac, validator: httpx.NewValidator()}
}

// MountRoutes registers account routes. Every route requires authentication.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authn)
		r.Get("/", h.me)
		r.With(h.rbac.Require(rbac.ActionAccountUpdate, rbac.OwnerFromURLParam("id"))).Put("/{id}", h.update)

		r.Get("/wishlist", h.listItems(ListWishlist))
		r.With(h.rbac.Require(rbac.ActionWishlistModify, nil)).Post("/wishlist/{productId}", h.addItem(ListWishlist))
		r.With(h.rbac.Require(rbac.ActionWishlistModify, nil)).Delete("/wishlist/{productId}", h.removeItem(ListWishlist))

		r.Get("/cart", h.listItems(ListCart))
		r.With(h.rbac.Require(rbac.ActionCartModify, nil)).Post("/cart/{productId}", h.addItem(ListCart))
		r.With(h.rbac.Require(rbac.ActionCartModify, nil)).Delete("/cart/{productId}", h.removeItem(ListCart))
	})
}

type updateRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,min=6,max=20"`
	PhotoURL  *string `json:"photoUrl" validate:"omitempty,url"`
	Gender    *Gender `json:"gender" validate:"omitempty,oneof=Male Female"`
	Password  *string `json:"password" validate:"omitempty,min=6,max=72"`
}

type itemsResponse struct {
	Success bool     `json:"success"`
	Items   []string `json:"items"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	account, err := h.service.Get(r.Context(), identity.UserID)
	if err != nil {
		h.fail(w, "get account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(h.validator, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	account, err := h.service.UpdateSelf(r.Context(), chi.URLParam(r, "id"), UpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		PhotoURL:  req.PhotoURL,
		Gender:    req.Gender,
		Password:  req.Password,
	})
	if err != nil {
		h.fail(w, "update account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) listItems(list List) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := shared.IdentityFromContext(r.Context())
		items, err := h.service.Items(r.Context(), identity.UserID, list)
		if err != nil {
			h.fail(w, "list "+string(list), err)
			return
		}
		httpx.JSON(w, http.StatusOK, items)
	}
}

func (h *Handler) addItem(list List) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := shared.IdentityFromContext(r.Context())
		items, err := h.service.AddItem(r.Context(), identity.UserID, list, chi.URLParam(r, "productId"))
		if err != nil {
			h.fail(w, "add to "+string(list), err)
			return
		}
		httpx.JSON(w, http.StatusOK, itemsResponse{Success: true, Items: items})
	}
}

func (h *Handler) removeItem(list List) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := shared.IdentityFromContext(r.Context())
		items, err := h.service.RemoveItem(r.Context(), identity.UserID, list, chi.URLParam(r, "productId"))
		if err != nil {
			h.fail(w, "remove from "+string(list), err)
			return
		}
		httpx.JSON(w, http.StatusOK, itemsResponse{Success: true, Items: items})
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
