package accounts

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Kashan-amd/modis/internal/platform/httpx"
	"github.com/Kashan-amd/modis/internal/shared"
)

// Handler wires chart-of-accounts endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers HTTP routes for the hierarchy module.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.ListHierarchy)
	r.Get("/accounts/{id}", h.Show)
	r.Post("/accounts/head", h.CreateHead)
	r.Post("/accounts/{id}/sub", h.CreateSub)
	r.Put("/accounts/{id}", h.Update)
	r.Put("/accounts/{id}/parent", h.SetParent)
	r.Delete("/accounts/{id}", h.Delete)
}

func (h *Handler) ListHierarchy(w http.ResponseWriter, r *http.Request) {
	var organizationID *int64
	if raw := r.URL.Query().Get("organization_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid organization_id")
			return
		}
		organizationID = &id
	}
	tree, err := h.service.ListHierarchy(r.Context(), organizationID)
	if err != nil {
		h.logger.Error("list hierarchy", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toNodeResponses(tree))
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) CreateHead(w http.ResponseWriter, r *http.Request) {
	var req createHeadRequest
	if !h.decode(w, r, &req) {
		return
	}
	opening, err := parseAmount(req.OpeningBalance)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid opening_balance")
		return
	}
	account, err := h.service.CreateHead(r.Context(), CreateHeadInput{
		Number:         req.Number,
		Name:           req.Name,
		Type:           AccountType(req.Type),
		OrganizationID: req.OrganizationID,
		OpeningBalance: opening,
		ActorID:        req.ActorID,
	})
	if err != nil {
		h.logger.Warn("create head account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *Handler) CreateSub(w http.ResponseWriter, r *http.Request) {
	parentID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req createSubRequest
	if !h.decode(w, r, &req) {
		return
	}
	input := CreateSubInput{ParentID: parentID, Number: req.Number, Name: req.Name, ActorID: req.ActorID}
	if req.Type != nil {
		accountType := AccountType(*req.Type)
		input.Type = &accountType
	}
	account, err := h.service.CreateSub(r.Context(), input)
	if err != nil {
		h.logger.Warn("create sub account", slog.Any("error", err), slog.Int64("parent_id", parentID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req updateAccountRequest
	if !h.decode(w, r, &req) {
		return
	}
	account, err := h.service.Update(r.Context(), id, UpdateInput{Name: req.Name, IsActive: req.IsActive, ActorID: req.ActorID})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) SetParent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req setParentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.SetParent(r.Context(), id, req.ParentID, req.ActorID); err != nil {
		h.logger.Warn("set parent", slog.Any("error", err), slog.Int64("account_id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actorID, err := strconv.ParseInt(r.URL.Query().Get("actor_id"), 10, 64)
	if err != nil || actorID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "actor_id is required")
		return
	}
	if err := h.service.Delete(r.Context(), id, actorID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.RespondError(w, fmt.Errorf("%s: %w", err.Error(), shared.ErrValidation))
		return false
	}
	return true
}
