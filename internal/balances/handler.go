package balances

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Kashan-amd/modis/internal/platform/httpx"
	"github.com/Kashan-amd/modis/internal/shared"
)

// Handler wires balance aggregation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers HTTP routes for the balances module.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/organizations/{id}/balance", h.OrganizationBalance)
	r.Get("/organizations/{id}/opening-balance", h.GetOpening)
	r.Put("/organizations/{id}/opening-balance", h.SetOpening)
}

type setOpeningRequest struct {
	Amount  string `json:"amount" validate:"required"`
	Side    string `json:"side" validate:"required,oneof=CREDIT DEBIT"`
	Date    string `json:"date,omitempty"`
	ActorID int64  `json:"actor_id" validate:"required,gt=0"`
}

type openingResponse struct {
	ID             int64  `json:"id"`
	OrganizationID int64  `json:"organization_id"`
	Amount         string `json:"amount"`
	Side           string `json:"side"`
	Date           string `json:"date"`
}

func (h *Handler) OrganizationBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	balance, err := h.service.OrganizationBalance(r.Context(), id)
	if err != nil {
		h.logger.Error("organization balance", slog.Any("error", err), slog.Int64("organization_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func (h *Handler) GetOpening(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	opening, err := h.service.GetOpening(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOpeningResponse(opening))
}

func (h *Handler) SetOpening(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req setOpeningRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%s: %w", err.Error(), shared.ErrValidation))
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid amount")
		return
	}
	var date time.Time
	if req.Date != "" {
		if date, err = time.Parse("2006-01-02", req.Date); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid date")
			return
		}
	}
	opening, err := h.service.SetOpening(r.Context(), SetOpeningInput{
		OrganizationID: id,
		Amount:         amount,
		Side:           Side(req.Side),
		Date:           date,
		ActorID:        req.ActorID,
	})
	if err != nil {
		h.logger.Warn("set opening balance", slog.Any("error", err), slog.Int64("organization_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOpeningResponse(opening))
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid organization id")
		return 0, false
	}
	return id, true
}

func toOpeningResponse(ob OpeningBalance) openingResponse {
	return openingResponse{
		ID:             ob.ID,
		OrganizationID: ob.OrganizationID,
		Amount:         ob.Amount.String(),
		Side:           string(ob.Side),
		Date:           ob.Date.Format("2006-01-02"),
	}
}
