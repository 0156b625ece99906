package pettycash

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

// Handler wires petty cash endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers HTTP routes for the petty cash module.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/petty-cash/accounts/{id}/lines", h.List)
	r.Post("/petty-cash/lines", h.Post)
	r.Post("/petty-cash/lines/{id}/void", h.Void)
}

type postLineRequest struct {
	AccountID   int64  `json:"account_id" validate:"required,gt=0"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty" validate:"max=500"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	ActorID     int64  `json:"actor_id" validate:"required,gt=0"`
}

type voidLineRequest struct {
	ActorID int64  `json:"actor_id" validate:"required,gt=0"`
	Reason  string `json:"reason,omitempty" validate:"max=500"`
}

type lineResponse struct {
	ID          int64  `json:"id"`
	Reference   string `json:"reference"`
	AccountID   int64  `json:"account_id"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Balance     string `json:"balance"`
	Status      string `json:"status"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || accountID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
		return
	}
	lines, err := h.service.ListByAccount(r.Context(), accountID)
	if err != nil {
		h.logger.Error("list petty cash", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]lineResponse, 0, len(lines))
	for _, line := range lines {
		out = append(out, toLineResponse(line))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	var req postLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%s: %w", err.Error(), shared.ErrValidation))
		return
	}
	debit, err := parseAmount(req.Debit)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid debit")
		return
	}
	credit, err := parseAmount(req.Credit)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid credit")
		return
	}
	var date time.Time
	if req.Date != "" {
		if date, err = time.Parse("2006-01-02", req.Date); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid date")
			return
		}
	}
	line, err := h.service.Post(r.Context(), PostInput{
		AccountID:   req.AccountID,
		Date:        date,
		Description: req.Description,
		Debit:       debit,
		Credit:      credit,
		ActorID:     req.ActorID,
	})
	if err != nil {
		h.logger.Warn("post petty cash", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toLineResponse(line))
}

func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	lineID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || lineID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid line id")
		return
	}
	var req voidLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%s: %w", err.Error(), shared.ErrValidation))
		return
	}
	line, err := h.service.Void(r.Context(), lineID, req.ActorID, req.Reason)
	if err != nil {
		h.logger.Warn("void petty cash", slog.Any("error", err), slog.Int64("line_id", lineID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toLineResponse(line))
}

func toLineResponse(line Line) lineResponse {
	return lineResponse{
		ID:          line.ID,
		Reference:   line.Reference.String(),
		AccountID:   line.AccountID,
		Date:        line.Date.Format("2006-01-02"),
		Description: line.Description,
		Debit:       line.Debit.String(),
		Credit:      line.Credit.String(),
		Balance:     line.Balance.String(),
		Status:      string(line.Status),
	}
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
