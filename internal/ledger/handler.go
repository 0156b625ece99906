package ledger

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

// Handler wires transaction ledger endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers HTTP routes for the ledger module.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/transactions", h.List)
	r.Get("/transactions/sums", h.Sums)
	r.Post("/transactions", h.Create)
	r.Get("/transactions/{id}", h.Show)
	r.Post("/transactions/{id}/post", h.Post)
	r.Post("/transactions/{id}/void", h.Void)
	r.Post("/transactions/{id}/reverse", h.Reverse)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var organizationID *int64
	if raw := r.URL.Query().Get("organization_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid organization_id")
			return
		}
		organizationID = &id
	}
	txns, err := h.service.List(r.Context(), organizationID)
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, toTransactionResponse(txn))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Sums(w http.ResponseWriter, r *http.Request) {
	var filter AmountFilter
	if raw := r.URL.Query().Get("type"); raw != "" {
		transactionType := TransactionType(raw)
		switch transactionType {
		case TypeFund, TypeLoan, TypeReturn, TypeJournal:
			filter.Type = &transactionType
		default:
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid type")
			return
		}
	}
	var ok bool
	if filter.FromOrganizationID, ok = h.queryID(w, r, "from_organization_id"); !ok {
		return
	}
	if filter.ToOrganizationID, ok = h.queryID(w, r, "to_organization_id"); !ok {
		return
	}
	sum, err := h.service.SumAmounts(r.Context(), filter)
	if err != nil {
		h.logger.Error("sum transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"total": sum.String()})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	txn, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponse(txn))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if !h.decode(w, r, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid date or amount")
		return
	}
	txn, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Warn("create transaction", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTransactionResponse(txn))
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req voidRequest
	if !h.decode(w, r, &req) {
		return
	}
	txn, err := h.service.PostDraft(r.Context(), id, req.ActorID)
	if err != nil {
		h.logger.Warn("post draft", slog.Any("error", err), slog.Int64("transaction_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponse(txn))
}

func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req voidRequest
	if !h.decode(w, r, &req) {
		return
	}
	txn, err := h.service.Void(r.Context(), VoidInput{TransactionID: id, ActorID: req.ActorID, Reason: req.Reason})
	if err != nil {
		h.logger.Warn("void transaction", slog.Any("error", err), slog.Int64("transaction_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponse(txn))
}

func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req reverseRequest
	if !h.decode(w, r, &req) {
		return
	}
	reversal, err := h.service.Reverse(r.Context(), ReverseInput{
		TransactionID: id,
		ActorID:       req.ActorID,
		Reference:     req.Reference,
		Description:   req.Description,
	})
	if err != nil {
		h.logger.Warn("reverse transaction", slog.Any("error", err), slog.Int64("transaction_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTransactionResponse(reversal))
}

func (h *Handler) queryID(w http.ResponseWriter, r *http.Request, name string) (*int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid "+name)
		return nil, false
	}
	return &id, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
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
