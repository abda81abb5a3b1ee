package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-basket/internal/basket"
	"github.com/noah-isme/backend-basket/internal/common"
	"github.com/noah-isme/backend-basket/internal/lock"
)

// Handler wires basket sessions to HTTP.
type Handler struct {
	Svc      *Service
	Currency string
}

type addItemRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}

type lineResponse struct {
	Code  string `json:"code"`
	Price string `json:"price"`
}

type pricingResponse struct {
	Gross    string `json:"gross"`
	Discount string `json:"discount"`
	Subtotal string `json:"subtotal"`
	Delivery string `json:"delivery"`
	Total    string `json:"total"`
}

type quoteResponse struct {
	ID       string          `json:"id"`
	Items    []lineResponse  `json:"items"`
	Pricing  pricingResponse `json:"pricing"`
	Currency string          `json:"currency,omitempty"`
}

// Create handles POST /api/v1/baskets.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "basket service not configured", nil)
		return
	}
	id, err := h.Svc.Create(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"basketId": id}})
}

// AddItem handles POST /api/v1/baskets/{id}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "basket service not configured", nil)
		return
	}
	id, ok := basketID(w, r)
	if !ok {
		return
	}
	var payload addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := common.Validate(payload); err != nil {
		h.writeError(w, err)
		return
	}
	quote, err := h.Svc.AddItem(r.Context(), id, payload.Code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(quote)})
}

// Get handles GET /api/v1/baskets/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "basket service not configured", nil)
		return
	}
	id, ok := basketID(w, r)
	if !ok {
		return
	}
	quote, err := h.Svc.Quote(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(quote)})
}

func basketID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid basket id", nil)
		return "", false
	}
	return id, true
}

func (h *Handler) render(q Quote) quoteResponse {
	items := make([]lineResponse, 0, len(q.Items))
	for _, l := range q.Items {
		items = append(items, lineResponse{Code: l.Code, Price: l.Price.String()})
	}
	return quoteResponse{
		ID:    q.ID,
		Items: items,
		Pricing: pricingResponse{
			Gross:    q.Summary.Gross.String(),
			Discount: q.Summary.Discount.String(),
			Subtotal: q.Summary.Subtotal.String(),
			Delivery: q.Summary.Delivery.String(),
			Total:    q.Summary.Total.StringFixed(2),
		},
		Currency: h.Currency,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var unknown *basket.UnknownProductError
	if errors.As(err, &unknown) {
		common.JSONError(w, http.StatusUnprocessableEntity, "UNKNOWN_PRODUCT", unknown.Error(), map[string]any{"code": unknown.Code})
		return
	}
	if errors.Is(err, ErrBasketNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "basket not found", nil)
		return
	}
	if errors.Is(err, lock.ErrNotAcquired) {
		common.JSONError(w, http.StatusConflict, "BASKET_BUSY", "basket is being updated, retry", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
