package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-basket/internal/common"
)

// Handler exposes catalog endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Products handles GET /api/v1/products with page/limit pagination.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	products, err := h.service.Products(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, 50)
	start := (page - 1) * perPage
	if start > len(products) {
		start = len(products)
	}
	end := start + perPage
	if end > len(products) {
		end = len(products)
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(products)))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       products[start:end],
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(products)},
	})
}

// Product handles GET /api/v1/products/{code}.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	p, err := h.service.Product(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// Upsert handles PUT /api/v1/admin/products/{code}.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	var in UpsertInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, common.NewAppError("BAD_REQUEST", "invalid JSON body", http.StatusBadRequest, err))
		return
	}
	in.Code = chi.URLParam(r, "code")
	p, err := h.service.Upsert(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		message := appErr.Message
		if message == "" {
			message = "internal error"
		}
		details := appErr.Details
		if appErr.Err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(appErr.Err, &syntaxErr) {
				details = map[string]any{"offset": syntaxErr.Offset}
			}
		}
		common.JSONError(w, status, code, message, details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
