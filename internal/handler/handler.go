package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/zgoda02/LasCartasZamow/internal/auth"
	"github.com/zgoda02/LasCartasZamow/internal/gzip"
	"github.com/zgoda02/LasCartasZamow/internal/handler/config"
	"github.com/zgoda02/LasCartasZamow/internal/logger"
	"github.com/zgoda02/LasCartasZamow/internal/model"
	"github.com/zgoda02/LasCartasZamow/internal/service"
)

func Serve(cfg config.Config, auth auth.Auth, service service.Service, zaplog *zap.Logger) error {
	h := newHandler(auth, service, zaplog)
	router := h.newRouter()

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: cors.AllowAll().Handler(router),
	}

	return srv.ListenAndServe()
}

type handler struct {
	auth    auth.Auth
	service service.Service
	zaplog  *zap.Logger
}

func newHandler(auth auth.Auth, service service.Service, zaplog *zap.Logger) *handler {
	return &handler{
		auth:    auth,
		service: service,
		zaplog:  zaplog,
	}
}

func (h *handler) newRouter() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", gzip.GzipMiddleware(logger.RequestLogMdlw(h.GetHealth, h.zaplog)))
	mux.HandleFunc("POST /login", gzip.GzipMiddleware(logger.RequestLogMdlw(h.auth.Login, h.zaplog)))
	mux.HandleFunc("GET /items", gzip.GzipMiddleware(logger.RequestLogMdlw(h.GetItems, h.zaplog)))
	mux.HandleFunc("POST /items", gzip.GzipMiddleware(logger.RequestLogMdlw(h.auth.Middleware(h.PostItem), h.zaplog)))
	mux.HandleFunc("PUT /items/{id}", gzip.GzipMiddleware(logger.RequestLogMdlw(h.auth.Middleware(h.PutItem), h.zaplog)))
	mux.HandleFunc("DELETE /items/{id}", gzip.GzipMiddleware(logger.RequestLogMdlw(h.auth.Middleware(h.DeleteItem), h.zaplog)))
	mux.HandleFunc("GET /orders", gzip.GzipMiddleware(logger.RequestLogMdlw(h.GetOrders, h.zaplog)))
	mux.HandleFunc("POST /orders", gzip.GzipMiddleware(logger.RequestLogMdlw(h.PostOrder, h.zaplog)))
	mux.HandleFunc("DELETE /orders/{id}", gzip.GzipMiddleware(logger.RequestLogMdlw(h.auth.Middleware(h.DeleteOrder), h.zaplog)))

	return mux
}

func (h *handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type ItemJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
	PriceH   int    `json:"priceH"`
	PriceS   int    `json:"priceS"`
}

type GetItemsJSONResponse struct {
	Items []ItemJSON `json:"items"`
}

func (h *handler) GetItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.GetItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := GetItemsJSONResponse{Items: make([]ItemJSON, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, ItemJSON{
			ID:       item.ID,
			Name:     item.Name,
			Unit:     item.Unit,
			Category: item.Category,
			PriceH:   item.PriceHere,
			PriceS:   item.PriceAway,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type PostItemJSONRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
	PriceH   *int   `json:"priceH"`
	PriceS   *int   `json:"priceS"`
}

func (h *handler) PostItem(w http.ResponseWriter, r *http.Request) {
	var req PostItemJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	// цены обязательны, отсутствие не равно нулю
	if req.PriceH == nil || req.PriceS == nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	err := h.service.AddItem(r.Context(), model.Item{
		ID:        req.ID,
		Name:      req.Name,
		Unit:      req.Unit,
		Category:  req.Category,
		PriceHere: *req.PriceH,
		PriceAway: *req.PriceS,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, "invalid_body")
		case errors.Is(err, service.ErrAlreadyExists):
			writeError(w, http.StatusBadRequest, "already_exists")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

type PutItemJSONRequest struct {
	Name     *string `json:"name"`
	Unit     *string `json:"unit"`
	Category *string `json:"category"`
	PriceH   *int    `json:"priceH"`
	PriceS   *int    `json:"priceS"`
}

func (h *handler) PutItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req PutItemJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	err := h.service.UpdateItem(r.Context(), id, model.ItemPatch{
		Name:      req.Name,
		Unit:      req.Unit,
		Category:  req.Category,
		PriceHere: req.PriceH,
		PriceAway: req.PriceS,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, "invalid_body")
		case errors.Is(err, service.ErrItemNotFound):
			writeError(w, http.StatusNotFound, "not_found")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type OrderLineJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Qty      int    `json:"qty"`
	Price    int    `json:"price"`
	Subtotal int    `json:"subtotal"`
}

type OrderJSON struct {
	ID      string          `json:"id"`
	Receipt string          `json:"receipt"`
	At      time.Time       `json:"at"`
	Tier    model.Tier      `json:"tier"`
	Total   int             `json:"total"`
	Items   []OrderLineJSON `json:"items"`
}

type GetOrdersJSONResponse struct {
	Orders []OrderJSON `json:"orders"`
}

func (h *handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.GetOrders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := GetOrdersJSONResponse{Orders: make([]OrderJSON, 0, len(orders))}
	for _, order := range orders {
		resp.Orders = append(resp.Orders, orderJSON(order))
	}
	writeJSON(w, http.StatusOK, resp)
}

type PostOrderJSONRequest struct {
	Tier  model.Tier          `json:"tier"`
	Lines []OrderLineJSONItem `json:"lines"`
}

type OrderLineJSONItem struct {
	ID  string   `json:"id"`
	Qty looseQty `json:"qty"`
}

func (h *handler) PostOrder(w http.ResponseWriter, r *http.Request) {
	var req PostOrderJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	// lines обязан быть массивом; null и отсутствие поля отклоняются
	if req.Lines == nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	lines := make([]model.OrderLineRequest, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, model.OrderLineRequest{
			ItemID: line.ID,
			Qty:    int(line.Qty),
		})
	}

	order, err := h.service.CreateOrder(r.Context(), req.Tier, lines)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, "invalid_body")
		case errors.Is(err, service.ErrItemNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, orderJSON(order))
}

func (h *handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOrder(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func orderJSON(order model.Order) OrderJSON {
	oj := OrderJSON{
		ID:      order.ID,
		Receipt: order.Receipt,
		At:      order.At,
		Tier:    order.Tier,
		Total:   order.Total,
		Items:   make([]OrderLineJSON, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		oj.Items = append(oj.Items, OrderLineJSON{
			ID:       line.ItemID,
			Name:     line.Name,
			Qty:      line.Qty,
			Price:    line.Price,
			Subtotal: line.Subtotal,
		})
	}
	return oj
}

// looseQty повторяет коэрцию количества на входе:
// число берется как есть, числовая строка разбирается,
// все нечисловое приравнивается к нулю
type looseQty int

func (q *looseQty) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*q = looseQty(n)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*q = looseQty(int(f))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			*q = looseQty(n)
			return nil
		}
	}

	*q = 0
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
