package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/freight-bidding/internal/models"
	"github.com/senyabanana/freight-bidding/internal/services"
	"github.com/senyabanana/freight-bidding/internal/utils"
)

// RequestHandler - структура для обработки HTTP-запросов по заявкам.
type RequestHandler struct {
	Service *services.RequestService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewRequestHandler создает новый экземпляр RequestHandler.
func NewRequestHandler(service *services.RequestService, logger *log.Logger, timeout time.Duration) *RequestHandler {
	return &RequestHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// CreateRequest обрабатывает запросы для создания заявки на перевозку.
func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var requestReq models.RequestRequest
	if err := json.NewDecoder(r.Body).Decode(&requestReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	newRequest, err := h.Service.CreateRequest(ctx, requestReq)
	if err != nil {
		h.writeError(w, err, "failed to create request")
		return
	}
	h.writeJSON(w, newRequest)
}

// OpenRequest обрабатывает запросы для открытия торгов по заявке.
func (h *RequestHandler) OpenRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	opened, err := h.Service.OpenRequest(ctx, r.PathValue("requestId"))
	if err != nil {
		h.writeError(w, err, "failed to open request")
		return
	}
	h.writeJSON(w, opened)
}

// GetRequest обрабатывает запросы для получения заявки.
func (h *RequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	request, err := h.Service.GetRequest(ctx, r.PathValue("requestId"))
	if err != nil {
		h.writeError(w, err, "failed to retrieve request")
		return
	}
	h.writeJSON(w, request)
}

// GetRequestOffers обрабатывает запросы для получения предложений по заявке.
func (h *RequestHandler) GetRequestOffers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	offers, err := h.Service.GetRequestOffers(ctx, r.PathValue("requestId"))
	if err != nil {
		h.writeError(w, err, "failed to retrieve offers")
		return
	}
	h.writeJSON(w, offers)
}

// ListOpenRequests обрабатывает запросы для получения открытых заявок,
// доступных участнику.
func (h *RequestHandler) ListOpenRequests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	bidderID := r.URL.Query().Get("bidderId")
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	requests, err := h.Service.ListOpenForBidder(ctx, bidderID, limitStr, offsetStr)
	if err != nil {
		h.writeError(w, err, "failed to retrieve requests")
		return
	}
	if len(requests) == 0 {
		utils.SendErrorResponse(w, http.StatusNotFound, "no open requests for this bidder")
		return
	}
	h.writeJSON(w, requests)
}

// CloseAuction обрабатывает запросы администратора на закрытие торгов.
func (h *RequestHandler) CloseAuction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	closed, err := h.Service.CloseAuction(ctx, r.PathValue("requestId"))
	if err != nil {
		h.writeError(w, err, "failed to close auction")
		return
	}
	h.writeJSON(w, closed)
}

// ApproveWinner обрабатывает запросы администратора на подтверждение победителя.
func (h *RequestHandler) ApproveWinner(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	approved, err := h.Service.ApproveWinner(ctx, r.PathValue("requestId"))
	if err != nil {
		h.writeError(w, err, "failed to approve winner")
		return
	}
	h.writeJSON(w, approved)
}

// RejectAndPromote обрабатывает запросы администратора на отклонение победителя
// с продвижением следующего предложения.
func (h *RequestHandler) RejectAndPromote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	updated, err := h.Service.RejectAndPromote(ctx, r.PathValue("requestId"), r.PathValue("offerId"))
	if err != nil {
		h.writeError(w, err, "failed to reject offer")
		return
	}
	h.writeJSON(w, updated)
}

// Counter обрабатывает запросы администратора на встречное предложение.
func (h *RequestHandler) Counter(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	amount, err := utils.ParseAmount(r.URL.Query().Get("amount"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.Service.Counter(ctx, r.PathValue("requestId"), amount)
	if err != nil {
		h.writeError(w, err, "failed to send counter offer")
		return
	}
	h.writeJSON(w, updated)
}

// AssignRequest обрабатывает запросы перевозчика с данными для исполнения рейса.
func (h *RequestHandler) AssignRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var details struct {
		VehicleNumber string `json:"vehicleNumber"`
		DriverContact string `json:"driverContact"`
	}
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assigned, err := h.Service.AssignRequest(ctx, r.PathValue("requestId"), details.VehicleNumber, details.DriverContact)
	if err != nil {
		h.writeError(w, err, "failed to assign request")
		return
	}
	h.writeJSON(w, assigned)
}

// WatchRequest стримит события изменений заявки до отключения клиента.
func (h *RequestHandler) WatchRequest(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.SendErrorResponse(w, http.StatusInternalServerError, "streaming is not supported")
		return
	}

	events, cancel := h.Service.Watch(r.PathValue("requestId"))
	defer cancel()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	encoder := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := encoder.Encode(event); err != nil {
				h.Logger.Println(err)
				return
			}
			flusher.Flush()
		}
	}
}

// writeError логирует ошибку сервиса и отправляет ее клиенту.
func (h *RequestHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	h.Logger.Println(err)
	if errorResponse, ok := err.(*models.ErrorResponse); ok {
		utils.SendErrorResponse(w, errorResponse.StatusCode, errorResponse.Message)
		return
	}
	utils.SendErrorResponse(w, http.StatusInternalServerError, fallback)
}

// writeJSON отправляет успешный ответ в формате JSON.
func (h *RequestHandler) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Println(err)
	}
}
