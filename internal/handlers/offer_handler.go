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

// OfferHandler - структура для обработки HTTP-запросов по предложениям.
type OfferHandler struct {
	Service *services.OfferService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewOfferHandler создает новый экземпляр OfferHandler.
func NewOfferHandler(service *services.OfferService, logger *log.Logger, timeout time.Duration) *OfferHandler {
	return &OfferHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// SubmitOffer обрабатывает запросы для подачи ценового предложения.
func (h *OfferHandler) SubmitOffer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var offerReq models.OfferRequest
	if err := json.NewDecoder(r.Body).Decode(&offerReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	newOffer, err := h.Service.SubmitOffer(ctx, offerReq)
	if err != nil {
		h.writeError(w, err, "failed to submit offer")
		return
	}
	h.writeJSON(w, newOffer)
}

// GetRank обрабатывает запросы для получения позиции участника по заявке.
func (h *OfferHandler) GetRank(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	rank, err := h.Service.GetRank(ctx, r.PathValue("requestId"), r.URL.Query().Get("bidderId"))
	if err != nil {
		h.writeError(w, err, "failed to compute rank")
		return
	}

	// Ноль означает отсутствие активного предложения, наружу отдается null.
	response := struct {
		Rank *int `json:"rank"`
	}{}
	if rank > 0 {
		response.Rank = &rank
	}
	h.writeJSON(w, response)
}

// RespondToCounter обрабатывает ответ участника на встречное предложение.
func (h *OfferHandler) RespondToCounter(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var response struct {
		BidderID string `json:"bidderId"`
		Accept   bool   `json:"accept"`
	}
	if err := json.NewDecoder(r.Body).Decode(&response); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Service.RespondToCounter(ctx, r.PathValue("requestId"), response.BidderID, response.Accept)
	if err != nil {
		h.writeError(w, err, "failed to process counter response")
		return
	}
	h.writeJSON(w, updated)
}

// writeError логирует ошибку сервиса и отправляет ее клиенту.
func (h *OfferHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	h.Logger.Println(err)
	if errorResponse, ok := err.(*models.ErrorResponse); ok {
		utils.SendErrorResponse(w, errorResponse.StatusCode, errorResponse.Message)
		return
	}
	utils.SendErrorResponse(w, http.StatusInternalServerError, fallback)
}

// writeJSON отправляет успешный ответ в формате JSON.
func (h *OfferHandler) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Println(err)
	}
}
