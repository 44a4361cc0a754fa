package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/freight-bidding/internal/engine"
	"github.com/senyabanana/freight-bidding/internal/models"
	"github.com/senyabanana/freight-bidding/internal/notify"
	"github.com/senyabanana/freight-bidding/internal/repository"

	"github.com/google/uuid"
)

type OfferService struct {
	Repo     repository.RequestRepository
	Notifier notify.Notifier
	Logger   *log.Logger
}

// NewOfferService создает новый экземпляр OfferService.
func NewOfferService(repo repository.RequestRepository, notifier notify.Notifier, logger *log.Logger) *OfferService {
	return &OfferService{Repo: repo, Notifier: notifier, Logger: logger}
}

// SubmitOffer принимает ценовое предложение участника.
// Решение принимается по снимку заявки и пишется условно по ее версии;
// при проигрыше гонки состояние перечитывается и проверка повторяется.
func (s *OfferService) SubmitOffer(ctx context.Context, offerReq models.OfferRequest) (*models.Offer, error) {
	if offerReq.RequestID == "" || offerReq.BidderID == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "missing required fields: requestId or bidderId")
	}

	bidder, err := s.Repo.GetBidder(ctx, offerReq.BidderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewErrorResponse(http.StatusUnauthorized, "bidder does not exist")
		}
		return nil, mapError(err, "failed to load bidder")
	}

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		request, err := s.Repo.GetRequest(ctx, offerReq.RequestID)
		if err != nil {
			return nil, mapError(err, "failed to load request")
		}
		offers, err := s.Repo.ListOffers(ctx, request.ID)
		if err != nil {
			return nil, mapError(err, "failed to load offers")
		}

		judgment, err := engine.ValidateOffer(*bidder, *request, offers, offerReq.Amount, time.Now().UTC())
		if err != nil {
			return nil, mapError(err, "failed to validate offer")
		}

		offer := models.Offer{
			ID:         uuid.New().String(),
			RequestID:  request.ID,
			BidderID:   bidder.ID,
			BidderName: bidder.Name,
			Amount:     offerReq.Amount,
			Status:     models.ActiveOffer,
			CreatedAt:  time.Now().UTC(),
		}

		updated := *request
		supersededID := ""
		if judgment.Superseded != nil {
			supersededID = judgment.Superseded.ID
		}
		prevLowestBidder := request.LowestBidder
		updated.LowestAmount, updated.LowestBidder = lowestAfterSubmit(offers, offer, supersededID)

		err = s.Repo.SubmitOffer(ctx, updated, offer, supersededID, request.Version)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, mapError(err, "failed to submit offer")
		}

		if !judgment.BeatsMarket {
			s.Logger.Printf("non-competitive bid: request=%s bidder=%s amount=%d market lowest=%d",
				request.ID, bidder.ID, offer.Amount, request.LowestAmount)
		}
		if judgment.BeatsMarket && prevLowestBidder != "" && prevLowestBidder != bidder.ID {
			s.notify(ctx, prevLowestBidder, notify.Event{
				RequestID: request.ID,
				Kind:      "outbid",
				Message:   fmt.Sprintf("your offer was undercut, new lowest is %d", offer.Amount),
			})
		}
		return &offer, nil
	}
	return nil, models.NewErrorResponse(http.StatusConflict, "too many concurrent updates, please retry")
}

// GetRank возвращает текущую позицию участника среди активных предложений.
// Ноль означает отсутствие активного предложения. Позиция всегда
// пересчитывается по текущему набору и нигде не кэшируется.
func (s *OfferService) GetRank(ctx context.Context, requestID, bidderID string) (int, error) {
	if requestID == "" || bidderID == "" {
		return 0, models.NewErrorResponse(http.StatusBadRequest, "missing required query parameters: requestId or bidderId")
	}
	if _, err := s.Repo.GetRequest(ctx, requestID); err != nil {
		return 0, mapError(err, "failed to load request")
	}
	offers, err := s.Repo.ListOffers(ctx, requestID)
	if err != nil {
		return 0, mapError(err, "failed to load offers")
	}
	return engine.RankOf(offers, bidderID), nil
}

// RespondToCounter обрабатывает ответ участника на встречное предложение.
// Отвечать может только участник, которому оно адресовано.
func (s *OfferService) RespondToCounter(ctx context.Context, requestID, bidderID string, accept bool) (*models.Request, error) {
	if requestID == "" || bidderID == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "missing required fields: requestId or bidderId")
	}

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		request, err := s.Repo.GetRequest(ctx, requestID)
		if err != nil {
			return nil, mapError(err, "failed to load request")
		}
		offers, err := s.Repo.ListOffers(ctx, requestID)
		if err != nil {
			return nil, mapError(err, "failed to load offers")
		}

		target := offerByID(offers, request.WinningOfferID)
		if request.Status == models.NegotiatingRequest && (target == nil || target.BidderID != bidderID) {
			return nil, models.NewErrorResponse(http.StatusForbidden, "counter offer is not addressed to this bidder")
		}

		res, err := engine.RespondCounter(*request, offers, accept)
		if err != nil {
			return nil, mapError(err, "failed to process response")
		}

		err = s.Repo.ApplyResolution(ctx, *res, request.Version)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, mapError(err, "failed to apply response")
		}

		kind, message := "reopened", "counter offer declined, bidding reopened"
		if accept {
			kind, message = "finalized", fmt.Sprintf("counter offer accepted at %d", res.Request.FinalAmount)
		}
		s.notify(ctx, bidderID, notify.Event{RequestID: requestID, Kind: kind, Message: message})

		updated := res.Request
		updated.Version = request.Version + 1
		return &updated, nil
	}
	return nil, models.NewErrorResponse(http.StatusConflict, "too many concurrent updates, please retry")
}

// notify отправляет уведомление, ошибки доставки только логируются.
func (s *OfferService) notify(ctx context.Context, bidderID string, event notify.Event) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, bidderID, event); err != nil {
		s.Logger.Println(err)
	}
}

// lowestAfterSubmit пересчитывает кэш минимума по активным предложениям после
// приема нового. Кэш - оптимизация чтения, ранги считаются не по нему.
func lowestAfterSubmit(offers []models.Offer, submitted models.Offer, supersededID string) (int64, string) {
	lowest := submitted
	for _, offer := range offers {
		if offer.Status != models.ActiveOffer || offer.ID == supersededID {
			continue
		}
		if offer.Amount < lowest.Amount || (offer.Amount == lowest.Amount && offer.CreatedAt.Before(lowest.CreatedAt)) {
			lowest = offer
		}
	}
	return lowest.Amount, lowest.BidderID
}

// offerByID ищет предложение по id.
func offerByID(offers []models.Offer, offerID string) *models.Offer {
	for i := range offers {
		if offers[i].ID == offerID {
			return &offers[i]
		}
	}
	return nil
}
