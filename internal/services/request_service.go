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
	"github.com/senyabanana/freight-bidding/internal/utils"

	"github.com/google/uuid"
)

type RequestService struct {
	Repo     repository.RequestRepository
	Notifier notify.Notifier
	Logger   *log.Logger
}

// NewRequestService создает новый экземпляр RequestService.
func NewRequestService(repo repository.RequestRepository, notifier notify.Notifier, logger *log.Logger) *RequestService {
	return &RequestService{Repo: repo, Notifier: notifier, Logger: logger}
}

// CreateRequest создает новую заявку на перевозку в состоянии Draft.
func (s *RequestService) CreateRequest(ctx context.Context, requestReq models.RequestRequest) (*models.Request, error) {
	if requestReq.Lane == "" || requestReq.CreatedBy == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "missing required fields: lane or createdBy")
	}

	bidStart, err := time.Parse(time.RFC3339, requestReq.BidStart)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "invalid bidStart, expected RFC3339")
	}
	bidEnd, err := time.Parse(time.RFC3339, requestReq.BidEnd)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "invalid bidEnd, expected RFC3339")
	}
	if !bidEnd.After(bidStart) {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "bidEnd must be after bidStart")
	}

	mode := requestReq.Mode
	if mode == "" {
		mode = models.ForwardMode
	}
	if mode != models.ForwardMode && mode != models.ReverseMode {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "invalid mode, must be 'Forward' or 'Reverse'")
	}

	if requestReq.ReservedPrice < 0 || requestReq.CeilingPrice < 0 || requestReq.StepValue < 0 {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "prices must be non-negative")
	}
	if requestReq.ReservedPrice > 0 && requestReq.CeilingPrice > 0 && requestReq.CeilingPrice < requestReq.ReservedPrice {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "ceilingPrice must not be below reservedPrice")
	}

	newRequest := models.Request{
		ID:            uuid.New().String(),
		Lane:          requestReq.Lane,
		Material:      requestReq.Material,
		Capacity:      requestReq.Capacity,
		ReservedPrice: requestReq.ReservedPrice,
		CeilingPrice:  requestReq.CeilingPrice,
		StepValue:     requestReq.StepValue,
		Mode:          mode,
		Status:        models.DraftRequest,
		BidStart:      bidStart,
		BidEnd:        bidEnd,
		Version:       1,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     requestReq.CreatedBy,
	}
	if err := s.Repo.CreateRequest(ctx, newRequest); err != nil {
		return nil, mapError(err, "failed to create request")
	}
	return &newRequest, nil
}

// OpenRequest открывает заявку для приема предложений.
func (s *RequestService) OpenRequest(ctx context.Context, requestID string) (*models.Request, error) {
	return s.applyTransition(ctx, requestID, func(request models.Request, _ []models.Offer) (*engine.Resolution, error) {
		updated, err := engine.Transition(request, models.OpenRequest, "open")
		if err != nil {
			return nil, err
		}
		return &engine.Resolution{Request: updated}, nil
	}, nil)
}

// GetRequest возвращает заявку по id.
func (s *RequestService) GetRequest(ctx context.Context, requestID string) (*models.Request, error) {
	request, err := s.Repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, mapError(err, "failed to load request")
	}
	return request, nil
}

// GetRequestOffers возвращает предложения по заявке в порядке ранга,
// следом - предложения в конечных статусах.
func (s *RequestService) GetRequestOffers(ctx context.Context, requestID string) ([]models.Offer, error) {
	if _, err := s.Repo.GetRequest(ctx, requestID); err != nil {
		return nil, mapError(err, "failed to load request")
	}
	offers, err := s.Repo.ListOffers(ctx, requestID)
	if err != nil {
		return nil, mapError(err, "failed to load offers")
	}
	ranked := engine.Rank(offers)
	for _, offer := range offers {
		if offer.Status != models.ActiveOffer {
			ranked = append(ranked, offer)
		}
	}
	return ranked, nil
}

// ListOpenForBidder возвращает открытые заявки, доступные участнику по его
// направлениям. Фильтр по направлениям продублирован проверкой IsEligible:
// выборка хранилища не единственный рубеж.
func (s *RequestService) ListOpenForBidder(ctx context.Context, bidderID, limitStr, offsetStr string) ([]models.Request, error) {
	if bidderID == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "missing required query parameter: bidderId")
	}
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	bidder, err := s.Repo.GetBidder(ctx, bidderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewErrorResponse(http.StatusUnauthorized, "bidder does not exist")
		}
		return nil, mapError(err, "failed to load bidder")
	}

	requests, err := s.Repo.ListOpenRequests(ctx, bidder.Lanes, limit, offset)
	if err != nil {
		return nil, mapError(err, "failed to load requests")
	}

	eligible := make([]models.Request, 0, len(requests))
	for _, request := range requests {
		if engine.IsEligible(*bidder, request) {
			eligible = append(eligible, request)
		}
	}
	return eligible, nil
}

// CloseAuction закрывает прием предложений и выбирает победителя.
func (s *RequestService) CloseAuction(ctx context.Context, requestID string) (*models.Request, error) {
	return s.applyTransition(ctx, requestID, engineClose, func(res engine.Resolution, offers []models.Offer) {
		if res.Request.Status == models.ClosedRequest {
			return
		}
		for _, change := range res.Changes {
			offer := offerByID(offers, change.OfferID)
			if offer == nil {
				continue
			}
			event := notify.Event{RequestID: requestID, Kind: "closed", Message: "bidding closed, offer rejected"}
			if change.Status == models.ApprovedOffer {
				event = notify.Event{
					RequestID: requestID,
					Kind:      "winner",
					Message:   fmt.Sprintf("your offer %d was selected, awaiting confirmation", offer.Amount),
				}
			}
			s.notify(ctx, offer.BidderID, event)
		}
	})
}

// ApproveWinner подтверждает выбранного победителя, торги завершаются.
func (s *RequestService) ApproveWinner(ctx context.Context, requestID string) (*models.Request, error) {
	return s.applyTransition(ctx, requestID, func(request models.Request, _ []models.Offer) (*engine.Resolution, error) {
		return engine.Approve(request)
	}, func(res engine.Resolution, offers []models.Offer) {
		if offer := offerByID(offers, res.Request.WinningOfferID); offer != nil {
			s.notify(ctx, offer.BidderID, notify.Event{
				RequestID: requestID,
				Kind:      "finalized",
				Message:   fmt.Sprintf("your offer %d is confirmed, please submit vehicle details", res.Request.FinalAmount),
			})
		}
	})
}

// RejectAndPromote отклоняет текущего победителя и продвигает следующего по рангу.
func (s *RequestService) RejectAndPromote(ctx context.Context, requestID, offerID string) (*models.Request, error) {
	return s.applyTransition(ctx, requestID, func(request models.Request, offers []models.Offer) (*engine.Resolution, error) {
		return engine.RejectAndPromote(request, offers, offerID)
	}, func(res engine.Resolution, offers []models.Offer) {
		if offer := offerByID(offers, res.Request.WinningOfferID); offer != nil {
			s.notify(ctx, offer.BidderID, notify.Event{
				RequestID: requestID,
				Kind:      "winner",
				Message:   fmt.Sprintf("your offer %d was promoted, awaiting confirmation", offer.Amount),
			})
		}
	})
}

// Counter отправляет лидирующему участнику встречное предложение по цене.
func (s *RequestService) Counter(ctx context.Context, requestID string, amount int64) (*models.Request, error) {
	return s.applyTransition(ctx, requestID, func(request models.Request, offers []models.Offer) (*engine.Resolution, error) {
		return engine.Counter(request, offers, amount)
	}, func(res engine.Resolution, offers []models.Offer) {
		if offer := offerByID(offers, res.Request.WinningOfferID); offer != nil {
			s.notify(ctx, offer.BidderID, notify.Event{
				RequestID: requestID,
				Kind:      "counter",
				Message:   fmt.Sprintf("counter offer received: %d", amount),
			})
		}
	})
}

// AssignRequest фиксирует данные перевозчика для исполнения рейса.
func (s *RequestService) AssignRequest(ctx context.Context, requestID, vehicleNumber, driverContact string) (*models.Request, error) {
	if vehicleNumber == "" || driverContact == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "missing required fields: vehicleNumber or driverContact")
	}
	return s.applyTransition(ctx, requestID, func(request models.Request, _ []models.Offer) (*engine.Resolution, error) {
		return engine.Assign(request, vehicleNumber, driverContact)
	}, nil)
}

// Watch возвращает поток событий изменений по заявке (пустой id - по всем).
func (s *RequestService) Watch(requestID string) (<-chan repository.ChangeEvent, func()) {
	return s.Repo.Subscribe(requestID)
}

// engineClose - решение закрытия торгов в сигнатуре applyTransition.
func engineClose(request models.Request, offers []models.Offer) (*engine.Resolution, error) {
	return engine.CloseAuction(request, offers)
}

// applyTransition выполняет решение движка по снимку заявки и применяет его
// условной записью. Проигрыш гонки за версию приводит к перечитыванию и
// повторному решению: второй из двух одновременных вызовов увидит уже
// переведенное состояние и получит отказ без побочных эффектов.
func (s *RequestService) applyTransition(
	ctx context.Context,
	requestID string,
	decide func(models.Request, []models.Offer) (*engine.Resolution, error),
	onApplied func(engine.Resolution, []models.Offer),
) (*models.Request, error) {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		request, err := s.Repo.GetRequest(ctx, requestID)
		if err != nil {
			return nil, mapError(err, "failed to load request")
		}
		offers, err := s.Repo.ListOffers(ctx, requestID)
		if err != nil {
			return nil, mapError(err, "failed to load offers")
		}

		res, err := decide(*request, offers)
		if err != nil {
			return nil, mapError(err, "failed to resolve request")
		}

		err = s.Repo.ApplyResolution(ctx, *res, request.Version)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, mapError(err, "failed to apply resolution")
		}

		if onApplied != nil {
			onApplied(*res, offers)
		}
		updated := res.Request
		updated.Version = request.Version + 1
		return &updated, nil
	}
	return nil, models.NewErrorResponse(http.StatusConflict, "too many concurrent updates, please retry")
}

// notify отправляет уведомление, ошибки доставки только логируются.
func (s *RequestService) notify(ctx context.Context, bidderID string, event notify.Event) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, bidderID, event); err != nil {
		s.Logger.Println(err)
	}
}
