package engine

import (
	"github.com/senyabanana/freight-bidding/internal/models"
)

// Counter отправляет лидирующему участнику встречное предложение по цене.
// Допустимо из Open при наличии активного лидера и из PendingResolution по
// уже выбранному победителю. Заявка переходит в Negotiating, ответ ожидается
// только от лидирующего участника.
func Counter(request models.Request, offers []models.Offer, amount int64) (*Resolution, error) {
	if amount <= 0 {
		return nil, NewValidationError(ReasonInvalidAmount)
	}

	var target *models.Offer
	switch request.Status {
	case models.OpenRequest:
		target = Leader(offers)
	case models.PendingResolutionRequest:
		target = findOffer(offers, request.WinningOfferID)
	}
	if target == nil {
		return nil, NewStateError(request.Status, "counter")
	}

	updated, err := Transition(request, models.NegotiatingRequest, "counter")
	if err != nil {
		return nil, err
	}
	updated.WinningOfferID = target.ID
	updated.CounterOfferAmount = amount
	return &Resolution{Request: updated}, nil
}

// RespondCounter обрабатывает ответ лидирующего участника на встречное предложение.
// Согласие фиксирует встречную цену и завершает торги. Отказ возвращает заявку
// в Open со сброшенной встречной ценой; предложения, отклоненные при прежнем
// закрытии, в Active не возвращаются - участники подают заново.
func RespondCounter(request models.Request, offers []models.Offer, accept bool) (*Resolution, error) {
	if request.Status != models.NegotiatingRequest {
		return nil, NewStateError(request.Status, "respond")
	}

	target := findOffer(offers, request.WinningOfferID)
	if target == nil {
		return nil, ErrUnknownOffer
	}

	if accept {
		updated, err := Transition(request, models.FinalizedRequest, "respond")
		if err != nil {
			return nil, err
		}
		updated.FinalAmount = updated.CounterOfferAmount
		updated.CounterOfferAmount = 0

		var changes []OfferChange
		if target.Status != models.ApprovedOffer {
			changes = append(changes, OfferChange{OfferID: target.ID, Status: models.ApprovedOffer})
		}
		for _, offer := range offers {
			if offer.ID != target.ID && offer.Status == models.ActiveOffer {
				changes = append(changes, OfferChange{OfferID: offer.ID, Status: models.RejectedOffer})
			}
		}
		return &Resolution{Request: updated, Changes: changes}, nil
	}

	updated, err := Transition(request, models.OpenRequest, "respond")
	if err != nil {
		return nil, err
	}
	updated.WinningOfferID = ""
	updated.FinalAmount = 0
	updated.CounterOfferAmount = 0

	var changes []OfferChange
	if target.Status == models.ApprovedOffer {
		changes = append(changes, OfferChange{OfferID: target.ID, Status: models.RejectedOffer})
	}
	return &Resolution{Request: updated, Changes: changes}, nil
}
