package engine

import (
	"time"

	"github.com/senyabanana/freight-bidding/internal/models"
)

// Judgment - результат успешной проверки предложения.
type Judgment struct {
	// Superseded - прежнее активное предложение участника, которое новое
	// предложение заменяет (инвариант "одно активное предложение на участника").
	// Nil, если прежнего не было.
	Superseded *models.Offer
	// BeatsMarket сообщает, побило ли предложение текущий минимум среди
	// остальных участников. Проигрыш рынку не блокирует прием, только логируется.
	BeatsMarket bool
}

// ValidateOffer проверяет предложение перед записью в реестр.
// Проверки выполняются строго по порядку: окно торгов, допуск по направлению,
// сумма, нижняя и верхняя границы, затем правила режима торгов.
// В обратном аукционе каждое новое предложение участника обязано быть строго
// ниже его собственного предыдущего; рыночный минимум оно бить не обязано.
func ValidateOffer(bidder models.Bidder, request models.Request, offers []models.Offer, amount int64, now time.Time) (*Judgment, error) {
	if request.Status != models.OpenRequest {
		return nil, NewValidationError(ReasonWindowClosed)
	}
	if now.Before(request.BidStart) || !now.Before(request.BidEnd) {
		return nil, NewValidationError(ReasonWindowClosed)
	}
	if !IsEligible(bidder, request) {
		return nil, NewValidationError(ReasonNotEligible)
	}
	if amount <= 0 {
		return nil, NewValidationError(ReasonInvalidAmount)
	}
	if request.ReservedPrice > 0 && amount < request.ReservedPrice {
		return nil, NewValidationError(ReasonBelowFloor)
	}
	if request.CeilingPrice > 0 && amount > request.CeilingPrice {
		return nil, NewValidationError(ReasonAboveCeiling)
	}

	prior := ActiveOfferOf(offers, bidder.ID)
	switch request.Mode {
	case models.ReverseMode:
		if prior != nil && amount >= prior.Amount {
			return nil, NewValidationError(ReasonNotLowerThanOwnBid)
		}
	default:
		// Прямой режим: сумма ничем не ограничена, но повтор собственной
		// активной суммы не принимается.
		if prior != nil && amount == prior.Amount {
			return nil, NewValidationError(ReasonDuplicateActiveBid)
		}
	}

	return &Judgment{
		Superseded:  prior,
		BeatsMarket: beatsMarket(offers, bidder.ID, amount),
	}, nil
}

// beatsMarket сообщает, ниже ли сумма всех активных предложений остальных участников.
func beatsMarket(offers []models.Offer, bidderID string, amount int64) bool {
	for _, offer := range offers {
		if offer.Status != models.ActiveOffer || offer.BidderID == bidderID {
			continue
		}
		if offer.Amount <= amount {
			return false
		}
	}
	return true
}
