package engine

import (
	"sort"

	"github.com/senyabanana/freight-bidding/internal/models"
)

// Rank возвращает активные предложения по заявке в порядке возрастания суммы.
// При равных суммах выше стоит предложение, поданное раньше.
// Порядок всегда пересчитывается по текущему набору предложений и нигде не
// сохраняется: после одобрений и отклонений состав меняется.
func Rank(offers []models.Offer) []models.Offer {
	ranked := make([]models.Offer, 0, len(offers))
	for _, offer := range offers {
		if offer.Status == models.ActiveOffer {
			ranked = append(ranked, offer)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Amount != ranked[j].Amount {
			return ranked[i].Amount < ranked[j].Amount
		}
		return ranked[i].CreatedAt.Before(ranked[j].CreatedAt)
	})
	return ranked
}

// RankOf возвращает позицию участника среди активных предложений (1 - лидер).
// Ноль означает, что активного предложения у участника нет.
func RankOf(offers []models.Offer, bidderID string) int {
	for i, offer := range Rank(offers) {
		if offer.BidderID == bidderID {
			return i + 1
		}
	}
	return 0
}

// Leader возвращает текущее лидирующее предложение или nil, если активных нет.
func Leader(offers []models.Offer) *models.Offer {
	ranked := Rank(offers)
	if len(ranked) == 0 {
		return nil
	}
	leader := ranked[0]
	return &leader
}

// ActiveOfferOf возвращает активное предложение участника по заявке или nil.
func ActiveOfferOf(offers []models.Offer, bidderID string) *models.Offer {
	for _, offer := range offers {
		if offer.BidderID == bidderID && offer.Status == models.ActiveOffer {
			found := offer
			return &found
		}
	}
	return nil
}
