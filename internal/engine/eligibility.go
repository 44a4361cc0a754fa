package engine

import (
	"github.com/senyabanana/freight-bidding/internal/models"
)

// IsEligible сообщает, может ли участник видеть заявку и подавать по ней предложения.
// Участник без ограничений по направлениям допускается к любой заявке.
// Чистая функция: используется и для фильтрации списков, и как обязательная
// проверка перед приемом предложения.
func IsEligible(bidder models.Bidder, request models.Request) bool {
	if len(bidder.Lanes) == 0 {
		return true
	}
	for _, lane := range bidder.Lanes {
		if lane == request.Lane {
			return true
		}
	}
	return false
}
