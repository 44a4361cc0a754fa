package engine

import (
	"errors"

	"github.com/senyabanana/freight-bidding/internal/models"
)

// ErrUnknownOffer возвращается, когда предложения с таким id по заявке нет.
var ErrUnknownOffer = errors.New("offer not found for this request")

// ErrNotCurrentWinner возвращается при попытке отклонить предложение,
// которое не является текущим победителем.
var ErrNotCurrentWinner = errors.New("offer is not the current winning offer")

// OfferChange описывает смену статуса одного предложения.
type OfferChange struct {
	OfferID string
	Status  models.OfferStatus
}

// Resolution - результат решения движка: обновленная копия заявки и список
// смен статусов предложений. Применяется хранилищем одной атомарной записью.
type Resolution struct {
	Request models.Request
	Changes []OfferChange
}

// CloseAuction закрывает прием предложений по заявке.
// Без предложений заявка уходит в Closed. Иначе предложение с рангом 1
// помечается Approved, остальные активные - Rejected, заявка переходит в
// PendingResolution с записанным победителем. Повторный вызов по уже
// закрытой заявке возвращает StateError и не дает побочных эффектов.
func CloseAuction(request models.Request, offers []models.Offer) (*Resolution, error) {
	if request.Status != models.OpenRequest {
		return nil, NewStateError(request.Status, "close")
	}

	ranked := Rank(offers)
	if len(ranked) == 0 {
		updated, err := Transition(request, models.ClosedRequest, "close")
		if err != nil {
			return nil, err
		}
		return &Resolution{Request: updated}, nil
	}

	updated, err := Transition(request, models.PendingResolutionRequest, "close")
	if err != nil {
		return nil, err
	}
	updated.WinningOfferID = ranked[0].ID
	updated.FinalAmount = ranked[0].Amount

	changes := make([]OfferChange, 0, len(ranked))
	changes = append(changes, OfferChange{OfferID: ranked[0].ID, Status: models.ApprovedOffer})
	for _, offer := range ranked[1:] {
		changes = append(changes, OfferChange{OfferID: offer.ID, Status: models.RejectedOffer})
	}
	return &Resolution{Request: updated, Changes: changes}, nil
}

// Approve подтверждает текущего победителя, заявка переходит в Finalized.
func Approve(request models.Request) (*Resolution, error) {
	if request.Status != models.PendingResolutionRequest || request.WinningOfferID == "" {
		return nil, NewStateError(request.Status, "approve")
	}
	updated, err := Transition(request, models.FinalizedRequest, "approve")
	if err != nil {
		return nil, err
	}
	return &Resolution{Request: updated}, nil
}

// Assign фиксирует данные перевозчика для исполнения рейса, заявка переходит
// в терминальное состояние Assigned.
func Assign(request models.Request, vehicleNumber, driverContact string) (*Resolution, error) {
	updated, err := Transition(request, models.AssignedRequest, "assign")
	if err != nil {
		return nil, err
	}
	updated.VehicleNumber = vehicleNumber
	updated.DriverContact = driverContact
	return &Resolution{Request: updated}, nil
}

// RejectAndPromote отклоняет текущего победителя и продвигает следующее
// предложение по рангу. Кандидаты - предложения, отклоненные при закрытии
// только потому, что не были лидером: по порядку ранга они стоят строго после
// отклоняемого. Если кандидатов не осталось, заявка закрывается.
func RejectAndPromote(request models.Request, offers []models.Offer, rejectedOfferID string) (*Resolution, error) {
	if request.Status != models.PendingResolutionRequest {
		return nil, NewStateError(request.Status, "rejectAndPromote")
	}

	rejected := findOffer(offers, rejectedOfferID)
	if rejected == nil {
		return nil, ErrUnknownOffer
	}
	if rejectedOfferID != request.WinningOfferID {
		return nil, ErrNotCurrentWinner
	}

	next := nextByRank(offers, *rejected)
	changes := []OfferChange{{OfferID: rejected.ID, Status: models.RejectedOffer}}

	if next == nil {
		updated, err := Transition(request, models.ClosedRequest, "rejectAndPromote")
		if err != nil {
			return nil, err
		}
		updated.WinningOfferID = ""
		updated.FinalAmount = 0
		return &Resolution{Request: updated, Changes: changes}, nil
	}

	updated, err := Transition(request, models.PendingResolutionRequest, "rejectAndPromote")
	if err != nil {
		return nil, err
	}
	updated.WinningOfferID = next.ID
	updated.FinalAmount = next.Amount
	changes = append(changes, OfferChange{OfferID: next.ID, Status: models.ApprovedOffer})
	return &Resolution{Request: updated, Changes: changes}, nil
}

// findOffer ищет предложение по id среди предложений заявки.
func findOffer(offers []models.Offer, offerID string) *models.Offer {
	for _, offer := range offers {
		if offer.ID == offerID {
			found := offer
			return &found
		}
	}
	return nil
}

// nextByRank возвращает следующее после prev предложение в порядке ранга
// среди отклоненных при закрытии. Ранее отклоненные администратором стоят
// по рангу раньше prev и потому не рассматриваются повторно.
func nextByRank(offers []models.Offer, prev models.Offer) *models.Offer {
	var next *models.Offer
	for i := range offers {
		offer := offers[i]
		if offer.ID == prev.ID || offer.Status != models.RejectedOffer {
			continue
		}
		if !rankAfter(offer, prev) {
			continue
		}
		if next == nil || rankAfter(*next, offer) {
			candidate := offer
			next = &candidate
		}
	}
	return next
}

// rankAfter сообщает, стоит ли a по рангу строго после b.
func rankAfter(a, b models.Offer) bool {
	if a.Amount != b.Amount {
		return a.Amount > b.Amount
	}
	return a.CreatedAt.After(b.CreatedAt)
}
