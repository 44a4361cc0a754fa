package engine

import (
	"github.com/senyabanana/freight-bidding/internal/models"
)

// allowedStateTransitions - закрытая таблица переходов жизненного цикла заявки.
// Из терминальных состояний (Closed, Assigned) переходов нет.
var allowedStateTransitions = map[models.RequestState][]models.RequestState{
	models.DraftRequest:             {models.OpenRequest, models.ClosedRequest},
	models.OpenRequest:              {models.PendingResolutionRequest, models.NegotiatingRequest, models.ClosedRequest},
	models.PendingResolutionRequest: {models.PendingResolutionRequest, models.NegotiatingRequest, models.FinalizedRequest, models.ClosedRequest},
	models.NegotiatingRequest:       {models.OpenRequest, models.FinalizedRequest},
	models.FinalizedRequest:         {models.AssignedRequest},
	models.ClosedRequest:            {},
	models.AssignedRequest:          {},
}

// CanTransition проверяет допустимость перехода заявки из одного состояния в другое.
func CanTransition(from, to models.RequestState) bool {
	for _, next := range allowedStateTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition возвращает копию заявки в новом состоянии либо StateError,
// если переход не разрешен таблицей.
func Transition(request models.Request, to models.RequestState, event string) (models.Request, error) {
	if !CanTransition(request.Status, to) {
		return request, NewStateError(request.Status, event)
	}
	request.Status = to
	return request, nil
}
