package services

import (
	"errors"
	"net/http"

	"github.com/senyabanana/freight-bidding/internal/engine"
	"github.com/senyabanana/freight-bidding/internal/models"
	"github.com/senyabanana/freight-bidding/internal/repository"
)

// maxConflictRetries - число повторов операции при проигрыше гонки за версию заявки.
const maxConflictRetries = 3

// mapError переводит ошибки движка и хранилища в ErrorResponse с HTTP-кодом.
// Причины отклонения предложений отдаются вызывающему дословно.
func mapError(err error, fallback string) error {
	var errorResponse *models.ErrorResponse
	if errors.As(err, &errorResponse) {
		return errorResponse
	}

	var validationErr *engine.ValidationError
	if errors.As(err, &validationErr) {
		return models.NewErrorResponse(http.StatusBadRequest, string(validationErr.Reason))
	}

	var stateErr *engine.StateError
	if errors.As(err, &stateErr) {
		return models.NewErrorResponse(http.StatusConflict, stateErr.Error())
	}

	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, engine.ErrUnknownOffer):
		return models.NewErrorResponse(http.StatusNotFound, "not found")
	case errors.Is(err, engine.ErrNotCurrentWinner):
		return models.NewErrorResponse(http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrVersionConflict):
		return models.NewErrorResponse(http.StatusConflict, "request was modified concurrently, please retry")
	}
	return models.NewErrorResponse(http.StatusInternalServerError, fallback)
}
