package engine

import (
	"errors"
	"testing"

	"github.com/senyabanana/freight-bidding/internal/models"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestCounter_FromOpenBindsLeader(t *testing.T) {
	request := models.Request{ID: "r1", Status: models.OpenRequest}
	offers := []models.Offer{
		offerAt("o1", "v1", 45000, models.ActiveOffer, 1),
		offerAt("o2", "v2", 50000, models.ActiveOffer, 2),
	}

	res, err := Counter(request, offers, 42000)
	assert.NoError(t, err)
	check.Equal(t, models.NegotiatingRequest, res.Request.Status)
	check.Equal(t, "o1", res.Request.WinningOfferID)
	check.Equal(t, int64(42000), res.Request.CounterOfferAmount)
}

func TestCounter_FromPendingResolution(t *testing.T) {
	request := models.Request{
		ID:             "r1",
		Status:         models.PendingResolutionRequest,
		WinningOfferID: "o1",
		FinalAmount:    45000,
	}
	offers := []models.Offer{offerAt("o1", "v1", 45000, models.ApprovedOffer, 1)}

	res, err := Counter(request, offers, 43000)
	assert.NoError(t, err)
	check.Equal(t, models.NegotiatingRequest, res.Request.Status)
	check.Equal(t, "o1", res.Request.WinningOfferID)
}

func TestCounter_Guards(t *testing.T) {
	_, err := Counter(models.Request{Status: models.OpenRequest}, nil, 42000)
	var stateErr *StateError
	check.True(t, errors.As(err, &stateErr))

	_, err = Counter(models.Request{Status: models.OpenRequest}, nil, 0)
	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
	check.Equal(t, ReasonInvalidAmount, validationErr.Reason)

	_, err = Counter(models.Request{Status: models.ClosedRequest}, nil, 42000)
	check.True(t, errors.As(err, &stateErr))
}

func TestRespondCounter_AcceptFixesFinalAmount(t *testing.T) {
	request := models.Request{
		ID:                 "r1",
		Status:             models.NegotiatingRequest,
		WinningOfferID:     "o1",
		CounterOfferAmount: 42000,
	}
	offers := []models.Offer{
		offerAt("o1", "v1", 45000, models.ActiveOffer, 1),
		offerAt("o2", "v2", 50000, models.ActiveOffer, 2),
	}

	res, err := RespondCounter(request, offers, true)
	assert.NoError(t, err)
	check.Equal(t, models.FinalizedRequest, res.Request.Status)
	check.Equal(t, int64(42000), res.Request.FinalAmount)
	check.Equal(t, int64(0), res.Request.CounterOfferAmount)
	check.Equal(t, models.ApprovedOffer, statusFromChanges(res.Changes, "o1"))
	check.Equal(t, models.RejectedOffer, statusFromChanges(res.Changes, "o2"))
}

func TestRespondCounter_RejectReopensBidding(t *testing.T) {
	request := models.Request{
		ID:                 "r1",
		Status:             models.NegotiatingRequest,
		WinningOfferID:     "o1",
		FinalAmount:        45000,
		CounterOfferAmount: 42000,
	}
	// Встречное предложение было отправлено после закрытия торгов.
	offers := []models.Offer{
		offerAt("o1", "v1", 45000, models.ApprovedOffer, 1),
		offerAt("o2", "v2", 50000, models.RejectedOffer, 2),
	}

	res, err := RespondCounter(request, offers, false)
	assert.NoError(t, err)
	check.Equal(t, models.OpenRequest, res.Request.Status)
	check.Equal(t, "", res.Request.WinningOfferID)
	check.Equal(t, int64(0), res.Request.FinalAmount)
	check.Equal(t, int64(0), res.Request.CounterOfferAmount)

	// Отказавшийся лидер отклоняется, прежние отклонения не возвращаются в Active.
	check.Equal(t, models.RejectedOffer, statusFromChanges(res.Changes, "o1"))
	updated := applyChanges(offers, res.Changes)
	check.Equal(t, 0, len(Rank(updated)))
}

func TestRespondCounter_OnlyFromNegotiating(t *testing.T) {
	_, err := RespondCounter(models.Request{Status: models.OpenRequest}, nil, true)
	var stateErr *StateError
	check.True(t, errors.As(err, &stateErr))
}
