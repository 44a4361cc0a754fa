package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/senyabanana/freight-bidding/internal/models"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

var validatorNow = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func openRequest(mode models.BidMode) models.Request {
	return models.Request{
		ID:            "r1",
		Lane:          "DELHI-MUMBAI",
		ReservedPrice: 30000,
		CeilingPrice:  55000,
		Mode:          mode,
		Status:        models.OpenRequest,
		BidStart:      validatorNow.Add(-time.Hour),
		BidEnd:        validatorNow.Add(time.Hour),
	}
}

func rejectReason(t *testing.T, err error) RejectReason {
	t.Helper()
	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
	return validationErr.Reason
}

func TestValidateOffer_RejectReasons(t *testing.T) {
	bidder := models.Bidder{ID: "v1", Lanes: []string{"DELHI-MUMBAI"}}

	tests := []struct {
		name    string
		mutate  func(*models.Request)
		bidder  models.Bidder
		offers  []models.Offer
		amount  int64
		now     time.Time
		reason  RejectReason
	}{
		{
			name:   "request not open",
			mutate: func(r *models.Request) { r.Status = models.PendingResolutionRequest },
			bidder: bidder, amount: 40000, now: validatorNow,
			reason: ReasonWindowClosed,
		},
		{
			name:   "before window",
			bidder: bidder, amount: 40000, now: validatorNow.Add(-2 * time.Hour),
			reason: ReasonWindowClosed,
		},
		{
			name:   "after window even if state not yet transitioned",
			bidder: bidder, amount: 40000, now: validatorNow.Add(2 * time.Hour),
			reason: ReasonWindowClosed,
		},
		{
			name:   "bidder not eligible for lane",
			bidder: models.Bidder{ID: "v2", Lanes: []string{"PUNE-GOA"}},
			amount: 40000, now: validatorNow,
			reason: ReasonNotEligible,
		},
		{
			name:   "non-positive amount",
			bidder: bidder, amount: 0, now: validatorNow,
			reason: ReasonInvalidAmount,
		},
		{
			name:   "below reserved price",
			bidder: bidder, amount: 25000, now: validatorNow,
			reason: ReasonBelowFloor,
		},
		{
			name:   "above ceiling price",
			bidder: bidder, amount: 62000, now: validatorNow,
			reason: ReasonAboveCeiling,
		},
		{
			name:   "reverse rebid not lower than own bid",
			mutate: func(r *models.Request) { r.Mode = models.ReverseMode },
			bidder: bidder,
			offers: []models.Offer{offerAt("o1", "v1", 45000, models.ActiveOffer, 1)},
			amount: 45000, now: validatorNow,
			reason: ReasonNotLowerThanOwnBid,
		},
		{
			name:   "forward rebid duplicates own active amount",
			bidder: bidder,
			offers: []models.Offer{offerAt("o1", "v1", 45000, models.ActiveOffer, 1)},
			amount: 45000, now: validatorNow,
			reason: ReasonDuplicateActiveBid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := openRequest(models.ForwardMode)
			if tt.mutate != nil {
				tt.mutate(&request)
			}
			judgment, err := ValidateOffer(tt.bidder, request, tt.offers, tt.amount, tt.now)
			check.Nil(t, judgment)
			check.Equal(t, tt.reason, rejectReason(t, err))
		})
	}
}

func TestValidateOffer_UnboundedWhenNoLimitsSet(t *testing.T) {
	request := openRequest(models.ForwardMode)
	request.ReservedPrice = 0
	request.CeilingPrice = 0
	bidder := models.Bidder{ID: "v1"}

	judgment, err := ValidateOffer(bidder, request, nil, 1, validatorNow)
	check.NoError(t, err)
	check.NotNil(t, judgment)

	judgment, err = ValidateOffer(bidder, request, nil, 99000000, validatorNow)
	check.NoError(t, err)
	check.NotNil(t, judgment)
}

func TestValidateOffer_ForwardRebidSupersedesPrior(t *testing.T) {
	request := openRequest(models.ForwardMode)
	bidder := models.Bidder{ID: "v1", Lanes: []string{"DELHI-MUMBAI"}}
	offers := []models.Offer{offerAt("o1", "v1", 45000, models.ActiveOffer, 1)}

	judgment, err := ValidateOffer(bidder, request, offers, 40000, validatorNow)
	assert.NoError(t, err)
	assert.NotNil(t, judgment.Superseded)
	check.Equal(t, "o1", judgment.Superseded.ID)

	// В прямом режиме допускается и повышение собственной цены.
	judgment, err = ValidateOffer(bidder, request, offers, 50000, validatorNow)
	assert.NoError(t, err)
	assert.NotNil(t, judgment.Superseded)
}

func TestValidateOffer_ReverseRequiresBeatingOwnBidOnly(t *testing.T) {
	request := openRequest(models.ReverseMode)
	bidder := models.Bidder{ID: "v2", Lanes: []string{"DELHI-MUMBAI"}}
	offers := []models.Offer{
		offerAt("o1", "v1", 38000, models.ActiveOffer, 1),
		offerAt("o2", "v2", 45000, models.ActiveOffer, 2),
	}

	// Улучшение собственной цены принимается, даже если рыночный минимум не побит.
	judgment, err := ValidateOffer(bidder, request, offers, 42000, validatorNow)
	assert.NoError(t, err)
	assert.NotNil(t, judgment.Superseded)
	check.Equal(t, "o2", judgment.Superseded.ID)
	check.False(t, judgment.BeatsMarket)

	judgment, err = ValidateOffer(bidder, request, offers, 37000, validatorNow)
	assert.NoError(t, err)
	check.True(t, judgment.BeatsMarket)
}

func TestValidateOffer_FirstOfferBeatsMarket(t *testing.T) {
	request := openRequest(models.ForwardMode)
	bidder := models.Bidder{ID: "v1"}

	judgment, err := ValidateOffer(bidder, request, nil, 45000, validatorNow)
	assert.NoError(t, err)
	check.Nil(t, judgment.Superseded)
	check.True(t, judgment.BeatsMarket)
}
