package engine

import (
	"testing"
	"time"

	"github.com/senyabanana/freight-bidding/internal/models"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

var ledgerBase = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func offerAt(id, bidderID string, amount int64, status models.OfferStatus, minute int) models.Offer {
	return models.Offer{
		ID:        id,
		RequestID: "r1",
		BidderID:  bidderID,
		Amount:    amount,
		Status:    status,
		CreatedAt: ledgerBase.Add(time.Duration(minute) * time.Minute),
	}
}

func TestRank_AscendingByAmount(t *testing.T) {
	offers := []models.Offer{
		offerAt("o1", "v1", 50000, models.ActiveOffer, 1),
		offerAt("o2", "v2", 45000, models.ActiveOffer, 2),
		offerAt("o3", "v3", 60000, models.ActiveOffer, 3),
	}

	ranked := Rank(offers)

	assert.Equal(t, 3, len(ranked))
	check.Equal(t, "o2", ranked[0].ID)
	check.Equal(t, "o1", ranked[1].ID)
	check.Equal(t, "o3", ranked[2].ID)
	for i := 1; i < len(ranked); i++ {
		check.True(t, ranked[i-1].Amount <= ranked[i].Amount)
	}
}

func TestRank_TieBrokenByEarlierSubmission(t *testing.T) {
	offers := []models.Offer{
		offerAt("late", "v1", 45000, models.ActiveOffer, 5),
		offerAt("early", "v2", 45000, models.ActiveOffer, 1),
	}

	ranked := Rank(offers)

	assert.Equal(t, 2, len(ranked))
	check.Equal(t, "early", ranked[0].ID)
	check.Equal(t, "late", ranked[1].ID)
}

func TestRank_SkipsTerminalOffers(t *testing.T) {
	offers := []models.Offer{
		offerAt("o1", "v1", 40000, models.OutbidOffer, 1),
		offerAt("o2", "v1", 38000, models.ActiveOffer, 2),
		offerAt("o3", "v2", 35000, models.RejectedOffer, 3),
	}

	ranked := Rank(offers)

	assert.Equal(t, 1, len(ranked))
	check.Equal(t, "o2", ranked[0].ID)
}

func TestRankOf(t *testing.T) {
	offers := []models.Offer{
		offerAt("o1", "v1", 45000, models.ActiveOffer, 1),
		offerAt("o2", "v2", 50000, models.ActiveOffer, 2),
		offerAt("o3", "v3", 60000, models.ActiveOffer, 3),
	}

	check.Equal(t, 1, RankOf(offers, "v1"))
	check.Equal(t, 2, RankOf(offers, "v2"))
	check.Equal(t, 3, RankOf(offers, "v3"))
	check.Equal(t, 0, RankOf(offers, "v4"))
}

func TestLeader(t *testing.T) {
	check.Nil(t, Leader(nil))

	offers := []models.Offer{
		offerAt("o1", "v1", 45000, models.ActiveOffer, 1),
		offerAt("o2", "v2", 42000, models.ActiveOffer, 2),
	}
	leader := Leader(offers)
	assert.NotNil(t, leader)
	check.Equal(t, "o2", leader.ID)
}

func TestActiveOfferOf(t *testing.T) {
	offers := []models.Offer{
		offerAt("o1", "v1", 45000, models.OutbidOffer, 1),
		offerAt("o2", "v1", 42000, models.ActiveOffer, 2),
	}

	active := ActiveOfferOf(offers, "v1")
	assert.NotNil(t, active)
	check.Equal(t, "o2", active.ID)
	check.Nil(t, ActiveOfferOf(offers, "v2"))
}
