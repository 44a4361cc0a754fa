package engine

import (
	"errors"
	"testing"

	"github.com/senyabanana/freight-bidding/internal/models"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

// statusFromChanges возвращает новый статус предложения по списку смен.
func statusFromChanges(changes []OfferChange, offerID string) models.OfferStatus {
	for _, change := range changes {
		if change.OfferID == offerID {
			return change.Status
		}
	}
	return ""
}

// applyChanges накатывает смены статусов на копию предложений, имитируя хранилище.
func applyChanges(offers []models.Offer, changes []OfferChange) []models.Offer {
	updated := make([]models.Offer, len(offers))
	copy(updated, offers)
	for _, change := range changes {
		for i := range updated {
			if updated[i].ID == change.OfferID {
				updated[i].Status = change.Status
			}
		}
	}
	return updated
}

func TestCloseAuction_NoOffers(t *testing.T) {
	request := models.Request{ID: "r1", Status: models.OpenRequest}

	res, err := CloseAuction(request, nil)
	assert.NoError(t, err)
	check.Equal(t, models.ClosedRequest, res.Request.Status)
	check.Equal(t, "", res.Request.WinningOfferID)
	check.Equal(t, 0, len(res.Changes))
}

func TestCloseAuction_SelectsLowestOffer(t *testing.T) {
	request := models.Request{ID: "r1", Status: models.OpenRequest}
	offers := []models.Offer{
		offerAt("o1", "v1", 50000, models.ActiveOffer, 1),
		offerAt("o2", "v2", 45000, models.ActiveOffer, 2),
		offerAt("o3", "v3", 60000, models.ActiveOffer, 3),
	}

	res, err := CloseAuction(request, offers)
	assert.NoError(t, err)
	check.Equal(t, models.PendingResolutionRequest, res.Request.Status)
	check.Equal(t, "o2", res.Request.WinningOfferID)
	check.Equal(t, int64(45000), res.Request.FinalAmount)
	check.Equal(t, models.ApprovedOffer, statusFromChanges(res.Changes, "o2"))
	check.Equal(t, models.RejectedOffer, statusFromChanges(res.Changes, "o1"))
	check.Equal(t, models.RejectedOffer, statusFromChanges(res.Changes, "o3"))
}

func TestCloseAuction_IgnoresSupersededOffers(t *testing.T) {
	request := models.Request{ID: "r1", Status: models.OpenRequest}
	offers := []models.Offer{
		offerAt("o1", "v1", 45000, models.OutbidOffer, 1),
		offerAt("o2", "v1", 40000, models.ActiveOffer, 2),
	}

	res, err := CloseAuction(request, offers)
	assert.NoError(t, err)
	check.Equal(t, "o2", res.Request.WinningOfferID)
	check.Equal(t, int64(40000), res.Request.FinalAmount)
}

func TestCloseAuction_SecondCallIsRejected(t *testing.T) {
	request := models.Request{ID: "r1", Status: models.OpenRequest}
	offers := []models.Offer{offerAt("o1", "v1", 45000, models.ActiveOffer, 1)}

	res, err := CloseAuction(request, offers)
	assert.NoError(t, err)

	// Повторное закрытие видит уже переведенное состояние и не дает эффектов.
	_, err = CloseAuction(res.Request, applyChanges(offers, res.Changes))
	var stateErr *StateError
	assert.True(t, errors.As(err, &stateErr))
	check.Equal(t, models.PendingResolutionRequest, stateErr.From)
}

func TestApprove(t *testing.T) {
	request := models.Request{
		ID:             "r1",
		Status:         models.PendingResolutionRequest,
		WinningOfferID: "o1",
		FinalAmount:    45000,
	}

	res, err := Approve(request)
	assert.NoError(t, err)
	check.Equal(t, models.FinalizedRequest, res.Request.Status)
	check.Equal(t, int64(45000), res.Request.FinalAmount)

	_, err = Approve(models.Request{ID: "r1", Status: models.OpenRequest})
	var stateErr *StateError
	check.True(t, errors.As(err, &stateErr))
}

func TestRejectAndPromote_Chain(t *testing.T) {
	request := models.Request{ID: "r1", Status: models.OpenRequest}
	offers := []models.Offer{
		offerAt("oa", "A", 45000, models.ActiveOffer, 1),
		offerAt("ob", "B", 50000, models.ActiveOffer, 2),
		offerAt("oc", "C", 60000, models.ActiveOffer, 3),
	}

	res, err := CloseAuction(request, offers)
	assert.NoError(t, err)
	check.Equal(t, "oa", res.Request.WinningOfferID)
	offers = applyChanges(offers, res.Changes)

	// Отклонение A продвигает B.
	res, err = RejectAndPromote(res.Request, offers, "oa")
	assert.NoError(t, err)
	check.Equal(t, models.PendingResolutionRequest, res.Request.Status)
	check.Equal(t, "ob", res.Request.WinningOfferID)
	check.Equal(t, int64(50000), res.Request.FinalAmount)
	check.Equal(t, models.ApprovedOffer, statusFromChanges(res.Changes, "ob"))
	offers = applyChanges(offers, res.Changes)

	// Отклонение B продвигает C.
	res, err = RejectAndPromote(res.Request, offers, "ob")
	assert.NoError(t, err)
	check.Equal(t, "oc", res.Request.WinningOfferID)
	check.Equal(t, int64(60000), res.Request.FinalAmount)
	offers = applyChanges(offers, res.Changes)

	// Отклонение C исчерпывает реестр, заявка закрывается.
	res, err = RejectAndPromote(res.Request, offers, "oc")
	assert.NoError(t, err)
	check.Equal(t, models.ClosedRequest, res.Request.Status)
	check.Equal(t, "", res.Request.WinningOfferID)
	check.Equal(t, int64(0), res.Request.FinalAmount)
}

func TestRejectAndPromote_DoesNotRevisitEarlierRejections(t *testing.T) {
	request := models.Request{
		ID:             "r1",
		Status:         models.PendingResolutionRequest,
		WinningOfferID: "ob",
	}
	// A уже отклонен администратором, B - текущий победитель.
	offers := []models.Offer{
		offerAt("oa", "A", 45000, models.RejectedOffer, 1),
		offerAt("ob", "B", 50000, models.ApprovedOffer, 2),
		offerAt("oc", "C", 60000, models.RejectedOffer, 3),
	}

	res, err := RejectAndPromote(request, offers, "ob")
	assert.NoError(t, err)
	check.Equal(t, "oc", res.Request.WinningOfferID)
}

func TestRejectAndPromote_Guards(t *testing.T) {
	request := models.Request{
		ID:             "r1",
		Status:         models.PendingResolutionRequest,
		WinningOfferID: "oa",
	}
	offers := []models.Offer{offerAt("oa", "A", 45000, models.ApprovedOffer, 1)}

	_, err := RejectAndPromote(request, offers, "missing")
	check.True(t, errors.Is(err, ErrUnknownOffer))

	offers = append(offers, offerAt("ob", "B", 50000, models.RejectedOffer, 2))
	_, err = RejectAndPromote(request, offers, "ob")
	check.True(t, errors.Is(err, ErrNotCurrentWinner))

	request.Status = models.OpenRequest
	_, err = RejectAndPromote(request, offers, "oa")
	var stateErr *StateError
	check.True(t, errors.As(err, &stateErr))
}

func TestAssign(t *testing.T) {
	request := models.Request{ID: "r1", Status: models.FinalizedRequest}

	res, err := Assign(request, "MH-12-AB-1234", "+91-98000-00000")
	assert.NoError(t, err)
	check.Equal(t, models.AssignedRequest, res.Request.Status)
	check.Equal(t, "MH-12-AB-1234", res.Request.VehicleNumber)

	_, err = Assign(models.Request{Status: models.OpenRequest}, "x", "y")
	var stateErr *StateError
	check.True(t, errors.As(err, &stateErr))
}
