package engine

import (
	"testing"

	"github.com/senyabanana/freight-bidding/internal/models"

	"github.com/peterldowns/testy/check"
)

func TestIsEligible(t *testing.T) {
	request := models.Request{ID: "r1", Lane: "DELHI-MUMBAI"}

	tests := []struct {
		name   string
		lanes  []string
		wantOk bool
	}{
		{name: "unrestricted bidder", lanes: nil, wantOk: true},
		{name: "lane assigned", lanes: []string{"DELHI-MUMBAI"}, wantOk: true},
		{name: "lane among several", lanes: []string{"PUNE-GOA", "DELHI-MUMBAI"}, wantOk: true},
		{name: "lane not assigned", lanes: []string{"PUNE-GOA"}, wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bidder := models.Bidder{ID: "v1", Lanes: tt.lanes}
			check.Equal(t, tt.wantOk, IsEligible(bidder, request))
		})
	}
}
