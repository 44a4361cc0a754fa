package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/senyabanana/freight-bidding/internal/engine"
	"github.com/senyabanana/freight-bidding/internal/models"
)

// MemoryRequestRepository - реализация RequestRepository в памяти.
// Используется в тестах и демо-режиме без базы; контракт условных записей
// тот же, что у постгрес-реализации.
type MemoryRequestRepository struct {
	mu       sync.RWMutex
	requests map[string]models.Request
	offers   map[string][]models.Offer
	bidders  map[string]models.Bidder
	events   *broadcaster
}

// NewMemoryRequestRepository создает пустое хранилище в памяти.
func NewMemoryRequestRepository() *MemoryRequestRepository {
	return &MemoryRequestRepository{
		requests: make(map[string]models.Request),
		offers:   make(map[string][]models.Offer),
		bidders:  make(map[string]models.Bidder),
		events:   newBroadcaster(),
	}
}

// CreateRequest сохраняет новую заявку.
func (r *MemoryRequestRepository) CreateRequest(_ context.Context, request models.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[request.ID] = request
	return nil
}

// GetRequest возвращает заявку по id.
func (r *MemoryRequestRepository) GetRequest(_ context.Context, requestID string) (*models.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	request, ok := r.requests[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	return &request, nil
}

// ListOpenRequests возвращает открытые заявки, при непустом списке направлений -
// только по этим направлениям.
func (r *MemoryRequestRepository) ListOpenRequests(_ context.Context, lanes []string, limit, offset int) ([]models.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	laneSet := make(map[string]bool, len(lanes))
	for _, lane := range lanes {
		laneSet[lane] = true
	}

	var open []models.Request
	for _, request := range r.requests {
		if request.Status != models.OpenRequest {
			continue
		}
		if len(laneSet) > 0 && !laneSet[request.Lane] {
			continue
		}
		open = append(open, request)
	}
	sort.Slice(open, func(i, j int) bool { return open[i].BidEnd.Before(open[j].BidEnd) })

	if offset >= len(open) {
		return nil, nil
	}
	open = open[offset:]
	if limit > 0 && limit < len(open) {
		open = open[:limit]
	}
	return open, nil
}

// ListOffers возвращает копию всех предложений по заявке.
func (r *MemoryRequestRepository) ListOffers(_ context.Context, requestID string) ([]models.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	offers := make([]models.Offer, len(r.offers[requestID]))
	copy(offers, r.offers[requestID])
	return offers, nil
}

// GetBidder возвращает участника по id.
func (r *MemoryRequestRepository) GetBidder(_ context.Context, bidderID string) (*models.Bidder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bidder, ok := r.bidders[bidderID]
	if !ok {
		return nil, ErrNotFound
	}
	return &bidder, nil
}

// CreateBidder сохраняет участника.
func (r *MemoryRequestRepository) CreateBidder(_ context.Context, bidder models.Bidder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bidders[bidder.ID] = bidder
	return nil
}

// SubmitOffer атомарно записывает предложение с проверкой версии заявки.
func (r *MemoryRequestRepository) SubmitOffer(_ context.Context, request models.Request, offer models.Offer, supersededOfferID string, expectedVersion int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.requests[request.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != expectedVersion {
		return ErrVersionConflict
	}

	request.Version = expectedVersion + 1
	r.requests[request.ID] = request

	if supersededOfferID != "" {
		offers := r.offers[request.ID]
		for i := range offers {
			if offers[i].ID == supersededOfferID {
				offers[i].Status = models.OutbidOffer
			}
		}
	}
	r.offers[request.ID] = append(r.offers[request.ID], offer)

	r.events.publish(ChangeEvent{
		RequestID:    request.ID,
		Status:       request.Status,
		LowestAmount: request.LowestAmount,
		LowestBidder: request.LowestBidder,
		OccurredAt:   time.Now().UTC(),
	})
	return nil
}

// ApplyResolution атомарно применяет решение движка с проверкой версии заявки.
func (r *MemoryRequestRepository) ApplyResolution(_ context.Context, res engine.Resolution, expectedVersion int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.requests[res.Request.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != expectedVersion {
		return ErrVersionConflict
	}

	updated := res.Request
	updated.Version = expectedVersion + 1
	r.requests[updated.ID] = updated

	offers := r.offers[updated.ID]
	for _, change := range res.Changes {
		for i := range offers {
			if offers[i].ID == change.OfferID {
				offers[i].Status = change.Status
			}
		}
	}

	r.events.publish(ChangeEvent{
		RequestID:    updated.ID,
		Status:       updated.Status,
		LowestAmount: updated.LowestAmount,
		LowestBidder: updated.LowestBidder,
		OccurredAt:   time.Now().UTC(),
	})
	return nil
}

// Subscribe возвращает поток событий изменений заявок.
func (r *MemoryRequestRepository) Subscribe(requestID string) (<-chan ChangeEvent, func()) {
	return r.events.Subscribe(requestID)
}
