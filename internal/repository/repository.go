package repository

import (
	"context"
	"errors"
	"time"

	"github.com/senyabanana/freight-bidding/internal/engine"
	"github.com/senyabanana/freight-bidding/internal/models"
)

var (
	// ErrNotFound возвращается, когда заявка, предложение или участник не найдены.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict возвращается, когда параллельная запись по той же заявке
	// успела раньше. Вызывающий перечитывает состояние и повторяет решение.
	ErrVersionConflict = errors.New("request was modified concurrently")
)

// ChangeEvent - событие изменения заявки для подписчиков (панели, участники).
type ChangeEvent struct {
	RequestID    string              `json:"requestId"`
	Status       models.RequestState `json:"status"`
	LowestAmount int64               `json:"lowestAmount,omitempty"`
	LowestBidder string              `json:"lowestBidder,omitempty"`
	OccurredAt   time.Time           `json:"occurredAt"`
}

// RequestRepository - интерфейс хранилища заявок и предложений.
// Мутирующие операции условны по версии заявки: при несовпадении версии
// хранилище не пишет ничего и возвращает ErrVersionConflict. Заявка вместе со
// своими предложениями меняется как единое целое; заявки между собой независимы.
type RequestRepository interface {
	CreateRequest(ctx context.Context, request models.Request) error
	GetRequest(ctx context.Context, requestID string) (*models.Request, error)
	ListOpenRequests(ctx context.Context, lanes []string, limit, offset int) ([]models.Request, error)
	ListOffers(ctx context.Context, requestID string) ([]models.Offer, error)

	GetBidder(ctx context.Context, bidderID string) (*models.Bidder, error)
	CreateBidder(ctx context.Context, bidder models.Bidder) error

	// SubmitOffer атомарно записывает предложение: вставка нового, перевод
	// замененного в Outbid и обновление кэша минимума на заявке.
	SubmitOffer(ctx context.Context, request models.Request, offer models.Offer, supersededOfferID string, expectedVersion int32) error
	// ApplyResolution атомарно применяет решение движка: новые поля заявки
	// и смены статусов предложений.
	ApplyResolution(ctx context.Context, res engine.Resolution, expectedVersion int32) error

	// Subscribe возвращает поток событий по заявке (пустой id - по всем)
	// и функцию отписки. Доставка негарантированная, медленный подписчик
	// пропускает события.
	Subscribe(requestID string) (<-chan ChangeEvent, func())
}
