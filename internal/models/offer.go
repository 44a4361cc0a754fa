package models

import "time"

type OfferStatus string // Статус предложения перевозчика

const (
	ActiveOffer   OfferStatus = "Active"   // Предложение участвует в торгах
	OutbidOffer   OfferStatus = "Outbid"   // Предложение заменено более новым от того же участника
	RejectedOffer OfferStatus = "Rejected" // Предложение отклонено
	ApprovedOffer OfferStatus = "Approved" // Предложение выбрано победителем
)

// Offer представляет модель ценового предложения по заявке.
type Offer struct {
	ID         string      `json:"id"`
	RequestID  string      `json:"requestId"`
	BidderID   string      `json:"bidderId"`
	BidderName string      `json:"bidderName"`
	Amount     int64       `json:"amount"`
	Status     OfferStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// OfferRequest представляет структуру запроса для подачи предложения.
type OfferRequest struct {
	RequestID string `json:"requestId"`
	BidderID  string `json:"bidderId"`
	Amount    int64  `json:"amount"`
}

// IsTerminal сообщает, является ли статус предложения конечным.
func (s OfferStatus) IsTerminal() bool {
	return s != ActiveOffer
}
