package models

import "time"

type (
	RequestState string // Статус заявки на перевозку
	BidMode      string // Режим торгов по заявке
)

const (
	DraftRequest             RequestState = "Draft"             // Заявка создана, торги не открыты
	OpenRequest              RequestState = "Open"              // Заявка открыта для предложений
	PendingResolutionRequest RequestState = "PendingResolution" // Победитель выбран, ждёт подтверждения администратора
	NegotiatingRequest       RequestState = "Negotiating"       // Отправлено встречное предложение
	FinalizedRequest         RequestState = "Finalized"         // Цена согласована
	AssignedRequest          RequestState = "Assigned"          // Перевозчик передал данные для исполнения
	ClosedRequest            RequestState = "Closed"            // Заявка закрыта без победителя

	ForwardMode BidMode = "Forward" // Свободный сбор предложений
	ReverseMode BidMode = "Reverse" // Непрерывный обратный аукцион
)

// Request представляет модель заявки на перевозку (тендер на рейс).
// Денежные поля хранятся в минорных единицах (пайсах); ноль означает "не задано".
type Request struct {
	ID                 string       `json:"id"`
	Lane               string       `json:"lane"`
	Material           string       `json:"material"`
	Capacity           string       `json:"capacity"`
	ReservedPrice      int64        `json:"reservedPrice"`
	CeilingPrice       int64        `json:"ceilingPrice"`
	StepValue          int64        `json:"stepValue"`
	Mode               BidMode      `json:"mode"`
	Status             RequestState `json:"status"`
	BidStart           time.Time    `json:"bidStart"`
	BidEnd             time.Time    `json:"bidEnd"`
	WinningOfferID     string       `json:"winningOfferId,omitempty"`
	FinalAmount        int64        `json:"finalAmount,omitempty"`
	CounterOfferAmount int64        `json:"counterOfferAmount,omitempty"`
	LowestAmount       int64        `json:"lowestAmount,omitempty"`
	LowestBidder       string       `json:"lowestBidder,omitempty"`
	VehicleNumber      string       `json:"vehicleNumber,omitempty"`
	DriverContact      string       `json:"driverContact,omitempty"`
	Version            int32        `json:"version"`
	CreatedAt          time.Time    `json:"createdAt"`
	CreatedBy          string       `json:"-"`
}

// RequestRequest представляет структуру запроса для создания заявки.
type RequestRequest struct {
	Lane          string  `json:"lane"`
	Material      string  `json:"material"`
	Capacity      string  `json:"capacity"`
	ReservedPrice int64   `json:"reservedPrice"`
	CeilingPrice  int64   `json:"ceilingPrice"`
	StepValue     int64   `json:"stepValue"`
	Mode          BidMode `json:"mode"`
	BidStart      string  `json:"bidStart"`
	BidEnd        string  `json:"bidEnd"`
	CreatedBy     string  `json:"createdBy"`
}

// IsTerminal сообщает, является ли состояние заявки конечным.
func (s RequestState) IsTerminal() bool {
	return s == ClosedRequest || s == AssignedRequest
}
