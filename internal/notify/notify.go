package notify

import (
	"context"
	"fmt"
	"log"
)

// Event - уведомление участнику о событии торгов.
type Event struct {
	RequestID string
	Kind      string // outbid, winner, counter, reopened, closed
	Message   string
}

// Notifier доставляет уведомления участникам. Доставка негарантированная:
// ошибка доставки логируется и никогда не блокирует переход состояния заявки.
type Notifier interface {
	Notify(ctx context.Context, bidderID string, event Event) error
}

// LogNotifier пишет уведомления в лог. Используется, когда внешний канал
// доставки не настроен.
type LogNotifier struct {
	Logger *log.Logger
}

// NewLogNotifier создает новый экземпляр LogNotifier.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{Logger: logger}
}

// Notify пишет уведомление в лог.
func (n *LogNotifier) Notify(_ context.Context, bidderID string, event Event) error {
	n.Logger.Println(fmt.Sprintf("notify %s [%s/%s]: %s", bidderID, event.RequestID, event.Kind, event.Message))
	return nil
}
