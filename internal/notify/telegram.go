package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// TelegramNotifier отправляет уведомления в общий чат диспетчеров через Bot API.
// Активен только при заданных токене и чате.
type TelegramNotifier struct {
	botToken   string
	chatID     string
	httpClient *http.Client
	enabled    bool
	baseURL    string // переопределяется в тестах, по умолчанию Telegram API
}

// NewTelegramNotifier создает новый экземпляр TelegramNotifier.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken:   botToken,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		enabled:    botToken != "" && chatID != "",
	}
}

// Enabled сообщает, настроен ли нотификатор.
func (n *TelegramNotifier) Enabled() bool { return n.enabled }

// Notify отправляет сообщение в настроенный чат.
func (n *TelegramNotifier) Notify(ctx context.Context, bidderID string, event Event) error {
	if !n.enabled {
		return nil
	}

	endpoint := n.baseURL
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	}
	text := fmt.Sprintf("[%s] %s: %s (to %s)", event.RequestID, event.Kind, event.Message, bidderID)
	vals := url.Values{
		"chat_id": {n.chatID},
		"text":    {text},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.URL.RawQuery = vals.Encode()

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify: telegram returned status %d", resp.StatusCode)
	}
	return nil
}
