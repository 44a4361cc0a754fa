package repository

import (
	"sync"
)

const subscriberBuffer = 16

// broadcaster рассылает события изменений подписчикам внутри процесса.
// Отправка неблокирующая: подписчик с заполненным буфером пропускает событие.
type broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]subscription
}

type subscription struct {
	requestID string // пустой - все заявки
	ch        chan ChangeEvent
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]subscription)}
}

// Subscribe регистрирует подписчика и возвращает канал событий с функцией отписки.
func (b *broadcaster) Subscribe(requestID string) (<-chan ChangeEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	sub := subscription{requestID: requestID, ch: make(chan ChangeEvent, subscriberBuffer)}
	b.subs[id] = sub

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel
}

// publish рассылает событие всем подходящим подписчикам.
func (b *broadcaster) publish(event ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if sub.requestID != "" && sub.requestID != event.RequestID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}
