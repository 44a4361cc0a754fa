package models

// Bidder представляет модель участника торгов (перевозчика).
// Пустой список направлений означает, что участник не ограничен направлениями.
type Bidder struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Lanes []string `json:"lanes"`
}
