package models

// Item is a single record in one of the tracked collections (todo, resource
// or mailbox entry). Timestamps are unix milliseconds to match the wire
// payload consumed by the web client.
type Item struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	CreatedAt int64  `json:"createdAt"`
	DueTime   int64  `json:"dueTime,omitempty"`
}
