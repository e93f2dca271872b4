package domain

import "time"

type MessageID string

// Message is the durable record. Only the ciphertext ever reaches storage.
type Message struct {
	ID         MessageID
	RoomID     RoomID
	UserID     UserID
	Author     Identity
	Ciphertext string
	CreatedAt  time.Time
}

// HistoryEntry is a decrypted, read-only view of a Message.
type HistoryEntry struct {
	Author    Identity  `json:"author"`
	Text      string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
