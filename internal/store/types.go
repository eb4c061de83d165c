package store

import "time"

// SessionRecord captures one successful connection.
type SessionRecord struct {
	ID        string    `json:"id"`
	Port      string    `json:"port"`
	BaudRate  int       `json:"baud_rate"`
	Timestamp time.Time `json:"timestamp"`
}
