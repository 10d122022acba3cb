package model

import "time"

// BotConfig holds a configured review-bot username. Only review bodies
// authored by a configured bot are fed into classification.
type BotConfig struct {
	ID       int64
	Username string // e.g., "coderabbitai[bot]"
	AddedAt  time.Time
}
