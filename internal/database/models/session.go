package models

import (
	"math"
	"time"
)

// SessionStatus tracks the lifecycle of a download session row
type SessionStatus string

const (
	SessionStatusRunning     SessionStatus = "running"
	SessionStatusCompleted   SessionStatus = "completed"
	SessionStatusInterrupted SessionStatus = "interrupted"
)

// Session represents one orchestration run
type Session struct {
	ID                  int64
	SessionID           string
	StartTime           time.Time
	EndTime             *time.Time
	TotalURLs           int
	SuccessfulDownloads *int
	FailedDownloads     *int
	SuccessRate         *float64
	SourceFile          string
	Status              SessionStatus
	Notes               string
}

// IsOpen reports whether the session was never closed
func (s *Session) IsOpen() bool {
	return s.EndTime == nil
}

// SuccessRate returns successful/(successful+failed)*100, or 0 when nothing was processed
func SuccessRate(successful, failed int) float64 {
	total := successful + failed
	if total <= 0 {
		return 0
	}
	return float64(successful) / float64(total) * 100
}

// RoundTo rounds v to the given number of decimal places
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
