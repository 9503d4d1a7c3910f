package models

import (
	"time"
)

// Meeting is the immutable output of a recorded and analyzed meeting
type Meeting struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Date          time.Time       `json:"date"`
	Duration      int             `json:"duration"` // Seconds
	Transcript    string          `json:"transcript"`
	Summary       string          `json:"summary"`
	TaskProposals []*TaskProposal `json:"task_proposals"`
	AudioRef      string          `json:"audio_ref,omitempty"`
}
