package models

import (
	"time"
)

// TutorialStatus captures catalogue visibility.
type TutorialStatus string

const (
	TutorialStatusDraft     TutorialStatus = "DRAFT"
	TutorialStatusPublished TutorialStatus = "PUBLISHED"
	TutorialStatusHidden    TutorialStatus = "HIDDEN"
)

// Tutorial is a mentor's lesson offering. DurationMinutes drives slot partitioning.
type Tutorial struct {
	ID              string         `db:"id" json:"id"`
	MentorID        string         `db:"mentor_id" json:"mentor_id"`
	MentorNickname  string         `db:"mentor_nickname" json:"mentor_nickname"`
	Title           string         `db:"title" json:"title"`
	DurationMinutes int            `db:"duration_minutes" json:"duration_minutes"`
	Status          TutorialStatus `db:"status" json:"status"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Duration returns the lesson length.
func (t Tutorial) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}
