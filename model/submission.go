package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"deadlock/service/judge"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// MessageTextLimit is the limit of the error text kept with a submission.
const MessageTextLimit = 1024

// Submission is the verdict log of a judged submission.
type Submission struct {
	ID        uuid.UUID `gorm:"primary_key;type:uuid" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Problem  string `gorm:"not null;index" json:"problem"`
	Revision string `json:"revision"`

	// Tags are the problem tags at the time of the submission.
	Tags pq.StringArray `gorm:"type:text[]" json:"tags"`

	Language   string `gorm:"not null" json:"language"`
	Verdict    string `gorm:"not null" json:"verdict"`
	FailedCase int    `json:"failed_case"`
	Passed     int    `json:"passed"`
	Total      int    `json:"total"`
	Error      string `gorm:"type:text" json:"error,omitempty"`
}

// TruncateMessage cuts s to at most MessageTextLimit bytes without splitting a rune.
// Invalid UTF-8 is replaced, since postgres refuses it in text columns.
func TruncateMessage(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= MessageTextLimit-3 {
		return s
	}
	cut := MessageTextLimit - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// NewSubmission builds the record of a judged submission.
func NewSubmission(
	id uuid.UUID, problem, rev string, tags []string, sub *judge.Submission, report *judge.Report,
) *Submission {
	return &Submission{
		ID:         id,
		Problem:    problem,
		Revision:   rev,
		Tags:       tags,
		Language:   sub.Language.String(),
		Verdict:    string(report.Verdict),
		FailedCase: report.FailedCase,
		Passed:     report.Passed,
		Total:      report.Total,
		Error:      TruncateMessage(report.Error),
	}
}

// CreateSubmission saves a submission.
func CreateSubmission(db *gorm.DB, s *Submission) error {
	return db.Create(s).Error
}

// GetSubmissionByID returns a submission by ID.
func GetSubmissionByID(db *gorm.DB, id uuid.UUID) (*Submission, error) {
	var s Submission
	err := db.Where("id = ?", id).First(&s).Error
	return &s, err
}

// ListSubmissionsByProblem returns the latest submissions of a problem.
func ListSubmissionsByProblem(db *gorm.DB, problem string, limit int) ([]Submission, error) {
	var submissions []Submission
	err := db.Where("problem = ?", problem).Order("created_at desc").Limit(limit).
		Find(&submissions).Error
	return submissions, err
}
