// Package model defines the lead record and the value types exchanged with
// the duplicate detection engine.
package model

import (
	"strings"
	"time"
)

// LeadStatus is the lifecycle state of a lead.
type LeadStatus string

const (
	StatusQualified     LeadStatus = "Qualified"
	StatusInterested    LeadStatus = "Interested"
	StatusReplied       LeadStatus = "Replied"
	StatusContacted     LeadStatus = "Contacted"
	StatusOpened        LeadStatus = "Opened"
	StatusClicked       LeadStatus = "Clicked"
	StatusNew           LeadStatus = "New"
	StatusCallBack      LeadStatus = "Call Back"
	StatusUnresponsive  LeadStatus = "Unresponsive"
	StatusNotInterested LeadStatus = "Not Interested"
	StatusUnqualified   LeadStatus = "Unqualified"
)

// statusPriority ranks statuses for merge tie-breaks. Unknown statuses rank 0.
var statusPriority = map[LeadStatus]int{
	StatusQualified:     10,
	StatusInterested:    9,
	StatusReplied:       8,
	StatusContacted:     7,
	StatusOpened:        6,
	StatusClicked:       5,
	StatusNew:           4,
	StatusCallBack:      3,
	StatusUnresponsive:  2,
	StatusNotInterested: 1,
	StatusUnqualified:   0,
}

// StatusPriority returns the fixed merge rank of s.
func StatusPriority(s LeadStatus) int {
	return statusPriority[s]
}

// ParseStatus maps free-form input ("call_back", "NOT-INTERESTED") onto a
// known status. Unrecognized values are returned trimmed but otherwise as-is.
func ParseStatus(raw string) LeadStatus {
	key := strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(raw))
	key = strings.Join(strings.Fields(key), " ")
	for s := range statusPriority {
		if strings.EqualFold(string(s), key) {
			return s
		}
	}
	return LeadStatus(strings.TrimSpace(raw))
}

// Lead is a contact/prospect record as seen by the engine.
type Lead struct {
	ID          string `json:"id" yaml:"id" db:"id"`
	FirstName   string `json:"first_name,omitempty" yaml:"first_name,omitempty" db:"first_name"`
	LastName    string `json:"last_name,omitempty" yaml:"last_name,omitempty" db:"last_name"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty" db:"email"`
	Phone       string `json:"phone,omitempty" yaml:"phone,omitempty" db:"phone"`
	Company     string `json:"company,omitempty" yaml:"company,omitempty" db:"company"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty" db:"title"`
	LinkedInURL string `json:"linkedin_url,omitempty" yaml:"linkedin_url,omitempty" db:"linkedin_url"`
	Industry    string `json:"industry,omitempty" yaml:"industry,omitempty" db:"industry"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty" db:"location"`
	Website     string `json:"website,omitempty" yaml:"website,omitempty" db:"website"`
	Source      string `json:"source,omitempty" yaml:"source,omitempty" db:"source"`

	Status            LeadStatus `json:"status,omitempty" yaml:"status,omitempty" db:"status"`
	CompletenessScore int        `json:"completeness_score" yaml:"completeness_score" db:"completeness_score"`
	EmailsSent        int        `json:"emails_sent" yaml:"emails_sent" db:"emails_sent"`
	LastContactDate   *time.Time `json:"last_contact_date,omitempty" yaml:"last_contact_date,omitempty" db:"last_contact_date"`
	CreatedAt         time.Time  `json:"created_at" yaml:"created_at" db:"created_at"`
}

// FullName joins first and last name.
func (l Lead) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
}

// RecencyDate is the last contact date, falling back to creation time.
func (l Lead) RecencyDate() time.Time {
	if l.LastContactDate != nil {
		return *l.LastContactDate
	}
	return l.CreatedAt
}

// completenessFields are the fields counted by Completeness.
var completenessFields = []func(Lead) string{
	func(l Lead) string { return l.FirstName },
	func(l Lead) string { return l.LastName },
	func(l Lead) string { return l.Email },
	func(l Lead) string { return l.Phone },
	func(l Lead) string { return l.Company },
	func(l Lead) string { return l.Title },
	func(l Lead) string { return l.LinkedInURL },
	func(l Lead) string { return l.Industry },
	func(l Lead) string { return l.Location },
	func(l Lead) string { return l.Website },
}

// Completeness recomputes the 0-100 completeness score from populated fields.
// The stored CompletenessScore is not consulted.
func Completeness(l Lead) int {
	filled := 0
	for _, get := range completenessFields {
		if strings.TrimSpace(get(l)) != "" {
			filled++
		}
	}
	return filled * 100 / len(completenessFields)
}
