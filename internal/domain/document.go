// Package domain contains the core business entities for the archive.
package domain

import (
	"strings"
	"time"
)

// Status represents the editorial state of a document.
type Status string

const (
	// StatusNew is a freshly received document.
	StatusNew Status = "NEW"

	// StatusInReview means the document is being reviewed.
	StatusInReview Status = "IN_REVIEW"

	// StatusInProgress means the document is being worked on
	// (editing, typesetting, design).
	StatusInProgress Status = "IN_PROGRESS"

	// StatusApproved means the document has been approved.
	StatusApproved Status = "APPROVED"

	// StatusRejected means the document has been rejected.
	StatusRejected Status = "REJECTED"

	// StatusArchived means the document has been moved to the archive.
	StatusArchived Status = "ARCHIVED"
)

// Document is the central entity of the archive: a single editorial record.
// The struct is treated as immutable by the business layer; updates go
// through DocumentService.Save, which produces a new value.
type Document struct {
	// ID is the unique identifier (a UUID string).
	// An empty ID marks a document that has not been persisted yet;
	// the business layer assigns a fresh ID on creation.
	ID string `json:"id"`

	// Title is the document's title. Must be non-blank; titles are
	// unique across the store, compared case-insensitively.
	Title string `json:"title"`

	// Author lists the document's authors in order. At least one
	// non-blank entry is required.
	Author []string `json:"author"`

	// Type is a free-text classification ("Manuscript", "Contract", ...).
	Type string `json:"type"`

	// Status is the current editorial status.
	Status Status `json:"status"`

	// AddedByUserID is the ID of the user who created the record.
	// Set once at creation, never changed by later edits.
	AddedByUserID string `json:"added_by_user_id"`

	// CreatedAt is when the record entered the system. Write-once.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is refreshed on every successful save.
	UpdatedAt time.Time `json:"updated_at"`

	// DocumentDate is the optional calendar date of the document itself
	// (e.g. when a manuscript was received), distinct from the audit
	// timestamps above.
	DocumentDate *time.Time `json:"document_date,omitempty"`

	// SourceIDs references related documents (e.g. the manuscript a
	// cover design belongs to).
	SourceIDs []string `json:"source_ids,omitempty"`

	// Description is an optional free-text annotation.
	Description string `json:"description,omitempty"`

	// Tags support quick search.
	Tags []string `json:"tags,omitempty"`

	// FileURL is an optional link to the actual file in cloud storage.
	FileURL string `json:"file_url,omitempty"`
}

// IsNew reports whether the document has not been persisted yet.
func (d *Document) IsNew() bool {
	return d.ID == ""
}

// Validate checks the document's own fields, in order: a non-blank title,
// then at least one non-blank author.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}

	hasAuthor := false
	for _, a := range d.Author {
		if strings.TrimSpace(a) != "" {
			hasAuthor = true
			break
		}
	}
	if !hasAuthor {
		return ErrAuthorRequired
	}

	return nil
}

// MetadataString builds the lowercase search haystack for the document:
// title, authors, tags and type joined with single spaces. Search matches
// a document when every query token is a substring of this string.
func (d *Document) MetadataString() string {
	var b strings.Builder
	b.WriteString(d.Title)
	b.WriteString(" ")
	b.WriteString(strings.Join(d.Author, " "))
	b.WriteString(" ")
	b.WriteString(strings.Join(d.Tags, " "))
	b.WriteString(" ")
	b.WriteString(d.Type)
	return strings.ToLower(b.String())
}

// Clone returns a deep copy of the document. The business layer hands
// copies to the store so callers cannot mutate persisted state through
// shared slices.
func (d *Document) Clone() *Document {
	c := *d
	if d.Author != nil {
		c.Author = append([]string(nil), d.Author...)
	}
	if d.SourceIDs != nil {
		c.SourceIDs = append([]string(nil), d.SourceIDs...)
	}
	if d.Tags != nil {
		c.Tags = append([]string(nil), d.Tags...)
	}
	if d.DocumentDate != nil {
		date := *d.DocumentDate
		c.DocumentDate = &date
	}
	return &c
}
