package models

import (
	"time"

	"gorm.io/gorm"
)

// ProviderInternetArchive identifies the Wayback Machine as the archiving provider.
const ProviderInternetArchive = "internet_archive"

// URLRecord represents a submitted URL and the state of its archived copy.
type URLRecord struct {
	gorm.Model              // Includes ID, CreatedAt, UpdatedAt, DeletedAt
	URL         string     `gorm:"uniqueIndex;not null" json:"url"` // Normalized form, used as the lookup key
	OriginalURL string     `json:"original_url"`                   // Input as first received
	ArchiveURL  *string    `json:"archive_url,omitempty"`          // Nil until a submission succeeds
	Hidden      bool       `gorm:"not null;default:false" json:"hidden"`
	Provider    string     `gorm:"not null" json:"provider"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// HasArchiveURL reports whether the provider has returned an archived copy for this record.
func (r *URLRecord) HasArchiveURL() bool {
	return r.ArchiveURL != nil && *r.ArchiveURL != ""
}
