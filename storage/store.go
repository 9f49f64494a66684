package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arkive/archiver"
	"arkive/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned by admin operations on unknown URLs.
var ErrNotFound = errors.New("url record not found")

// Store persists URL records with gorm.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ archiver.Store = (*Store)(nil)

// FindByURL returns the record for url, or nil when there is none.
func (s *Store) FindByURL(ctx context.Context, url string) (*models.URLRecord, error) {
	var rec models.URLRecord
	err := s.db.WithContext(ctx).Where("url = ?", url).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find record for '%s': %w", url, err)
	}
	return &rec, nil
}

// Insert creates the pre-submission record for url unless one already exists.
// It reports false when the record was already there.
func (s *Store) Insert(ctx context.Context, url, originalURL string) (bool, error) {
	rec := models.URLRecord{
		URL:         url,
		OriginalURL: originalURL,
		Provider:    models.ProviderInternetArchive,
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert record for '%s': %w", url, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// SetArchiveURL stores archiveURL on the record for url. The archive URL is
// written at most once; archiver.ErrArchiveURLSet is returned when the record
// already holds one.
func (s *Store) SetArchiveURL(ctx context.Context, url, archiveURL string) error {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.URLRecord{}).
		Where("url = ? AND (archive_url IS NULL OR archive_url = '')", url).
		Updates(map[string]interface{}{"archive_url": archiveURL, "archived_at": now})
	if result.Error != nil {
		return fmt.Errorf("failed to set archive url for '%s': %w", url, result.Error)
	}
	if result.RowsAffected == 0 {
		rec, err := s.FindByURL(ctx, url)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("failed to set archive url for '%s': %w", url, ErrNotFound)
		}
		return archiver.ErrArchiveURLSet
	}
	return nil
}

// ClearHidden unhides the record for url.
func (s *Store) ClearHidden(ctx context.Context, url string) error {
	return s.setHidden(ctx, url, false)
}

// SetHidden hides the record for url from duplicate detection until it is
// submitted again.
func (s *Store) SetHidden(ctx context.Context, url string) error {
	return s.setHidden(ctx, url, true)
}

func (s *Store) setHidden(ctx context.Context, url string, hidden bool) error {
	result := s.db.WithContext(ctx).Model(&models.URLRecord{}).
		Where("url = ?", url).
		Update("hidden", hidden)
	if result.Error != nil {
		return fmt.Errorf("failed to update hidden flag for '%s': %w", url, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("'%s': %w", url, ErrNotFound)
	}
	return nil
}

// List returns records newest first. Hidden records are included only when
// includeHidden is set. A non-positive limit returns all records.
func (s *Store) List(ctx context.Context, includeHidden bool, limit int) ([]models.URLRecord, error) {
	q := s.db.WithContext(ctx).Order("created_at desc").Order("id desc")
	if !includeHidden {
		q = q.Where("hidden = ?", false)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []models.URLRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return recs, nil
}
