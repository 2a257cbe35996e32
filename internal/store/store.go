package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lastmile-backend/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the persistence operations for users, search history, the
// snapshot log and push subscriptions.
type Store interface {
	DB() *gorm.DB

	UpsertUser(ctx context.Context, username string) (model.User, error)
	GetUser(ctx context.Context, username string) (model.User, error)

	AddSearch(ctx context.Context, username, destination string) error
	History(ctx context.Context, username string) ([]string, error)
	ClearHistory(ctx context.Context, username string) error

	SaveSnapshot(ctx context.Context, snap model.SharedSnapshot) error
	GetSnapshot(ctx context.Context, id string) (model.SharedSnapshot, error)
	Inbox(ctx context.Context, username string) ([]model.SharedSnapshot, error)
	ClearInbox(ctx context.Context, username string) error

	SaveSubscription(ctx context.Context, sub model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsFor(ctx context.Context, username string) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// UpsertUser normalizes the username and creates the user if needed.
func (s *gormStore) UpsertUser(ctx context.Context, username string) (model.User, error) {
	u := model.User{Username: model.NormalizeUsername(username)}
	if u.Username == "" {
		return model.User{}, fmt.Errorf("username must not be empty")
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
	}).Create(&u).Error
	if err != nil {
		return model.User{}, fmt.Errorf("failed to upsert user %q: %w", u.Username, err)
	}
	return u, nil
}

func (s *gormStore) GetUser(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).First(&u, "username = ?", model.NormalizeUsername(username)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// AddSearch records a destination in the user's history: case-insensitive
// duplicates are removed first (so the entry moves to the front with the new
// casing), then the list is truncated to model.MaxHistoryEntries.
func (s *gormStore) AddSearch(ctx context.Context, username, destination string) error {
	user := model.NormalizeUsername(username)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("username = ? AND LOWER(destination) = LOWER(?)", user, destination).
			Delete(&model.SearchRecord{}).Error; err != nil {
			return fmt.Errorf("failed to dedupe history: %w", err)
		}

		rec := model.SearchRecord{Username: user, Destination: destination}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to record search: %w", err)
		}

		var overflow []model.SearchRecord
		if err := tx.
			Where("username = ?", user).
			Order("created_at DESC, id DESC").
			Offset(model.MaxHistoryEntries).
			Find(&overflow).Error; err != nil {
			return fmt.Errorf("failed to find history overflow: %w", err)
		}
		if len(overflow) > 0 {
			ids := lo.Map(overflow, func(r model.SearchRecord, _ int) int64 { return r.ID })
			if err := tx.Delete(&model.SearchRecord{}, ids).Error; err != nil {
				return fmt.Errorf("failed to truncate history: %w", err)
			}
		}
		return nil
	})
}

// History returns the user's destinations, most recent first.
func (s *gormStore) History(ctx context.Context, username string) ([]string, error) {
	var records []model.SearchRecord
	err := s.db.WithContext(ctx).
		Where("username = ?", model.NormalizeUsername(username)).
		Order("created_at DESC, id DESC").
		Limit(model.MaxHistoryEntries).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(r model.SearchRecord, _ int) string { return r.Destination }), nil
}

func (s *gormStore) ClearHistory(ctx context.Context, username string) error {
	return s.db.WithContext(ctx).
		Where("username = ?", model.NormalizeUsername(username)).
		Delete(&model.SearchRecord{}).Error
}

// SaveSnapshot appends to the global snapshot log. Snapshots are immutable;
// there is deliberately no update path.
func (s *gormStore) SaveSnapshot(ctx context.Context, snap model.SharedSnapshot) error {
	if err := s.db.WithContext(ctx).Create(&snap).Error; err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.ID, err)
	}
	return nil
}

func (s *gormStore) GetSnapshot(ctx context.Context, id string) (model.SharedSnapshot, error) {
	var snap model.SharedSnapshot
	err := s.db.WithContext(ctx).First(&snap, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.SharedSnapshot{}, ErrNotFound
	}
	if err != nil {
		return model.SharedSnapshot{}, err
	}
	return snap, nil
}

// Inbox lists snapshots addressed to the user, most recent first.
func (s *gormStore) Inbox(ctx context.Context, username string) ([]model.SharedSnapshot, error) {
	snaps := []model.SharedSnapshot{}
	err := s.db.WithContext(ctx).
		Where("to_user = ?", model.NormalizeUsername(username)).
		Order("sent_at DESC").
		Find(&snaps).Error
	if err != nil {
		return nil, err
	}
	return snaps, nil
}

func (s *gormStore) ClearInbox(ctx context.Context, username string) error {
	return s.db.WithContext(ctx).
		Where("to_user = ?", model.NormalizeUsername(username)).
		Delete(&model.SharedSnapshot{}).Error
}

func (s *gormStore) SaveSubscription(ctx context.Context, sub model.PushSubscription) error {
	sub.Username = model.NormalizeUsername(sub.Username)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "p256dh", "auth"}),
	}).Create(&sub).Error
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}

func (s *gormStore) SubscriptionsFor(ctx context.Context, username string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Where("username = ?", model.NormalizeUsername(username)).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}
