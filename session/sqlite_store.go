package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const tokenKey = "token"

type sessionEntry struct {
	Name      string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (sessionEntry) TableName() string { return "session_entries" }

// SQLiteStore keeps the token as one row of a local key/value table.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore migrates the key/value table on db and takes ownership of it.
func NewSQLiteStore(db *gorm.DB) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&sessionEntry{}); err != nil {
		return nil, fmt.Errorf("migrate session table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (string, error) {
	var e sessionEntry
	err := s.db.WithContext(ctx).Where("name = ?", tokenKey).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	if e.Value == "" {
		return "", ErrNoToken
	}
	return e.Value, nil
}

func (s *SQLiteStore) Save(ctx context.Context, token string) error {
	e := sessionEntry{Name: tokenKey, Value: token}
	if err := s.db.WithContext(ctx).Save(&e).Error; err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("name = ?", tokenKey).Delete(&sessionEntry{}).Error; err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
