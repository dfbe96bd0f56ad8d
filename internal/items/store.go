package items

import (
	"context"
	"errors"

	"github.com/sightline-labs/sightline/internal/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&ItemLocation{})
}

// Upsert writes the item's current location, replacing any previous
// row for the same item class.
func (s *Store) Upsert(ctx context.Context, itemClass, location string) error {
	loc := ItemLocation{ItemClass: itemClass, Location: location}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_class"}},
		DoUpdates: clause.AssignmentColumns([]string{"location", "updated_at"}),
	}).Create(&loc).Error
}

func (s *Store) Get(ctx context.Context, itemClass string) (*ItemLocation, error) {
	var loc ItemLocation
	err := s.db.WithContext(ctx).Where("item_class = ?", itemClass).First(&loc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &loc, err
}

func (s *Store) List(ctx context.Context) ([]ItemLocation, error) {
	var locs []ItemLocation
	err := s.db.WithContext(ctx).Order("item_class asc").Find(&locs).Error
	return locs, err
}
