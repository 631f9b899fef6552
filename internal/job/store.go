package job

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pathfinder-ai/career-backend/internal/shared"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Offer{})
}

func (s *Store) Create(ctx context.Context, o *Offer) error {
	if o.ID == "" {
		o.ID = shared.NewID("job_")
	}
	return s.db.WithContext(ctx).Create(o).Error
}

func (s *Store) CreateBatch(ctx context.Context, offers []*Offer) error {
	if len(offers) == 0 {
		return nil
	}
	for _, o := range offers {
		if o.ID == "" {
			o.ID = shared.NewID("job_")
		}
	}
	return s.db.WithContext(ctx).CreateInBatches(offers, 100).Error
}

func (s *Store) GetByID(ctx context.Context, id string) (*Offer, error) {
	var o Offer
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &o, err
}

func (s *Store) GetByIDs(ctx context.Context, ids []string) (map[string]*Offer, error) {
	if len(ids) == 0 {
		return map[string]*Offer{}, nil
	}
	var offers []*Offer
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&offers).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*Offer, len(offers))
	for _, o := range offers {
		byID[o.ID] = o
	}
	return byID, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Offer{}).Count(&count).Error
	return count, err
}

func (s *Store) DeleteAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&Offer{}).Error
}
