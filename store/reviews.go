package store

import (
	"context"

	"github.com/juju/errors"

	"movers-api/models"
)

func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	return translate(s.db.WithContext(ctx).Create(r).Error, "review")
}

func (s *Store) ReviewExists(ctx context.Context, requestID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Review{}).Where("request_id = ?", requestID).Count(&n).Error
	return n > 0, errors.Annotate(err, "count reviews")
}

// ReviewsForProvider returns reviews of providerID, newest first.
func (s *Store) ReviewsForProvider(ctx context.Context, providerID uint) ([]models.Review, error) {
	reviews := []models.Review{}
	err := s.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at desc, id desc").
		Find(&reviews).Error
	return reviews, errors.Annotate(err, "list reviews")
}
