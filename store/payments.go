package store

import (
	"context"

	"github.com/juju/errors"

	"movers-api/models"
)

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	return translate(s.db.WithContext(ctx).Create(p).Error, "payment")
}

func (s *Store) PaymentExists(ctx context.Context, requestID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Payment{}).Where("request_id = ?", requestID).Count(&n).Error
	return n > 0, errors.Annotate(err, "count payments")
}

// PaymentDetail loads a payment with its request and provider expanded.
func (s *Store) PaymentDetail(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	err := s.db.WithContext(ctx).
		Preload("Request").
		Preload("Provider").
		First(&p, id).Error
	if err != nil {
		return nil, translate(err, "payment")
	}
	return &p, nil
}
