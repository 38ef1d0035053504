package services

import (
	"context"
	"strings"

	"github.com/juju/errors"

	"movers-api/models"
	"movers-api/store"
)

type CreateReviewInput struct {
	RequestID uint   `json:"request_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// ProviderReviews lists a provider's reviews with their average rating.
type ProviderReviews struct {
	ProviderID    uint            `json:"provider_id"`
	Count         int             `json:"count"`
	AverageRating float64         `json:"average_rating"`
	Reviews       []models.Review `json:"reviews"`
}

type ReviewService struct {
	store *store.Store
}

func NewReviewService(st *store.Store) *ReviewService {
	return &ReviewService{store: st}
}

// Create records the owning client's single review of a completed request.
func (s *ReviewService) Create(ctx context.Context, user *models.User, in CreateReviewInput) (*models.Review, error) {
	if in.Rating < models.MinRating || in.Rating > models.MaxRating {
		return nil, errors.NewNotValid(nil, "Rating must be between 1 and 5")
	}
	req, err := s.store.RequestByID(ctx, in.RequestID)
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, errors.NewNotFound(nil, "Service request not found")
		}
		return nil, err
	}
	client, err := s.store.ClientProfileByUser(ctx, user.ID)
	if err != nil && !errors.Is(err, errors.NotFound) {
		return nil, err
	}
	if client == nil || req.ClientID != client.ID {
		return nil, errors.NewForbidden(nil, "You can only review your own requests")
	}
	if req.Status != models.StatusCompleted {
		return nil, errors.NewNotValid(nil, "Only completed requests can be reviewed")
	}
	exists, err := s.store.ReviewExists(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewAlreadyExists(nil, "You have already reviewed this request")
	}

	review := &models.Review{
		RequestID:  req.ID,
		ClientID:   client.ID,
		ProviderID: req.ClaimedBy,
		Rating:     in.Rating,
		Comment:    strings.TrimSpace(in.Comment),
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) ListForProvider(ctx context.Context, providerID uint) (*ProviderReviews, error) {
	reviews, err := s.store.ReviewsForProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	out := &ProviderReviews{ProviderID: providerID, Count: len(reviews), Reviews: reviews}
	if len(reviews) > 0 {
		sum := 0
		for _, r := range reviews {
			sum += r.Rating
		}
		out.AverageRating = float64(sum) / float64(len(reviews))
	}
	return out, nil
}
