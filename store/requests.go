package store

import (
	"context"
	"time"

	"github.com/juju/errors"
	"gorm.io/gorm"

	"movers-api/models"
)

// RequestFilter narrows ListRequests. Zero fields are ignored.
type RequestFilter struct {
	ClientID   uint
	ClaimedBy  uint
	Unclaimed  bool
	Status     models.RequestStatus
	WithClient bool
}

func (s *Store) CreateRequest(ctx context.Context, req *models.ServiceRequest) error {
	return translate(s.db.WithContext(ctx).Create(req).Error, "service request")
}

func (s *Store) RequestByID(ctx context.Context, id uint) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	if err := s.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, translate(err, "service request")
	}
	return &req, nil
}

// RequestDetail loads a request with its client, claimant and history.
func (s *Store) RequestDetail(ctx context.Context, id uint) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Claimant").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc, id asc")
		}).
		First(&req, id).Error
	if err != nil {
		return nil, translate(err, "service request")
	}
	return &req, nil
}

// ListRequests returns matching requests, newest first.
func (s *Store) ListRequests(ctx context.Context, f RequestFilter) ([]models.ServiceRequest, error) {
	q := s.db.WithContext(ctx).Model(&models.ServiceRequest{})
	if f.WithClient {
		q = q.Preload("Client").Preload("Claimant")
	}
	if f.ClientID != 0 {
		q = q.Where("client_id = ?", f.ClientID)
	}
	if f.ClaimedBy != 0 {
		q = q.Where("claimed_by = ?", f.ClaimedBy)
	}
	if f.Unclaimed {
		q = q.Where("claimed_by IS NULL AND status = ?", models.StatusPending)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	requests := []models.ServiceRequest{}
	if err := q.Order("created_at desc, id desc").Find(&requests).Error; err != nil {
		return nil, errors.Annotate(err, "list service requests")
	}
	return requests, nil
}

// ClaimRequest sets the claimant of a pending, unclaimed request in one
// conditional update. When nothing matched, the request is re-read to
// report why.
func (s *Store) ClaimRequest(ctx context.Context, id, adminID uint) error {
	res := s.db.WithContext(ctx).Model(&models.ServiceRequest{}).
		Where("id = ? AND claimed_by IS NULL AND status = ?", id, models.StatusPending).
		Updates(map[string]any{
			"claimed_by": adminID,
			"status":     models.StatusClaimed,
		})
	if res.Error != nil {
		return errors.Annotate(res.Error, "claim service request")
	}
	if res.RowsAffected == 1 {
		return nil
	}

	req, err := s.RequestByID(ctx, id)
	if err != nil {
		return err
	}
	if req.ClaimedBy != nil {
		return errors.NewAlreadyExists(nil, "request already claimed")
	}
	return errors.NewNotValid(nil, "only pending requests can be claimed, request is "+string(req.Status))
}

// StatusChange describes a conditional status write.
type StatusChange struct {
	From        models.RequestStatus
	To          models.RequestStatus
	CompletedAt *time.Time
	FinalPrice  *float64
	Payment     models.PaymentState
}

// UpdateRequestStatus moves request id from ch.From to ch.To. It fails with
// AlreadyExists when the stored status is no longer ch.From. Moving back to
// pending releases the claim.
func (s *Store) UpdateRequestStatus(ctx context.Context, id uint, ch StatusChange) error {
	fields := map[string]any{"status": ch.To}
	if ch.To == models.StatusPending {
		fields["claimed_by"] = nil
	}
	if ch.CompletedAt != nil {
		fields["completed_at"] = *ch.CompletedAt
	}
	if ch.FinalPrice != nil {
		fields["final_price"] = *ch.FinalPrice
	}
	if ch.Payment != "" {
		fields["payment_status"] = ch.Payment
	}
	res := s.db.WithContext(ctx).Model(&models.ServiceRequest{}).
		Where("id = ? AND status = ?", id, ch.From).
		Updates(fields)
	if res.Error != nil {
		return errors.Annotate(res.Error, "update request status")
	}
	if res.RowsAffected == 0 {
		if _, err := s.RequestByID(ctx, id); err != nil {
			return err
		}
		return errors.NewAlreadyExists(nil, "request status changed concurrently, reload and retry")
	}
	return nil
}

func (s *Store) DeleteRequest(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.ServiceRequest{}, id)
	if res.Error != nil {
		return errors.Annotate(res.Error, "delete service request")
	}
	if res.RowsAffected == 0 {
		return errors.NewNotFound(nil, "service request not found")
	}
	return nil
}

func (s *Store) AddHistory(ctx context.Context, h *models.RequestStatusHistory) error {
	return errors.Annotate(s.db.WithContext(ctx).Create(h).Error, "record status history")
}

// CompletedClaimedBetween returns requests claimed by adminID that were
// completed with an update time in [from, to).
func (s *Store) CompletedClaimedBetween(ctx context.Context, adminID uint, from, to time.Time) ([]models.ServiceRequest, error) {
	var requests []models.ServiceRequest
	err := s.db.WithContext(ctx).
		Where("claimed_by = ? AND status = ?", adminID, models.StatusCompleted).
		Where("updated_at >= ? AND updated_at < ?", from.UTC(), to.UTC()).
		Order("updated_at asc").
		Find(&requests).Error
	return requests, errors.Annotate(err, "query completed requests")
}

// StatusCount is one row of the per-status summary.
type StatusCount struct {
	Status models.RequestStatus `json:"status"`
	Count  int64                `json:"count"`
}

func (s *Store) CountRequestsByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := s.db.WithContext(ctx).Model(&models.ServiceRequest{}).
		Select("status, count(*) as count").
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, errors.Annotate(err, "count requests by status")
}

// CompletedRevenue sums the estimated price of completed requests.
func (s *Store) CompletedRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).Model(&models.ServiceRequest{}).
		Select("COALESCE(SUM(estimated_price), 0)").
		Where("status = ?", models.StatusCompleted).
		Scan(&total).Error
	return total, errors.Annotate(err, "sum completed revenue")
}
