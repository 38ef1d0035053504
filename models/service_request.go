package models

import "time"

// RequestStatus represents all possible states of a moving service request
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusClaimed   RequestStatus = "claimed"
	StatusAccepted  RequestStatus = "accepted"
	StatusCompleted RequestStatus = "completed"
	StatusCancelled RequestStatus = "cancelled"
)

// AllStatuses lists the lifecycle states in their natural order.
var AllStatuses = []RequestStatus{
	StatusPending,
	StatusClaimed,
	StatusAccepted,
	StatusCompleted,
	StatusCancelled,
}

func (s RequestStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal states accept no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type PaymentState string

const (
	PaymentUnpaid   PaymentState = "unpaid"
	PaymentPaid     PaymentState = "paid"
	PaymentRefunded PaymentState = "refunded"
)

type ServiceRequest struct {
	ID              uint                   `json:"id" gorm:"primaryKey"`
	ClientID        uint                   `json:"client_id" gorm:"not null;index"`
	Client          *ClientProfile         `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	ClaimedBy       *uint                  `json:"claimed_by" gorm:"index"`
	Claimant        *User                  `json:"claimant,omitempty" gorm:"foreignKey:ClaimedBy"`
	PickupLocation  string                 `json:"pickup_location" gorm:"not null"`
	DropoffLocation string                 `json:"dropoff_location" gorm:"not null"`
	MovingDate      time.Time              `json:"moving_date" gorm:"not null"`
	ServiceType     string                 `json:"service_type" gorm:"not null"`
	Status          RequestStatus          `json:"status" gorm:"not null;default:'pending';index"`
	EstimatedPrice  *float64               `json:"estimated_price"`
	FinalPrice      *float64               `json:"final_price"`
	Weight          *float64               `json:"weight"`
	PaymentStatus   PaymentState           `json:"payment_status" gorm:"not null;default:'unpaid'"`
	CompletedAt     *time.Time             `json:"completed_at"`
	StatusHistory   []RequestStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:RequestID"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// Price returns the estimated price, or zero when none was quoted.
func (r *ServiceRequest) Price() float64 {
	if r.EstimatedPrice == nil {
		return 0
	}
	return *r.EstimatedPrice
}

// IsClaimedBy reports whether userID is the recorded claimant.
func (r *ServiceRequest) IsClaimedBy(userID uint) bool {
	return r.ClaimedBy != nil && *r.ClaimedBy == userID
}

// RequestStatusHistory tracks every status change of a request
type RequestStatusHistory struct {
	ID         uint          `json:"id" gorm:"primaryKey"`
	RequestID  uint          `json:"request_id" gorm:"not null;index"`
	FromStatus RequestStatus `json:"from_status"`
	ToStatus   RequestStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint          `json:"changed_by"` // user ID who triggered the transition
	Note       string        `json:"note"`
	CreatedAt  time.Time     `json:"created_at"`
}
