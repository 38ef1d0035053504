package models

import "time"

type PaymentMethod string

const (
	MethodCard     PaymentMethod = "card"
	MethodCash     PaymentMethod = "cash"
	MethodUPI      PaymentMethod = "upi"
	MethodRazorpay PaymentMethod = "razorpay"
)

type PaymentRecordStatus string

const (
	PaymentRecordPending   PaymentRecordStatus = "pending"
	PaymentRecordCompleted PaymentRecordStatus = "completed"
	PaymentRecordFailed    PaymentRecordStatus = "failed"
)

// ReleaseState tracks whether the provider's share has been paid out.
type ReleaseState string

const (
	ReleaseHeld     ReleaseState = "held"
	ReleaseReleased ReleaseState = "released"
)

// Payment is created once per service request after the gateway signature checks out.
type Payment struct {
	ID            uint                `json:"id" gorm:"primaryKey"`
	RequestID     uint                `json:"request_id" gorm:"uniqueIndex;not null"`
	Request       *ServiceRequest     `json:"request,omitempty" gorm:"foreignKey:RequestID"`
	ClientID      uint                `json:"client_id" gorm:"not null;index"`
	ProviderID    *uint               `json:"provider_id"`
	Provider      *User               `json:"provider,omitempty" gorm:"foreignKey:ProviderID"`
	Amount        float64             `json:"amount" gorm:"not null"`
	Method        PaymentMethod       `json:"method" gorm:"not null"`
	PaymentStatus PaymentRecordStatus `json:"payment_status" gorm:"not null;default:'pending'"`
	ReleaseStatus ReleaseState        `json:"release_status" gorm:"not null;default:'held'"`
	OrderID       string              `json:"order_id"`
	TransactionID string              `json:"transaction_id"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}
