package dto

import "time"

// RegisterRequest represents the request to register a new user
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	Username    string `json:"username"`
	Role        string `json:"role" binding:"omitempty,oneof=client freelancer"`
	DisplayName string `json:"display_name"`
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the request to refresh tokens
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest represents the request to update a profile
type UpdateProfileRequest struct {
	DisplayName     string   `json:"display_name" binding:"required"`
	Bio             *string  `json:"bio"`
	Title           *string  `json:"title"`
	Location        *string  `json:"location"`
	Skills          []string `json:"skills"`
	HourlyRateCents *int64   `json:"hourly_rate_cents"`
}

// MilestonePlanRequest represents one milestone in a project creation request
type MilestonePlanRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description *string    `json:"description"`
	AmountCents int64      `json:"amount_cents" binding:"required,gt=0"`
	DeadlineAt  *time.Time `json:"deadline_at"`
}

// CreateProjectRequest represents the request to create a project
type CreateProjectRequest struct {
	Title            string                 `json:"title" binding:"required"`
	Description      string                 `json:"description" binding:"required"`
	Category         string                 `json:"category"`
	TotalBudgetCents int64                  `json:"total_budget_cents" binding:"required,gt=0"`
	DeadlineAt       *time.Time             `json:"deadline_at"`
	Milestones       []MilestonePlanRequest `json:"milestones" binding:"required,min=1,dive"`
	Publish          bool                   `json:"publish"`
}

// CreateProposalRequest represents the request to submit a proposal
type CreateProposalRequest struct {
	CoverLetter         string  `json:"cover_letter" binding:"required"`
	ProposedBudgetCents *int64  `json:"proposed_budget_cents"`
	ProposedTimeline    *string `json:"proposed_timeline"`
}

// SubmitWorkRequest represents the request to deliver work on a milestone
type SubmitWorkRequest struct {
	Files []string `json:"files" binding:"required,min=1"`
	Notes *string  `json:"notes"`
}

// ApproveDeliveryRequest represents the request to approve a delivery
type ApproveDeliveryRequest struct {
	VerificationScore int `json:"verification_score" binding:"min=0,max=100"`
}

// RaiseDisputeRequest represents the request to open a dispute
type RaiseDisputeRequest struct {
	Reason       string   `json:"reason" binding:"required"`
	Description  *string  `json:"description"`
	EvidenceURLs []string `json:"evidence_urls"`
}

// ResolveDisputeRequest represents the request to resolve a dispute
type ResolveDisputeRequest struct {
	Resolution string  `json:"resolution" binding:"required,oneof=released refunded"`
	Notes      *string `json:"notes"`
}

// RequestRevisionRequest represents the request to ask for a revision
type RequestRevisionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DepositRequest represents the request to top up the wallet
type DepositRequest struct {
	AmountCents   int64  `json:"amount_cents" binding:"required,gt=0"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// WithdrawRequest represents the request to withdraw funds
type WithdrawRequest struct {
	AmountCents       int64   `json:"amount_cents" binding:"required,gt=0"`
	BankAccountNumber *string `json:"bank_account_number"`
	BankName          *string `json:"bank_name"`
	AccountHolderName *string `json:"account_holder_name"`
	UPIID             *string `json:"upi_id"`
}

// PaymentWebhookRequest represents a gateway callback about a payment
type PaymentWebhookRequest struct {
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	Event            string `json:"event"`
}
