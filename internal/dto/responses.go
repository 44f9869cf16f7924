package dto

import (
	"github.com/bobpay/bobpay-backend/internal/models"
)

// ErrorResponse represents a standardized error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

// AuthResponse represents the result of registration or login
type AuthResponse struct {
	User         *models.User    `json:"user"`
	Profile      *models.Profile `json:"profile,omitempty"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
}

// ProjectResponse represents a project with its milestones
type ProjectResponse struct {
	*models.Project
}

// WalletResponse represents wallet state together with recent transactions
type WalletResponse struct {
	Wallet       *models.Wallet       `json:"wallet"`
	Transactions []models.Transaction `json:"transactions,omitempty"`
}

// MilestoneDetailResponse represents a milestone with its deliveries
type MilestoneDetailResponse struct {
	*models.Milestone
	Deliveries []models.Delivery `json:"deliveries,omitempty"`
}
