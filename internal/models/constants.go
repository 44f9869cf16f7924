package models

// ProjectStatus константы статусов проектов
const (
	ProjectStatusDraft      = "draft"
	ProjectStatusOpen       = "open"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

// MilestoneStatus константы статусов этапов
const (
	MilestoneStatusLocked    = "locked"
	MilestoneStatusActive    = "active"
	MilestoneStatusSubmitted = "submitted"
	MilestoneStatusVerified  = "verified"
	MilestoneStatusCompleted = "completed"
	MilestoneStatusDisputed  = "disputed"
)

// ContentionType причина статуса "disputed": формальный спор или запрос доработки.
// Хранится вместе с идентификатором, чтобы по этапу всегда было понятно,
// что именно его заблокировало и каким путём идёт разрешение.
const (
	ContentionTypeDispute  = "dispute"
	ContentionTypeRevision = "revision"
)

// DeliveryStatus константы статусов сдачи работы
const (
	DeliveryStatusDelivered         = "delivered"
	DeliveryStatusReviewing         = "reviewing"
	DeliveryStatusApproved          = "approved"
	DeliveryStatusRevisionRequested = "revision_requested"
	DeliveryStatusRejected          = "rejected"
)

// DisputeStatus константы статусов споров
const (
	DisputeStatusOpen        = "open"
	DisputeStatusUnderReview = "under_review"
	DisputeStatusResolved    = "resolved"
	DisputeStatusCancelled   = "cancelled"
)

// DisputeResolution исход разрешённого спора
const (
	DisputeResolutionReleased = "released"
	DisputeResolutionRefunded = "refunded"
)

// RevisionStatus константы статусов запросов на доработку
const (
	RevisionStatusPending    = "pending"
	RevisionStatusInProgress = "in_progress"
	RevisionStatusCompleted  = "completed"
	RevisionStatusRejected   = "rejected"
)

// ProposalStatus константы статусов предложений
const (
	ProposalStatusPending   = "pending"
	ProposalStatusAccepted  = "accepted"
	ProposalStatusRejected  = "rejected"
	ProposalStatusWithdrawn = "withdrawn"
)

// TransactionType типы записей в журнале транзакций
const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeLock       = "lock"
	TransactionTypeRelease    = "release"
	TransactionTypeRefund     = "refund"
)

// TransactionStatus статусы транзакций
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// PaymentRequestStatus статусы заявок на пополнение и вывод средств
const (
	PaymentRequestStatusPending    = "pending"
	PaymentRequestStatusProcessing = "processing"
	PaymentRequestStatusCompleted  = "completed"
	PaymentRequestStatusFailed     = "failed"
	PaymentRequestStatusCancelled  = "cancelled"
)

// ValidProjectStatuses список валидных статусов проектов
var ValidProjectStatuses = map[string]struct{}{
	ProjectStatusDraft:      {},
	ProjectStatusOpen:       {},
	ProjectStatusInProgress: {},
	ProjectStatusCompleted:  {},
	ProjectStatusCancelled:  {},
}

// ValidMilestoneStatuses список валидных статусов этапов
var ValidMilestoneStatuses = map[string]struct{}{
	MilestoneStatusLocked:    {},
	MilestoneStatusActive:    {},
	MilestoneStatusSubmitted: {},
	MilestoneStatusVerified:  {},
	MilestoneStatusCompleted: {},
	MilestoneStatusDisputed:  {},
}

// ValidDeliveryStatuses список валидных статусов сдач работы
var ValidDeliveryStatuses = map[string]struct{}{
	DeliveryStatusDelivered:         {},
	DeliveryStatusReviewing:         {},
	DeliveryStatusApproved:          {},
	DeliveryStatusRevisionRequested: {},
	DeliveryStatusRejected:          {},
}

// ValidProposalStatuses список валидных статусов предложений
var ValidProposalStatuses = map[string]struct{}{
	ProposalStatusPending:   {},
	ProposalStatusAccepted:  {},
	ProposalStatusRejected:  {},
	ProposalStatusWithdrawn: {},
}
