package member

import (
	"time"

	"leaveledger/internal/domain/category"
)

type Member struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Designation        string    `json:"designation,omitempty"`
	ScopeID            string    `json:"scopeId"`
	AggregateGranted   float64   `json:"aggregateGranted"`
	AggregateRemaining float64   `json:"aggregateRemaining"`
	JoinedAt           time.Time `json:"joinedAt"`
	CreatedAt          time.Time `json:"createdAt"`
}

// OnboardingInput seeds a member with granted balances; remaining starts
// equal to granted for every category.
type OnboardingInput struct {
	Name        string
	Designation string
	ScopeID     string
	JoinedAt    time.Time
	Granted     map[category.Category]float64
}
