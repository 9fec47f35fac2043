package domain

import "time"

type TransactionID string

type TransactionType string

const (
	TransactionStreamJoin     TransactionType = "stream_join"
	TransactionCoinPurchase   TransactionType = "coin_purchase"
	TransactionCreatorEarning TransactionType = "creator_earning"
)

// Transaction is an immutable ledger entry. A paid join always produces two of
// them: a negative stream_join for the viewer and a positive creator_earning
// for the creator, equal in magnitude.
type Transaction struct {
	ID          TransactionID   `json:"id"`
	UserID      UserID          `json:"userId"`
	StreamID    StreamID        `json:"streamId,omitempty"`
	CreatorID   UserID          `json:"creatorId,omitempty"`
	Amount      int             `json:"amount"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}
