package domain

import "time"

type UserID string

// User is an authenticated identity. The coin balance is mutated only through
// the settlement engine; everything else changes via profile updates.
type User struct {
	ID           UserID    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Coins        int       `json:"coins"`
	IsCreator    bool      `json:"isCreator"`
	Avatar       string    `json:"avatar,omitempty"`
	TotalWatched int       `json:"totalWatched"`
	TotalEarned  int       `json:"totalEarned"`
	CreatedAt    time.Time `json:"createdAt"`
}

// StartingCoins is granted to every freshly registered account.
const StartingCoins = 100
