package domain

import "time"

type StreamID string

// Stream is a live room owned by a creator. Viewer counters are managed by the
// settlement engine: CurrentViewers goes up on a paid join and down on leave,
// TotalViewers only ever goes up.
type Stream struct {
	ID             StreamID  `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	CreatorID      UserID    `json:"creatorId"`
	Genre          string    `json:"genre"`
	CostInCoins    int       `json:"costInCoins"`
	IsLive         bool      `json:"isLive"`
	CurrentViewers int       `json:"currentViewers"`
	TotalViewers   int       `json:"totalViewers"`
	ThumbnailURL   string    `json:"thumbnailUrl,omitempty"`
	StreamKey      string    `json:"streamKey,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// StreamFilter narrows stream listings.
type StreamFilter struct {
	Genre  string
	IsLive *bool
}

// StreamUpdate carries the creator-editable fields of a stream. Nil pointers
// leave the current value untouched.
type StreamUpdate struct {
	Title        *string
	Description  *string
	Genre        *string
	CostInCoins  *int
	IsLive       *bool
	ThumbnailURL *string
}

// Genre is a catalog entry for stream discovery.
type Genre struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}
