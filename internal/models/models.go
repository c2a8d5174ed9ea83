package models

import "time"

// Platform identifies which upstream a metrics record came from.
type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformTikTok  Platform = "tiktok"
)

// Status classifies the outcome of a metrics fetch.
type Status string

const (
	StatusOK            Status = "ok"
	StatusNotFound      Status = "not_found"
	StatusUpstreamError Status = "upstream_error"
	StatusNotLive       Status = "not_live"
)

// MetricsRecord is the unified, platform-agnostic snapshot of a live
// stream's engagement numbers. Numeric fields are always >= 0; absent or
// malformed upstream values coerce to 0. StreamID is never changed after
// the record is built.
type MetricsRecord struct {
	Platform          Platform         `json:"platform"`
	StreamID          string           `json:"stream_id"`
	ViewCount         int64            `json:"view_count"`
	LikeCount         int64            `json:"like_count"`
	ConcurrentViewers int64            `json:"concurrent_viewers"`
	CommentCount      int64            `json:"comment_count"`
	Extra             map[string]int64 `json:"extra,omitempty"`
	FetchedAt         time.Time        `json:"fetched_at"`
	Status            Status           `json:"status"`
	// Reason carries a human-readable diagnostic: why a non-OK record failed,
	// or a warning on an OK record (e.g. snapshot fallback substitution). It
	// is forwarded to the dashboard as an error/warning string, never a trace.
	Reason string `json:"reason,omitempty"`

	// ChatMessages only materializes for YouTube live fetches.
	ChatMessages []ChatMessage `json:"chat_messages,omitempty"`
	// Gifts only materializes for TikTok snapshot fetches.
	Gifts []Gift `json:"gifts,omitempty"`
}

// IsOK reports whether the record carries usable metrics.
func (r *MetricsRecord) IsOK() bool {
	return r.Status == StatusOK
}

// ErrorRecord builds a zeroed record for a failed fetch.
func ErrorRecord(platform Platform, streamID string, status Status, reason string) *MetricsRecord {
	return &MetricsRecord{
		Platform:  platform,
		StreamID:  streamID,
		FetchedAt: time.Now(),
		Status:    status,
		Reason:    reason,
	}
}

// ChatMessage is one live chat entry from the video platform.
// Each poll re-reads up to the 200 most recent messages independently;
// messages are not deduplicated across polls, so counts can overlap or
// drop at poll boundaries.
type ChatMessage struct {
	Author      string `json:"autor"`
	Message     string `json:"mensaje"`
	PublishedAt string `json:"ts"` // upstream-native timestamp string, opaque
}

// Gift is one gift event from a TikTok live session snapshot.
type Gift struct {
	User     string `json:"user"`
	Gift     string `json:"gift"`
	Amount   int64  `json:"amount"`
	Diamonds int64  `json:"diamonds"`
	TS       string `json:"ts"`
}

// StreamSample is one point in a stream's rolling history buffer.
type StreamSample struct {
	At                time.Time `json:"at"`
	ViewCount         int64     `json:"view_count"`
	LikeCount         int64     `json:"like_count"`
	ConcurrentViewers int64     `json:"concurrent_viewers"`
	CommentCount      int64     `json:"comment_count"`
	Status            Status    `json:"status"`
}

// StatusChange describes a watched stream transitioning between statuses,
// e.g. going live or dropping offline.
type StatusChange struct {
	Platform Platform  `json:"platform"`
	StreamID string    `json:"stream_id"`
	From     Status    `json:"from"`
	To       Status    `json:"to"`
	At       time.Time `json:"at"`
}
