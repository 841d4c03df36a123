package ledger

import (
	"errors"
	"fmt"
	"strings"
)

const maxPrincipalLength = 190

var (
	// ErrInvalidPrincipal indicates that a principal identifier is empty or exceeds storage bounds.
	ErrInvalidPrincipal = errors.New("ledger: invalid principal id")
	// ErrEmptyContent indicates that textual content is empty or whitespace-only.
	ErrEmptyContent = errors.New("ledger: empty content")
)

// PrincipalID represents a validated account identifier. Principals arrive
// already authenticated; the ledger only checks shape, never identity.
type PrincipalID string

// NewPrincipalID validates raw input and returns a PrincipalID.
func NewPrincipalID(rawInput string) (PrincipalID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPrincipal)
	}
	if len(trimmed) > maxPrincipalLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidPrincipal, maxPrincipalLength)
	}
	return PrincipalID(trimmed), nil
}

// String returns the underlying string identifier.
func (id PrincipalID) String() string {
	return string(id)
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	return nil
}

// Tweet is the ledger's post record. Immutable after creation except for
// LikeCount and CommentCount, which mirror the cardinality of the tweet's
// like set and comment list exactly.
type Tweet struct {
	ID               uint64 `gorm:"column:tweet_id;primaryKey;autoIncrement:false"`
	Author           string `gorm:"column:author;size:190;not null;index:idx_tweets_author"`
	Content          string `gorm:"column:content;type:text;not null"`
	CreatedAtSeconds int64  `gorm:"column:created_at_s;not null"`
	LikeCount        uint64 `gorm:"column:like_count;not null;default:0"`
	CommentCount     uint64 `gorm:"column:comment_count;not null;default:0"`
}

// TableName provides the explicit table binding for GORM.
func (Tweet) TableName() string {
	return "tweets"
}

// Message is the immutable payload of a direct message. One logical message
// is materialized once per participant; both copies share the same ID.
type Message struct {
	ID               uint64 `gorm:"column:message_id;primaryKey;autoIncrement:false"`
	Sender           string `gorm:"column:sender;size:190;not null"`
	Receiver         string `gorm:"column:receiver;size:190;not null"`
	Content          string `gorm:"column:content;type:text;not null"`
	CreatedAtSeconds int64  `gorm:"column:created_at_s;not null"`
}

// MessageRow materializes one copy of a message inside a single
// participant's conversation list. Storing the payload under both
// participants trades 2x storage for O(1) per-account retrieval.
type MessageRow struct {
	Owner   string  `gorm:"column:owner;primaryKey;size:190;not null"`
	Message Message `gorm:"embedded"`
}

// TableName provides the explicit table binding for GORM.
func (MessageRow) TableName() string {
	return "messages"
}

// Comment is an entry in a tweet's comment list. Comment IDs are drawn from
// one global counter shared across all tweets.
type Comment struct {
	ID               uint64 `gorm:"column:comment_id;primaryKey;autoIncrement:false"`
	TweetID          uint64 `gorm:"column:tweet_id;not null;index:idx_comments_tweet"`
	Author           string `gorm:"column:author;size:190;not null"`
	Content          string `gorm:"column:content;type:text;not null"`
	CreatedAtSeconds int64  `gorm:"column:created_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Comment) TableName() string {
	return "tweet_comments"
}

// Like records that a principal liked a tweet. Existence is boolean: at
// most one row per (tweet, liker) pair, no separate identity or timestamp.
type Like struct {
	TweetID uint64 `gorm:"column:tweet_id;primaryKey;autoIncrement:false"`
	Liker   string `gorm:"column:liker;primaryKey;size:190;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Like) TableName() string {
	return "tweet_likes"
}

// FollowEdge is a one-directional follow relation. At most one edge per
// ordered (follower, followed) pair; there is no unfollow.
type FollowEdge struct {
	Follower         string `gorm:"column:follower;primaryKey;size:190;not null"`
	Followed         string `gorm:"column:followed;primaryKey;size:190;not null"`
	Position         uint64 `gorm:"column:position;not null"`
	CreatedAtSeconds int64  `gorm:"column:created_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (FollowEdge) TableName() string {
	return "follow_edges"
}

// Delegation lets an operator perform owner-attributed writes. The pair is
// toggled active/inactive; every other ledger entity is append-only.
type Delegation struct {
	Owner            string `gorm:"column:owner;primaryKey;size:190;not null"`
	Operator         string `gorm:"column:operator;primaryKey;size:190;not null"`
	Active           bool   `gorm:"column:active;not null;default:false"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Delegation) TableName() string {
	return "delegations"
}

// Counter persists one of the ledger's monotonic ID counters. Next holds
// the value the next successful allocation will return.
type Counter struct {
	Name string `gorm:"column:name;primaryKey;size:64;not null"`
	Next uint64 `gorm:"column:next;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Counter) TableName() string {
	return "ledger_counters"
}

const (
	counterTweetID   = "tweet_id"
	counterMessageID = "message_id"
	counterCommentID = "comment_id"
)
