package notify

// Event kinds emitted by the ledger, one per successful mutation.
const (
	KindTweetCreated      = "tweet-created"
	KindMessageSent       = "message-sent"
	KindFollowCreated     = "follow-created"
	KindDelegationGranted = "delegation-granted"
	KindDelegationRevoked = "delegation-revoked"
	KindTweetLiked        = "tweet-liked"
	KindCommentCreated    = "comment-created"
)

// Event is one immutable entry of the notification log.
type Event struct {
	ID                string
	Kind              string
	OccurredAtSeconds int64
	PayloadJSON       string
}

// Record converts the event into its durable row form.
func (e Event) Record() *EventRecord {
	return &EventRecord{
		EventID:           e.ID,
		Kind:              e.Kind,
		OccurredAtSeconds: e.OccurredAtSeconds,
		PayloadJSON:       e.PayloadJSON,
	}
}

// EventRecord persists one notification log entry. Seq preserves append
// order across restarts.
type EventRecord struct {
	Seq               int64  `gorm:"column:seq;primaryKey;autoIncrement"`
	EventID           string `gorm:"column:event_id;size:190;not null;uniqueIndex"`
	Kind              string `gorm:"column:kind;size:64;not null"`
	OccurredAtSeconds int64  `gorm:"column:occurred_at_s;not null"`
	PayloadJSON       string `gorm:"column:payload_json;type:text;not null"`
}

// TableName provides the explicit table binding for GORM.
func (EventRecord) TableName() string {
	return "ledger_events"
}

// Event converts the durable row back into its log entry form.
func (r EventRecord) Event() Event {
	return Event{
		ID:                r.EventID,
		Kind:              r.Kind,
		OccurredAtSeconds: r.OccurredAtSeconds,
		PayloadJSON:       r.PayloadJSON,
	}
}

// TweetCreated is the payload of a tweet-created event.
type TweetCreated struct {
	ID        uint64 `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp int64  `json:"ts"`
}

// MessageSent is the payload of a message-sent event.
type MessageSent struct {
	ID        uint64 `json:"id"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Content   string `json:"content"`
	Timestamp int64  `json:"ts"`
}

// FollowCreated is the payload of a follow-created event.
type FollowCreated struct {
	Follower string `json:"follower"`
	Followed string `json:"followed"`
}

// DelegationGranted is the payload of a delegation-granted event.
type DelegationGranted struct {
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
}

// DelegationRevoked is the payload of a delegation-revoked event.
type DelegationRevoked struct {
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
}

// TweetLiked is the payload of a tweet-liked event.
type TweetLiked struct {
	TweetID uint64 `json:"tweet_id"`
	Liker   string `json:"liker"`
}

// CommentCreated is the payload of a comment-created event.
type CommentCreated struct {
	ID        uint64 `json:"id"`
	TweetID   uint64 `json:"tweet_id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp int64  `json:"ts"`
}
