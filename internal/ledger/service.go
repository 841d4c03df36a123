package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aviaryworks/aviary/internal/notify"
)

var noOpLogger = zap.NewNop()

// ServiceConfig describes the dependencies of a ledger instance.
type ServiceConfig struct {
	// Database is optional; a nil handle yields a purely in-memory ledger.
	Database *gorm.DB
	Clock    func() time.Time
	Events   *notify.Log
	Logger   *zap.Logger
}

// Service is one logical ledger instance. Every mutation runs under a
// single exclusive lock: validate, persist, apply, notify — in that order,
// so a failure at any stage leaves no partial effect behind. Reads share
// the lock and only ever observe fully-applied mutations.
type Service struct {
	mu     sync.RWMutex
	db     *gorm.DB
	st     *state
	clock  func() time.Time
	events *notify.Log
	logger *zap.Logger
}

// NewService constructs a ledger, rebuilding state from the database when
// one is provided.
func NewService(cfg ServiceConfig) (*Service, error) {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	events := cfg.Events
	if events == nil {
		events = notify.NewLog(notify.LogConfig{Logger: cfg.Logger})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	service := &Service{
		db:     cfg.Database,
		st:     newState(),
		clock:  clock,
		events: events,
		logger: logger,
	}
	if cfg.Database != nil {
		if err := service.load(); err != nil {
			return nil, err
		}
	}
	return service, nil
}

// Events exposes the notification log for observers.
func (s *Service) Events() *notify.Log {
	return s.events
}

// PostAsSelf records a tweet authored by the acting principal and returns
// the new tweet ID.
func (s *Service) PostAsSelf(ctx context.Context, author PrincipalID, content string) (uint64, error) {
	return s.post(ctx, author, author, content)
}

// PostAsDelegate records a tweet attributed to owner, written by an
// operator holding an active delegation.
func (s *Service) PostAsDelegate(ctx context.Context, owner, actingAs PrincipalID, content string) (uint64, error) {
	return s.post(ctx, owner, actingAs, content)
}

func (s *Service) post(ctx context.Context, owner, actingAs PrincipalID, content string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.st.authorized(owner, actingAs) {
		return 0, s.fail(newAuthorizationError(opPost, ErrNotAuthorized),
			zap.String("owner", owner.String()), zap.String("acting_as", actingAs.String()))
	}
	if err := validateContent(content); err != nil {
		return 0, s.fail(newValidationError(opPost, "empty_content", err))
	}

	now := s.clock().UTC().Unix()
	tweet := &Tweet{
		ID:               s.st.nextTweetID,
		Author:           owner.String(),
		Content:          content,
		CreatedAtSeconds: now,
	}
	event, err := s.events.NewEvent(notify.KindTweetCreated, notify.TweetCreated{
		ID:        tweet.ID,
		Author:    tweet.Author,
		Content:   tweet.Content,
		Timestamp: now,
	}, now)
	if err != nil {
		return 0, s.fail(newInternalError(opPost, "event_encode_failed", err))
	}

	err = s.persist(ctx, event, func(tx *gorm.DB) error {
		if err := tx.Create(tweet).Error; err != nil {
			return err
		}
		return persistCounter(tx, counterTweetID, tweet.ID+1)
	})
	if err != nil {
		return 0, s.fail(newInternalError(opPost, "tweet_save_failed", err))
	}

	s.st.applyTweet(tweet)
	s.events.Append(event)
	return tweet.ID, nil
}

// SendAsSelf records a direct message from the acting principal.
func (s *Service) SendAsSelf(ctx context.Context, sender, receiver PrincipalID, content string) (uint64, error) {
	return s.send(ctx, sender, sender, receiver, content)
}

// SendAsDelegate records a direct message sent as owner by an operator
// holding an active delegation.
func (s *Service) SendAsDelegate(ctx context.Context, owner, actingAs, receiver PrincipalID, content string) (uint64, error) {
	return s.send(ctx, owner, actingAs, receiver, content)
}

func (s *Service) send(ctx context.Context, owner, actingAs, receiver PrincipalID, content string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.st.authorized(owner, actingAs) {
		return 0, s.fail(newAuthorizationError(opSend, ErrNotAuthorized),
			zap.String("owner", owner.String()), zap.String("acting_as", actingAs.String()))
	}
	if owner == receiver {
		return 0, s.fail(newValidationError(opSend, "self_message", ErrSelfMessage))
	}
	if err := validateContent(content); err != nil {
		return 0, s.fail(newValidationError(opSend, "empty_content", err))
	}

	now := s.clock().UTC().Unix()
	message := &Message{
		ID:               s.st.nextMessageID,
		Sender:           owner.String(),
		Receiver:         receiver.String(),
		Content:          content,
		CreatedAtSeconds: now,
	}
	event, err := s.events.NewEvent(notify.KindMessageSent, notify.MessageSent{
		ID:        message.ID,
		Sender:    message.Sender,
		Receiver:  message.Receiver,
		Content:   message.Content,
		Timestamp: now,
	}, now)
	if err != nil {
		return 0, s.fail(newInternalError(opSend, "event_encode_failed", err))
	}

	err = s.persist(ctx, event, func(tx *gorm.DB) error {
		rows := []MessageRow{
			{Owner: message.Sender, Message: *message},
			{Owner: message.Receiver, Message: *message},
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		return persistCounter(tx, counterMessageID, message.ID+1)
	})
	if err != nil {
		return 0, s.fail(newInternalError(opSend, "message_save_failed", err))
	}

	s.st.applyMessage(message)
	s.events.Append(event)
	return message.ID, nil
}

// Like records that liker liked the tweet. A second identical call fails
// rather than silently doing nothing.
func (s *Service) Like(ctx context.Context, tweetID uint64, liker PrincipalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tweet, ok := s.st.tweets[tweetID]
	if !ok {
		return s.fail(newValidationError(opLike, "tweet_not_found", ErrTweetNotFound),
			zap.Uint64("tweet_id", tweetID))
	}
	if s.st.liked(tweetID, liker) {
		return s.fail(newValidationError(opLike, "already_liked", ErrAlreadyLiked),
			zap.Uint64("tweet_id", tweetID), zap.String("liker", liker.String()))
	}

	now := s.clock().UTC().Unix()
	like := Like{TweetID: tweetID, Liker: liker.String()}
	event, err := s.events.NewEvent(notify.KindTweetLiked, notify.TweetLiked{
		TweetID: tweetID,
		Liker:   like.Liker,
	}, now)
	if err != nil {
		return s.fail(newInternalError(opLike, "event_encode_failed", err))
	}

	err = s.persist(ctx, event, func(tx *gorm.DB) error {
		if err := tx.Create(&like).Error; err != nil {
			return err
		}
		return tx.Model(&Tweet{}).
			Where("tweet_id = ?", tweetID).
			Update("like_count", tweet.LikeCount+1).Error
	})
	if err != nil {
		return s.fail(newInternalError(opLike, "like_save_failed", err))
	}

	s.st.applyLike(like)
	s.events.Append(event)
	return nil
}

// Comment appends a comment to an existing tweet, drawing the comment ID
// from the global comment counter, and returns the new comment ID.
func (s *Service) Comment(ctx context.Context, tweetID uint64, author PrincipalID, content string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tweet, ok := s.st.tweets[tweetID]
	if !ok {
		return 0, s.fail(newValidationError(opComment, "tweet_not_found", ErrTweetNotFound),
			zap.Uint64("tweet_id", tweetID))
	}
	if err := validateContent(content); err != nil {
		return 0, s.fail(newValidationError(opComment, "empty_content", err))
	}

	now := s.clock().UTC().Unix()
	comment := &Comment{
		ID:               s.st.nextCommentID,
		TweetID:          tweetID,
		Author:           author.String(),
		Content:          content,
		CreatedAtSeconds: now,
	}
	event, err := s.events.NewEvent(notify.KindCommentCreated, notify.CommentCreated{
		ID:        comment.ID,
		TweetID:   tweetID,
		Author:    comment.Author,
		Content:   comment.Content,
		Timestamp: now,
	}, now)
	if err != nil {
		return 0, s.fail(newInternalError(opComment, "event_encode_failed", err))
	}

	err = s.persist(ctx, event, func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		if err := tx.Model(&Tweet{}).
			Where("tweet_id = ?", tweetID).
			Update("comment_count", tweet.CommentCount+1).Error; err != nil {
			return err
		}
		return persistCounter(tx, counterCommentID, comment.ID+1)
	})
	if err != nil {
		return 0, s.fail(newInternalError(opComment, "comment_save_failed", err))
	}

	s.st.applyComment(comment)
	s.events.Append(event)
	return comment.ID, nil
}

// Follow records a one-directional follow edge. There is no unfollow.
func (s *Service) Follow(ctx context.Context, follower, followed PrincipalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if follower == followed {
		return s.fail(newValidationError(opFollow, "self_follow", ErrSelfFollow))
	}
	key := followKey{follower: follower.String(), followed: followed.String()}
	if _, ok := s.st.followSet[key]; ok {
		return s.fail(newValidationError(opFollow, "edge_exists", ErrEdgeExists),
			zap.String("follower", follower.String()), zap.String("followed", followed.String()))
	}

	now := s.clock().UTC().Unix()
	edge := FollowEdge{
		Follower:         follower.String(),
		Followed:         followed.String(),
		Position:         uint64(len(s.st.followEdges[follower.String()])),
		CreatedAtSeconds: now,
	}
	event, err := s.events.NewEvent(notify.KindFollowCreated, notify.FollowCreated{
		Follower: edge.Follower,
		Followed: edge.Followed,
	}, now)
	if err != nil {
		return s.fail(newInternalError(opFollow, "event_encode_failed", err))
	}

	err = s.persist(ctx, event, func(tx *gorm.DB) error {
		return tx.Create(&edge).Error
	})
	if err != nil {
		return s.fail(newInternalError(opFollow, "edge_save_failed", err))
	}

	s.st.applyFollow(edge)
	s.events.Append(event)
	return nil
}

// GrantDelegation activates the (owner, operator) delegation.
func (s *Service) GrantDelegation(ctx context.Context, owner, operator PrincipalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner == operator {
		return s.fail(newValidationError(opGrantDelegation, "self_delegation", ErrSelfDelegation))
	}
	key := delegationKey{owner: owner.String(), operator: operator.String()}
	if s.st.delegations[key] {
		return s.fail(newValidationError(opGrantDelegation, "already_active", ErrDelegationActive),
			zap.String("owner", owner.String()), zap.String("operator", operator.String()))
	}

	now := s.clock().UTC().Unix()
	delegation := Delegation{
		Owner:            owner.String(),
		Operator:         operator.String(),
		Active:           true,
		UpdatedAtSeconds: now,
	}
	event, err := s.events.NewEvent(notify.KindDelegationGranted, notify.DelegationGranted{
		Owner:    delegation.Owner,
		Operator: delegation.Operator,
	}, now)
	if err != nil {
		return s.fail(newInternalError(opGrantDelegation, "event_encode_failed", err))
	}

	err = s.persist(ctx, event, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&delegation).Error
	})
	if err != nil {
		return s.fail(newInternalError(opGrantDelegation, "delegation_save_failed", err))
	}

	s.st.applyDelegation(delegation)
	s.events.Append(event)
	return nil
}

// RevokeDelegation deactivates a currently active delegation.
func (s *Service) RevokeDelegation(ctx context.Context, owner, operator PrincipalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := delegationKey{owner: owner.String(), operator: operator.String()}
	if !s.st.delegations[key] {
		return s.fail(newValidationError(opRevokeDelegation, "not_active", ErrDelegationNotActive),
			zap.String("owner", owner.String()), zap.String("operator", operator.String()))
	}

	now := s.clock().UTC().Unix()
	event, err := s.events.NewEvent(notify.KindDelegationRevoked, notify.DelegationRevoked{
		Owner:    owner.String(),
		Operator: operator.String(),
	}, now)
	if err != nil {
		return s.fail(newInternalError(opRevokeDelegation, "event_encode_failed", err))
	}

	err = s.persist(ctx, event, func(tx *gorm.DB) error {
		return tx.Model(&Delegation{}).
			Where("owner = ? AND operator = ?", owner.String(), operator.String()).
			Updates(map[string]any{"active": false, "updated_at_s": now}).Error
	})
	if err != nil {
		return s.fail(newInternalError(opRevokeDelegation, "delegation_save_failed", err))
	}

	s.st.delegations[key] = false
	s.events.Append(event)
	return nil
}

// persist commits the mutation's rows together with its notification record
// in one transaction. A nil database makes the ledger purely in-memory.
func (s *Service) persist(ctx context.Context, event notify.Event, write func(tx *gorm.DB) error) error {
	if s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := write(tx); err != nil {
			return err
		}
		return tx.Create(event.Record()).Error
	})
}

func persistCounter(tx *gorm.DB, name string, next uint64) error {
	counter := Counter{Name: name, Next: next}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"next"}),
	}).Create(&counter).Error
}

func (s *Service) fail(err error, fields ...zap.Field) error {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		attrs := append([]zap.Field{
			zap.String("code", serviceErr.Code()),
			zap.String("kind", string(serviceErr.Kind())),
			zap.Error(serviceErr.Unwrap()),
		}, fields...)
		s.logger.Warn("ledger operation rejected", attrs...)
	}
	return err
}
