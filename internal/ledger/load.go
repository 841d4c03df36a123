package ledger

import (
	"fmt"

	"github.com/aviaryworks/aviary/internal/notify"
)

// load rebuilds the working set and the notification log from the durable
// tables. Runs once during construction, before any operation is accepted.
func (s *Service) load() error {
	st := newState()

	var tweets []Tweet
	if err := s.db.Order("tweet_id").Find(&tweets).Error; err != nil {
		return fmt.Errorf("ledger: load tweets: %w", err)
	}
	for i := range tweets {
		tweet := tweets[i]
		st.tweets[tweet.ID] = &tweet
		st.tweetOrder = append(st.tweetOrder, tweet.ID)
		st.accountTweets[tweet.Author] = append(st.accountTweets[tweet.Author], tweet.ID)
	}

	var messageRows []MessageRow
	if err := s.db.Order("message_id, owner").Find(&messageRows).Error; err != nil {
		return fmt.Errorf("ledger: load messages: %w", err)
	}
	for i := range messageRows {
		row := messageRows[i]
		message := row.Message
		st.accountMessages[row.Owner] = append(st.accountMessages[row.Owner], &message)
	}

	var comments []Comment
	if err := s.db.Order("comment_id").Find(&comments).Error; err != nil {
		return fmt.Errorf("ledger: load comments: %w", err)
	}
	for i := range comments {
		comment := comments[i]
		st.tweetComments[comment.TweetID] = append(st.tweetComments[comment.TweetID], &comment)
	}

	var likes []Like
	if err := s.db.Find(&likes).Error; err != nil {
		return fmt.Errorf("ledger: load likes: %w", err)
	}
	for _, like := range likes {
		likers := st.tweetLikes[like.TweetID]
		if likers == nil {
			likers = make(map[string]struct{})
			st.tweetLikes[like.TweetID] = likers
		}
		likers[like.Liker] = struct{}{}
	}

	var edges []FollowEdge
	if err := s.db.Order("follower, position").Find(&edges).Error; err != nil {
		return fmt.Errorf("ledger: load follow edges: %w", err)
	}
	for _, edge := range edges {
		st.applyFollow(edge)
	}

	var delegations []Delegation
	if err := s.db.Find(&delegations).Error; err != nil {
		return fmt.Errorf("ledger: load delegations: %w", err)
	}
	for _, delegation := range delegations {
		st.applyDelegation(delegation)
	}

	var counters []Counter
	if err := s.db.Find(&counters).Error; err != nil {
		return fmt.Errorf("ledger: load counters: %w", err)
	}
	for _, counter := range counters {
		switch counter.Name {
		case counterTweetID:
			st.nextTweetID = counter.Next
		case counterMessageID:
			st.nextMessageID = counter.Next
		case counterCommentID:
			st.nextCommentID = counter.Next
		}
	}

	var eventRecords []notify.EventRecord
	if err := s.db.Order("seq").Find(&eventRecords).Error; err != nil {
		return fmt.Errorf("ledger: load events: %w", err)
	}
	restored := make([]notify.Event, 0, len(eventRecords))
	for _, record := range eventRecords {
		restored = append(restored, record.Event())
	}
	s.events.Restore(restored)

	s.st = st
	return nil
}
