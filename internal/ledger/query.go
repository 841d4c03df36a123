package ledger

// Pagination is suffix-slicing: the last count items of a collection in
// original insertion order, oldest of the slice first. A count outside
// (0, total] is a hard failure, never a clamped result; a caller wanting
// older items passes a larger count and discards the prefix.

// LatestTweets returns the last count tweets recorded globally.
func (s *Service) LatestTweets(count int) ([]Tweet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, err := suffix(s.st.tweetOrder, count, opLatestTweets)
	if err != nil {
		return nil, err
	}
	return s.tweetsByID(ids), nil
}

// LatestTweetsOf returns the last count tweets posted by the account.
func (s *Service) LatestTweetsOf(account PrincipalID, count int) ([]Tweet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, err := suffix(s.st.accountTweets[account.String()], count, opLatestTweetsOf)
	if err != nil {
		return nil, err
	}
	return s.tweetsByID(ids), nil
}

// LatestComments returns the last count comments on the tweet.
func (s *Service) LatestComments(tweetID uint64, count int) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.st.tweets[tweetID]; !ok {
		return nil, newValidationError(opLatestComments, "tweet_not_found", ErrTweetNotFound)
	}
	comments, err := suffix(s.st.tweetComments[tweetID], count, opLatestComments)
	if err != nil {
		return nil, err
	}
	result := make([]Comment, 0, len(comments))
	for _, comment := range comments {
		result = append(result, *comment)
	}
	return result, nil
}

// MessagesOf returns the account's full conversation list in the order the
// messages were sent.
func (s *Service) MessagesOf(account PrincipalID) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.st.accountMessages[account.String()]
	result := make([]Message, 0, len(messages))
	for _, message := range messages {
		result = append(result, *message)
	}
	return result
}

// Following returns the follow edges created by follower, in creation order.
func (s *Service) Following(follower PrincipalID) []FollowEdge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]FollowEdge(nil), s.st.followEdges[follower.String()]...)
}

// IsAuthorized reports whether actingAs may perform owner-attributed
// writes: either the same principal or an active (owner, actingAs) grant.
func (s *Service) IsAuthorized(owner, actingAs PrincipalID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.st.authorized(owner, actingAs)
}

func (s *Service) tweetsByID(ids []uint64) []Tweet {
	result := make([]Tweet, 0, len(ids))
	for _, id := range ids {
		result = append(result, *s.st.tweets[id])
	}
	return result
}

func suffix[T any](items []T, count int, operation string) ([]T, error) {
	if count <= 0 || count > len(items) {
		return nil, newValidationError(operation, "count_out_of_range", ErrBadCount)
	}
	return items[len(items)-count:], nil
}
