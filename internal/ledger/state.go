package ledger

// state is the ledger's working set: the keyed collections of the persisted
// layout plus the three monotonic ID counters. It is never touched outside
// the Service's lock, and mutations reach it only after validation and a
// successful durable write.
type state struct {
	tweets          map[uint64]*Tweet
	tweetOrder      []uint64
	accountTweets   map[string][]uint64
	accountMessages map[string][]*Message
	tweetComments   map[uint64][]*Comment
	tweetLikes      map[uint64]map[string]struct{}
	followEdges     map[string][]FollowEdge
	followSet       map[followKey]struct{}
	delegations     map[delegationKey]bool

	nextTweetID   uint64
	nextMessageID uint64
	nextCommentID uint64
}

type followKey struct {
	follower string
	followed string
}

type delegationKey struct {
	owner    string
	operator string
}

func newState() *state {
	return &state{
		tweets:          make(map[uint64]*Tweet),
		accountTweets:   make(map[string][]uint64),
		accountMessages: make(map[string][]*Message),
		tweetComments:   make(map[uint64][]*Comment),
		tweetLikes:      make(map[uint64]map[string]struct{}),
		followEdges:     make(map[string][]FollowEdge),
		followSet:       make(map[followKey]struct{}),
		delegations:     make(map[delegationKey]bool),
	}
}

// authorized implements the registry contract: a principal always acts for
// itself, otherwise an active (owner, actingAs) delegation is required.
func (st *state) authorized(owner, actingAs PrincipalID) bool {
	if owner == actingAs {
		return true
	}
	return st.delegations[delegationKey{owner: owner.String(), operator: actingAs.String()}]
}

func (st *state) applyTweet(tweet *Tweet) {
	st.tweets[tweet.ID] = tweet
	st.tweetOrder = append(st.tweetOrder, tweet.ID)
	st.accountTweets[tweet.Author] = append(st.accountTweets[tweet.Author], tweet.ID)
	st.nextTweetID = tweet.ID + 1
}

func (st *state) applyMessage(message *Message) {
	st.accountMessages[message.Sender] = append(st.accountMessages[message.Sender], message)
	st.accountMessages[message.Receiver] = append(st.accountMessages[message.Receiver], message)
	st.nextMessageID = message.ID + 1
}

func (st *state) applyComment(comment *Comment) {
	st.tweetComments[comment.TweetID] = append(st.tweetComments[comment.TweetID], comment)
	st.tweets[comment.TweetID].CommentCount++
	st.nextCommentID = comment.ID + 1
}

func (st *state) applyLike(like Like) {
	likers := st.tweetLikes[like.TweetID]
	if likers == nil {
		likers = make(map[string]struct{})
		st.tweetLikes[like.TweetID] = likers
	}
	likers[like.Liker] = struct{}{}
	st.tweets[like.TweetID].LikeCount++
}

func (st *state) applyFollow(edge FollowEdge) {
	st.followEdges[edge.Follower] = append(st.followEdges[edge.Follower], edge)
	st.followSet[followKey{follower: edge.Follower, followed: edge.Followed}] = struct{}{}
}

func (st *state) applyDelegation(delegation Delegation) {
	st.delegations[delegationKey{owner: delegation.Owner, operator: delegation.Operator}] = delegation.Active
}

func (st *state) liked(tweetID uint64, liker PrincipalID) bool {
	likers, ok := st.tweetLikes[tweetID]
	if !ok {
		return false
	}
	_, ok = likers[liker.String()]
	return ok
}
