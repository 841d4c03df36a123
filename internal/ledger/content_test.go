package ledger

import (
	"context"
	"errors"
	"testing"
)

func TestPostAssignsSequentialIDs(t *testing.T) {
	service := newTestService(t)
	alice := mustPrincipal(t, "alice")

	first := mustPost(t, service, alice, "first")
	second := mustPost(t, service, alice, "second")

	if first != 0 || second != 1 {
		t.Fatalf("expected ids 0 and 1, got %d and %d", first, second)
	}

	tweets, err := service.LatestTweetsOf(alice, 2)
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if tweets[0].ID != 0 || tweets[1].ID != 1 {
		t.Fatalf("expected posting order, got %d then %d", tweets[0].ID, tweets[1].ID)
	}
	if tweets[0].LikeCount != 0 || tweets[0].CommentCount != 0 {
		t.Fatalf("expected zero counters on a fresh tweet")
	}
}

func TestPostRejectsEmptyContentWithoutConsumingID(t *testing.T) {
	service := newTestService(t)
	alice := mustPrincipal(t, "alice")

	_, err := service.PostAsSelf(context.Background(), alice, "   ")
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected empty content error, got %v", err)
	}
	if !IsValidation(err) {
		t.Fatalf("expected validation kind, got %v", err)
	}
	if service.Events().Len() != 0 {
		t.Fatalf("failed post must not emit a notification")
	}

	id := mustPost(t, service, alice, "hello")
	if id != 0 {
		t.Fatalf("failed post consumed an id: next was %d", id)
	}
}

func TestPostAsDelegateRequiresActiveGrant(t *testing.T) {
	service := newTestService(t)
	alice := mustPrincipal(t, "alice")
	carol := mustPrincipal(t, "carol")

	_, err := service.PostAsDelegate(context.Background(), alice, carol, "for alice")
	if !IsAuthorization(err) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}

	mustGrant(t, service, alice, carol)

	id, err := service.PostAsDelegate(context.Background(), alice, carol, "for alice")
	if err != nil {
		t.Fatalf("unexpected delegate post error: %v", err)
	}
	tweets, err := service.LatestTweetsOf(alice, 1)
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if tweets[0].ID != id || tweets[0].Author != alice.String() {
		t.Fatalf("delegate post must attribute authorship to the owner, got %+v", tweets[0])
	}

	if err := service.RevokeDelegation(context.Background(), alice, carol); err != nil {
		t.Fatalf("unexpected revoke error: %v", err)
	}
	if _, err := service.PostAsDelegate(context.Background(), alice, carol, "again"); !IsAuthorization(err) {
		t.Fatalf("expected authorization error after revoke, got %v", err)
	}
}

func TestLikeIncrementsCountExactlyOnce(t *testing.T) {
	service := newTestService(t)
	alice := mustPrincipal(t, "alice")
	bob := mustPrincipal(t, "bob")
	tweetID := mustPost(t, service, alice, "hello")

	if err := service.Like(context.Background(), tweetID, bob); err != nil {
		t.Fatalf("unexpected like error: %v", err)
	}
	eventsAfterFirst := service.Events().Len()

	err := service.Like(context.Background(), tweetID, bob)
	if !errors.Is(err, ErrAlreadyLiked) {
		t.Fatalf("second like must fail, got %v", err)
	}

	tweets, queryErr := service.LatestTweets(1)
	if queryErr != nil {
		t.Fatalf("unexpected query error: %v", queryErr)
	}
	if tweets[0].LikeCount != 1 {
		t.Fatalf("expected like count 1, got %d", tweets[0].LikeCount)
	}
	if service.Events().Len() != eventsAfterFirst {
		t.Fatalf("rejected like must not emit a notification")
	}
}

func TestLikeRejectsMissingTweet(t *testing.T) {
	service := newTestService(t)
	bob := mustPrincipal(t, "bob")

	err := service.Like(context.Background(), 42, bob)
	if !errors.Is(err, ErrTweetNotFound) {
		t.Fatalf("expected tweet not found, got %v", err)
	}
}

func TestCommentDrawsFromGlobalCounter(t *testing.T) {
	service := newTestService(t)
	alice := mustPrincipal(t, "alice")
	bob := mustPrincipal(t, "bob")
	firstTweet := mustPost(t, service, alice, "one")
	secondTweet := mustPost(t, service, alice, "two")

	firstComment, err := service.Comment(context.Background(), firstTweet, bob, "on one")
	if err != nil {
		t.Fatalf("unexpected comment error: %v", err)
	}
	secondComment, err := service.Comment(context.Background(), secondTweet, bob, "on two")
	if err != nil {
		t.Fatalf("unexpected comment error: %v", err)
	}
	if firstComment != 0 || secondComment != 1 {
		t.Fatalf("comment ids must come from one shared counter, got %d and %d", firstComment, secondComment)
	}

	tweets, err := service.LatestTweets(2)
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	for _, tweet := range tweets {
		if tweet.CommentCount != 1 {
			t.Fatalf("expected comment count 1 on tweet %d, got %d", tweet.ID, tweet.CommentCount)
		}
	}
}

func TestCommentRejectsMissingTweetAndEmptyContent(t *testing.T) {
	service := newTestService(t)
	alice := mustPrincipal(t, "alice")
	bob := mustPrincipal(t, "bob")
	tweetID := mustPost(t, service, alice, "hello")

	if _, err := service.Comment(context.Background(), 99, bob, "hi"); !errors.Is(err, ErrTweetNotFound) {
		t.Fatalf("expected tweet not found, got %v", err)
	}
	if _, err := service.Comment(context.Background(), tweetID, bob, ""); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected empty content error, got %v", err)
	}

	id, err := service.Comment(context.Background(), tweetID, bob, "hi")
	if err != nil {
		t.Fatalf("unexpected comment error: %v", err)
	}
	if id != 0 {
		t.Fatalf("failed comments consumed ids: next was %d", id)
	}
}
