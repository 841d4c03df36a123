package ledger

import (
	"context"
	"errors"
	"testing"
)

func TestLatestTweetsReturnsSuffixInInsertionOrder(t *testing.T) {
	service := newTestService(t)
	alice := mustPrincipal(t, "alice")
	bob := mustPrincipal(t, "bob")

	mustPost(t, service, alice, "oldest")
	mustPost(t, service, bob, "middle")
	mustPost(t, service, alice, "newest")

	tweets, err := service.LatestTweets(2)
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if len(tweets) != 2 {
		t.Fatalf("expected 2 tweets, got %d", len(tweets))
	}
	// Oldest of the slice first: the suffix keeps insertion order.
	if tweets[0].Content != "middle" || tweets[1].Content != "newest" {
		t.Fatalf("unexpected slice order: %q then %q", tweets[0].Content, tweets[1].Content)
	}
}

func TestPaginationCountIsStrict(t *testing.T) {
	service := newTestService(t)
	alice := mustPrincipal(t, "alice")
	mustPost(t, service, alice, "only")

	tests := []struct {
		name  string
		count int
	}{
		{name: "zero", count: 0},
		{name: "negative", count: -1},
		{name: "exceeds-total", count: 2},
	}
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := service.LatestTweets(testCase.count); !errors.Is(err, ErrBadCount) {
				t.Fatalf("expected count error for %d, got %v", testCase.count, err)
			}
		})
	}
}

func TestLatestTweetsOfExactTotalReturnsAllInPostingOrder(t *testing.T) {
	service := newTestService(t)
	alice := mustPrincipal(t, "alice")
	bob := mustPrincipal(t, "bob")

	mustPost(t, service, alice, "a1")
	mustPost(t, service, bob, "b1")
	mustPost(t, service, alice, "a2")

	tweets, err := service.LatestTweetsOf(alice, 2)
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if tweets[0].Content != "a1" || tweets[1].Content != "a2" {
		t.Fatalf("expected alice's tweets in posting order, got %q then %q", tweets[0].Content, tweets[1].Content)
	}

	if _, err := service.LatestTweetsOf(alice, 3); !errors.Is(err, ErrBadCount) {
		t.Fatalf("count beyond the account total must fail, got %v", err)
	}
}

func TestLatestTweetsOfUnknownAccountFails(t *testing.T) {
	service := newTestService(t)

	if _, err := service.LatestTweetsOf(mustPrincipal(t, "nobody"), 1); !errors.Is(err, ErrBadCount) {
		t.Fatalf("expected count error for empty collection, got %v", err)
	}
}

func TestLatestCommentsSuffixAndValidation(t *testing.T) {
	service := newTestService(t)
	alice := mustPrincipal(t, "alice")
	bob := mustPrincipal(t, "bob")
	tweetID := mustPost(t, service, alice, "hello")

	if _, err := service.LatestComments(99, 1); !errors.Is(err, ErrTweetNotFound) {
		t.Fatalf("expected tweet not found, got %v", err)
	}
	if _, err := service.LatestComments(tweetID, 1); !errors.Is(err, ErrBadCount) {
		t.Fatalf("expected count error before any comment, got %v", err)
	}

	for _, content := range []string{"one", "two", "three"} {
		if _, err := service.Comment(context.Background(), tweetID, bob, content); err != nil {
			t.Fatalf("unexpected comment error: %v", err)
		}
	}

	comments, err := service.LatestComments(tweetID, 2)
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if comments[0].Content != "two" || comments[1].Content != "three" {
		t.Fatalf("unexpected comment order: %q then %q", comments[0].Content, comments[1].Content)
	}
}
