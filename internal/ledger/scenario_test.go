package ledger

import (
	"context"
	"testing"

	"github.com/aviaryworks/aviary/internal/notify"
)

func TestLedgerScenario(t *testing.T) {
	service := newTestService(t)
	alice := mustPrincipal(t, "alice")
	bob := mustPrincipal(t, "bob")
	carol := mustPrincipal(t, "carol")

	tweetID := mustPost(t, service, alice, "hello")
	if tweetID != 0 {
		t.Fatalf("expected first tweet id 0, got %d", tweetID)
	}

	if err := service.Like(context.Background(), tweetID, bob); err != nil {
		t.Fatalf("unexpected like error: %v", err)
	}
	commentID, err := service.Comment(context.Background(), tweetID, bob, "hi")
	if err != nil {
		t.Fatalf("unexpected comment error: %v", err)
	}
	if commentID != 0 {
		t.Fatalf("expected first comment id 0, got %d", commentID)
	}

	mustGrant(t, service, alice, carol)
	delegatedID, err := service.PostAsDelegate(context.Background(), alice, carol, "delegated post")
	if err != nil {
		t.Fatalf("unexpected delegate post error: %v", err)
	}
	if delegatedID != 1 {
		t.Fatalf("expected second tweet id 1, got %d", delegatedID)
	}

	tweets, err := service.LatestTweetsOf(alice, 2)
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if tweets[0].ID != 0 || tweets[1].ID != 1 {
		t.Fatalf("expected [tweet0, tweet1], got ids %d and %d", tweets[0].ID, tweets[1].ID)
	}
	if tweets[0].LikeCount != 1 || tweets[0].CommentCount != 1 {
		t.Fatalf("expected counts (1,1) on tweet0, got (%d,%d)", tweets[0].LikeCount, tweets[0].CommentCount)
	}
	if tweets[1].Author != alice.String() {
		t.Fatalf("delegated tweet must be authored by the owner, got %s", tweets[1].Author)
	}
}

func TestEverySuccessfulMutationEmitsExactlyOneNotification(t *testing.T) {
	service := newTestService(t)
	alice := mustPrincipal(t, "alice")
	bob := mustPrincipal(t, "bob")
	carol := mustPrincipal(t, "carol")

	mustPost(t, service, alice, "hello")
	if err := service.Like(context.Background(), 0, bob); err != nil {
		t.Fatalf("unexpected like error: %v", err)
	}
	if _, err := service.Comment(context.Background(), 0, bob, "hi"); err != nil {
		t.Fatalf("unexpected comment error: %v", err)
	}
	if err := service.Follow(context.Background(), bob, alice); err != nil {
		t.Fatalf("unexpected follow error: %v", err)
	}
	mustGrant(t, service, alice, carol)
	if err := service.RevokeDelegation(context.Background(), alice, carol); err != nil {
		t.Fatalf("unexpected revoke error: %v", err)
	}
	mustSend(t, service, alice, bob, "dm")

	events := service.Events().Since(0)
	expectedKinds := []string{
		notify.KindTweetCreated,
		notify.KindTweetLiked,
		notify.KindCommentCreated,
		notify.KindFollowCreated,
		notify.KindDelegationGranted,
		notify.KindDelegationRevoked,
		notify.KindMessageSent,
	}
	if len(events) != len(expectedKinds) {
		t.Fatalf("expected %d notifications, got %d", len(expectedKinds), len(events))
	}
	for i, kind := range expectedKinds {
		if events[i].Kind != kind {
			t.Fatalf("expected notification %d to be %s, got %s", i, kind, events[i].Kind)
		}
		if events[i].ID == "" {
			t.Fatalf("notification %d is missing an id", i)
		}
	}
}
