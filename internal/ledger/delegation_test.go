package ledger

import (
	"context"
	"errors"
	"testing"
)

func TestGrantActivatesDelegation(t *testing.T) {
	service := newTestService(t)
	alice := mustPrincipal(t, "alice")
	carol := mustPrincipal(t, "carol")

	if service.IsAuthorized(alice, carol) {
		t.Fatalf("no delegation should exist before grant")
	}
	if !service.IsAuthorized(alice, alice) {
		t.Fatalf("a principal is always authorized for itself")
	}

	mustGrant(t, service, alice, carol)

	if !service.IsAuthorized(alice, carol) {
		t.Fatalf("grant must activate the delegation")
	}
	// Delegation is directional: carol granting nothing back.
	if service.IsAuthorized(carol, alice) {
		t.Fatalf("reverse delegation must not be implied")
	}
}

func TestGrantRejectsSelfAndDuplicate(t *testing.T) {
	service := newTestService(t)
	alice := mustPrincipal(t, "alice")
	carol := mustPrincipal(t, "carol")

	if err := service.GrantDelegation(context.Background(), alice, alice); !errors.Is(err, ErrSelfDelegation) {
		t.Fatalf("expected self delegation error, got %v", err)
	}

	mustGrant(t, service, alice, carol)

	err := service.GrantDelegation(context.Background(), alice, carol)
	if !errors.Is(err, ErrDelegationActive) {
		t.Fatalf("expected already active error, got %v", err)
	}
}

func TestRevokeRequiresActiveDelegation(t *testing.T) {
	service := newTestService(t)
	alice := mustPrincipal(t, "alice")
	carol := mustPrincipal(t, "carol")

	if err := service.RevokeDelegation(context.Background(), alice, carol); !errors.Is(err, ErrDelegationNotActive) {
		t.Fatalf("expected not active error, got %v", err)
	}

	mustGrant(t, service, alice, carol)
	if err := service.RevokeDelegation(context.Background(), alice, carol); err != nil {
		t.Fatalf("unexpected revoke error: %v", err)
	}
	if service.IsAuthorized(alice, carol) {
		t.Fatalf("revoke must deactivate the delegation")
	}

	// A revoked pair can be granted again.
	mustGrant(t, service, alice, carol)
	if !service.IsAuthorized(alice, carol) {
		t.Fatalf("re-grant after revoke must activate the delegation")
	}
}
