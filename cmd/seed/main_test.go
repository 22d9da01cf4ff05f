package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/geocoder89/medid/internal/domain/account"
)

func TestDemoAccountsAreValid(t *testing.T) {
	seen := map[account.Role]int{}

	for _, in := range demoAccounts() {
		in.Password = demoPassword

		a, err := in.Prepare()
		if err != nil {
			t.Fatalf("%s: %v", in.Email, err)
		}
		seen[a.Role()]++
	}

	for _, r := range account.AllRoles() {
		if seen[r] == 0 {
			t.Fatalf("no demo account for role %s", r)
		}
	}
}

type fakeCreator struct {
	seen map[string]bool
	fail string
}

func (f *fakeCreator) AdminCreateAccount(_ context.Context, in account.NewAccount) (account.Account, error) {
	if in.Email == f.fail {
		return account.Account{}, errors.New("connection refused")
	}
	if f.seen[in.Email] {
		return account.Account{}, account.ErrDuplicateEmail
	}
	f.seen[in.Email] = true
	return in.Prepare()
}

func TestSeed_SkipsExistingAndStopsOnFailure(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	total := len(demoAccounts())

	c := &fakeCreator{seen: map[string]bool{}}

	created, skipped, err := seed(ctx, c, log)
	if err != nil || created != total || skipped != 0 {
		t.Fatalf("first run: created=%d skipped=%d err=%v", created, skipped, err)
	}

	created, skipped, err = seed(ctx, c, log)
	if err != nil || created != 0 || skipped != total {
		t.Fatalf("second run: created=%d skipped=%d err=%v", created, skipped, err)
	}

	failing := &fakeCreator{seen: map[string]bool{}, fail: demoAccounts()[1].Email}
	created, _, err = seed(ctx, failing, log)
	if err == nil || created != 1 {
		t.Fatalf("expected to stop at the failing account, created=%d err=%v", created, err)
	}
}
