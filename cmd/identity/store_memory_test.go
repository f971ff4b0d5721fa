package identity

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_ProvisionCreatesOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := NewMemoryStore()
	now := time.Now().UTC()

	in := ProvisionInput{
		Username:  DeriveUsername("student@example.com", "abc123"),
		Email:     "student@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Now:       now,
	}

	u1, created, err := st.ProvisionUser(ctx, in)
	if err != nil {
		t.Fatalf("ProvisionUser: %v", err)
	}
	if !created {
		t.Fatalf("expected first provision to create")
	}
	if u1.PasswordHash != nil {
		t.Fatalf("launch-provisioned user must have no password hash")
	}

	// A later launch with different names must not refresh the profile.
	in2 := in
	in2.FirstName = "Different"
	in2.LastName = "Name"

	u2, created, err := st.ProvisionUser(ctx, in2)
	if err != nil {
		t.Fatalf("ProvisionUser (second): %v", err)
	}
	if created {
		t.Fatalf("expected second provision to fetch")
	}
	if u2.ID != u1.ID {
		t.Fatalf("expected same user, got %s vs %s", u2.ID, u1.ID)
	}
	if u2.FirstName != "Ada" || u2.LastName != "Lovelace" {
		t.Fatalf("profile fields must not be overwritten: %q %q", u2.FirstName, u2.LastName)
	}
}

func TestMemoryStore_ProvisionConcurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := NewMemoryStore()

	in := ProvisionInput{
		Username: DeriveUsername("race@example.com", "uid-race"),
		Email:    "race@example.com",
	}

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = make(map[string]struct{})
		creates int
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, created, err := st.ProvisionUser(ctx, in)
			if err != nil {
				t.Errorf("ProvisionUser: %v", err)
				return
			}
			mu.Lock()
			ids[u.ID] = struct{}{}
			if created {
				creates++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != 1 {
		t.Fatalf("expected exactly one user, got %d", len(ids))
	}
	if creates != 1 {
		t.Fatalf("expected exactly one creator, got %d", creates)
	}
}

func TestMemoryStore_CreateOwnerConflict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := NewMemoryStore()

	in := CreateOwnerInput{
		Username: "course-admin",
		Email:    "Admin@Example.com",
		Password: "long-enough-password",
	}

	u, err := st.CreateOwner(ctx, in)
	if err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}
	if u.Email != "admin@example.com" {
		t.Fatalf("expected normalized email, got %q", u.Email)
	}
	if u.PasswordHash == nil {
		t.Fatalf("owner account must have a password hash")
	}

	if _, err := st.CreateOwner(ctx, in); !IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
