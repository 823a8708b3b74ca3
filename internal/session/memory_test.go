package session

import (
	"context"
	"testing"
	"time"

	"github.com/mdelehaye/cvchat/pkg/types"
)

func TestMemoryStorePutGet(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	sess := &Session{
		ID: "abc",
		History: []types.Message{
			{Role: types.RoleUser, Content: "hello"},
		},
	}

	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() = nil, want session")
	}
	if len(got.History) != 1 || got.History[0].Content != "hello" {
		t.Errorf("Get() history = %+v, want one message", got.History)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("Put() should set timestamps")
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	got, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil for missing session", got)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	if err := store.Put(ctx, &Session{ID: "abc"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if err := store.Delete(ctx, "abc"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if err := store.Delete(ctx, "abc"); err != ErrNotFound {
		t.Errorf("Delete() second call error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreListCount(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Put(ctx, &Session{ID: id}); err != nil {
			t.Fatalf("Put(%q) error = %v", id, err)
		}
	}

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("List() returned %d ids, want 3", len(ids))
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(20 * time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	if err := store.Put(ctx, &Session{ID: "short"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	got, err := store.Get(ctx, "short")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Error("Get() returned expired session, want nil")
	}

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("List() returned %d ids after expiry, want 0", len(ids))
	}
}

func TestMemoryStoreGetRefreshesTTL(t *testing.T) {
	store := NewMemoryStore(60 * time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	if err := store.Put(ctx, &Session{ID: "live"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// Keep reading within the TTL; the session must survive past the
	// original deadline.
	for i := 0; i < 4; i++ {
		time.Sleep(30 * time.Millisecond)
		got, err := store.Get(ctx, "live")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got == nil {
			t.Fatalf("Get() = nil on read %d, TTL not refreshed", i)
		}
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	if err := store.Put(ctx, &Session{
		ID:      "abc",
		History: []types.Message{{Role: types.RoleUser, Content: "original"}},
	}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	first, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	first.History[0].Content = "mutated"
	first.History = append(first.History, types.Message{Role: types.RoleAssistant, Content: "extra"})

	second, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(second.History) != 1 {
		t.Fatalf("stored history has %d messages after caller mutation, want 1", len(second.History))
	}
	if second.History[0].Content != "original" {
		t.Errorf("stored history content = %q, caller mutation leaked into store", second.History[0].Content)
	}
}

func TestMemoryStorePutStoresCopy(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	sess := &Session{
		ID:      "abc",
		History: []types.Message{{Role: types.RoleUser, Content: "original"}},
	}
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	sess.History[0].Content = "mutated"

	got, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.History[0].Content != "original" {
		t.Errorf("stored history content = %q, caller mutation leaked into store", got.History[0].Content)
	}
}

func TestSessionClone(t *testing.T) {
	sess := &Session{
		ID:      "abc",
		History: []types.Message{{Role: types.RoleUser, Content: "one"}},
	}

	clone := sess.Clone()
	clone.History[0].Content = "changed"
	clone.History = append(clone.History, types.Message{Role: types.RoleAssistant, Content: "two"})

	if len(sess.History) != 1 || sess.History[0].Content != "one" {
		t.Errorf("Clone() shares history with the original: %+v", sess.History)
	}
}

func TestSessionTrim(t *testing.T) {
	tests := []struct {
		name     string
		messages int
		window   int
		want     int
	}{
		{"under window", 4, 10, 4},
		{"exactly window", 20, 10, 20},
		{"over window", 26, 10, 20},
		{"tiny window", 8, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &Session{ID: "t"}
			for i := 0; i < tt.messages; i++ {
				role := types.RoleUser
				if i%2 == 1 {
					role = types.RoleAssistant
				}
				sess.History = append(sess.History, types.Message{Role: role, Content: "m"})
			}

			sess.Trim(tt.window)
			if len(sess.History) != tt.want {
				t.Errorf("Trim(%d) left %d messages, want %d", tt.window, len(sess.History), tt.want)
			}
		})
	}
}

func TestSessionTrimKeepsNewest(t *testing.T) {
	sess := &Session{ID: "t"}
	for i := 0; i < 6; i++ {
		sess.History = append(sess.History, types.Message{
			Role:    types.RoleUser,
			Content: string(rune('a' + i)),
		})
	}

	sess.Trim(2)
	if len(sess.History) != 4 {
		t.Fatalf("Trim(2) left %d messages, want 4", len(sess.History))
	}
	if sess.History[0].Content != "c" {
		t.Errorf("Trim(2) first message = %q, want %q", sess.History[0].Content, "c")
	}
}
