package badgerdb_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kidsrec/chatbot/internal/adapters/storage/badgerdb"
	"github.com/kidsrec/chatbot/internal/domain"
)

func openStore(t *testing.T) *badgerdb.Store {
	t.Helper()

	store, err := badgerdb.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerLoadRecentMessagesReturnsNewestAscending(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	conv, err := store.CreateConversation(ctx, "kid")
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		msg := &domain.Message{
			ID:        domain.MessageID(fmt.Sprintf("m%02d", i)),
			Role:      domain.RoleUser,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := store.AppendMessage(ctx, "kid", conv.ID, msg); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	msgs, err := store.LoadRecentMessages(ctx, "kid", conv.ID, 10)
	if err != nil {
		t.Fatalf("LoadRecentMessages failed: %v", err)
	}
	if len(msgs) != 10 {
		t.Fatalf("expected 10 messages, got %d", len(msgs))
	}
	if msgs[0].ID != "m05" || msgs[9].ID != "m14" {
		t.Fatalf("unexpected window: first=%s last=%s", msgs[0].ID, msgs[9].ID)
	}

	all, err := store.LoadRecentMessages(ctx, "kid", conv.ID, 0)
	if err != nil {
		t.Fatalf("LoadRecentMessages failed: %v", err)
	}
	if len(all) != 15 || all[0].ID != "m00" {
		t.Fatalf("expected all 15 messages oldest first, got %d", len(all))
	}
}

func TestBadgerAppendMessageUpsertsByID(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	conv, _ := store.CreateConversation(ctx, "kid")

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	msg := &domain.Message{ID: "same", Role: domain.RoleAssistant, Content: "first", CreatedAt: base}
	if err := store.AppendMessage(ctx, "kid", conv.ID, msg); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	msg.Content = "second"
	msg.CreatedAt = base.Add(time.Minute)
	msg.Recommendations = []domain.Recommendation{{ID: "r1", Kind: domain.KindVideo, Title: "Volcanoes"}}
	if err := store.AppendMessage(ctx, "kid", conv.ID, msg); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	msgs, err := store.LoadRecentMessages(ctx, "kid", conv.ID, 0)
	if err != nil {
		t.Fatalf("LoadRecentMessages failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	got := msgs[0]
	if got.Content != "second" || len(got.Recommendations) != 1 || got.Recommendations[0].Kind != domain.KindVideo {
		t.Fatalf("unexpected stored message %+v", got)
	}
}

func TestBadgerConversationLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	first, _ := store.CreateConversation(ctx, "kid")
	second, _ := store.CreateConversation(ctx, "kid")
	if _, err := store.CreateConversation(ctx, "other"); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	if err := store.TouchConversation(ctx, "kid", first.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("TouchConversation failed: %v", err)
	}

	list, err := store.ListConversations(ctx, "kid", 0)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(list))
	}
	if list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("expected most recently touched first")
	}

	if _, err := store.GetConversation(ctx, "other", first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound across users, got %v", err)
	}
	if err := store.TouchConversation(ctx, "kid", "missing", time.Now()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound touching missing conversation, got %v", err)
	}
}

func TestBadgerSubscribeMessages(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	conv, _ := store.CreateConversation(ctx, "kid")

	got := make(chan int, 16)

	sub, err := store.SubscribeMessages(ctx, "kid", conv.ID, func(msgs []*domain.Message) {
		select {
		case got <- len(msgs):
		default:
		}
	})
	if err != nil {
		t.Fatalf("SubscribeMessages failed: %v", err)
	}
	defer sub.Cancel()

	waitFor := func(n int) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case size := <-got:
				if size == n {
					return
				}
			case <-deadline:
				t.Fatalf("timed out waiting for a snapshot with %d messages", n)
			}
		}
	}

	waitFor(0)

	// The badger subscription registers asynchronously; keep writing until a
	// snapshot reflecting the write shows up.
	msg := &domain.Message{ID: "m1", Role: domain.RoleUser, Content: "hi", CreatedAt: time.Now()}
	deadline := time.After(5 * time.Second)
	for delivered := false; !delivered; {
		if err := store.AppendMessage(ctx, "kid", conv.ID, msg); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
		select {
		case size := <-got:
			delivered = size == 1
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatalf("timed out waiting for live snapshot")
		}
	}

	sub.Cancel()
	select {
	case <-sub.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("subscription did not stop after Cancel")
	}
	if sub.Err() != nil {
		t.Fatalf("expected nil Err after Cancel, got %v", sub.Err())
	}
}

func TestBadgerProfilesAndFavorites(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	if _, err := store.GetProfile(ctx, "kid"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	profile := &domain.UserProfile{
		Name:      "Mia",
		Age:       7,
		Interests: []string{"space"},
		Filters:   domain.ContentFilters{VideosBlocked: true},
	}
	if err := store.SaveProfile(ctx, "kid", profile); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	got, err := store.GetProfile(ctx, "kid")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got.Name != "Mia" || got.Age != 7 || !got.Filters.VideosBlocked {
		t.Fatalf("unexpected profile %+v", got)
	}

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, item := range []string{"b1", "v1"} {
		fav := &domain.Favorite{
			ID:      domain.FavoriteID("kid", item),
			UserID:  "kid",
			ItemID:  item,
			Kind:    domain.KindBook,
			Title:   item,
			AddedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.PutFavorite(ctx, fav); err != nil {
			t.Fatalf("PutFavorite failed: %v", err)
		}
	}

	favs, err := store.ListFavorites(ctx, "kid")
	if err != nil {
		t.Fatalf("ListFavorites failed: %v", err)
	}
	if len(favs) != 2 || favs[0].ItemID != "v1" {
		t.Fatalf("expected newest favorite first, got %+v", favs)
	}

	if err := store.DeleteFavorite(ctx, "kid", domain.FavoriteID("kid", "b1")); err != nil {
		t.Fatalf("DeleteFavorite failed: %v", err)
	}
	if _, err := store.GetFavorite(ctx, "kid", domain.FavoriteID("kid", "b1")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestBadgerKeysDoNotLeakAcrossUsers(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	other, err := store.CreateConversation(ctx, "alice:bob")
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	mine, err := store.CreateConversation(ctx, "alice")
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	list, err := store.ListConversations(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != mine.ID {
		t.Fatalf("expected only alice's own conversation, got %+v", list)
	}

	// A user id that embeds another user's conversation id must not reach
	// into that conversation's messages.
	sneaky := domain.UserID("alice:" + string(mine.ID))
	sneakyConv, err := store.CreateConversation(ctx, sneaky)
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	msg := &domain.Message{ID: "m1", Role: domain.RoleUser, Content: "secret", CreatedAt: time.Now()}
	if err := store.AppendMessage(ctx, sneaky, sneakyConv.ID, msg); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	msgs, err := store.LoadRecentMessages(ctx, "alice", mine.ID, 0)
	if err != nil {
		t.Fatalf("LoadRecentMessages failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected alice's conversation to be empty, got %d messages", len(msgs))
	}

	if err := store.PutFavorite(ctx, &domain.Favorite{ID: "alice:bob_x", UserID: "alice:bob", ItemID: "x"}); err != nil {
		t.Fatalf("PutFavorite failed: %v", err)
	}
	favs, err := store.ListFavorites(ctx, "alice")
	if err != nil {
		t.Fatalf("ListFavorites failed: %v", err)
	}
	if len(favs) != 0 {
		t.Fatalf("expected no favorites for alice, got %d", len(favs))
	}

	if _, err := store.GetConversation(ctx, "alice:bob", other.ID); err != nil {
		t.Fatalf("expected alice:bob to keep its conversation, got %v", err)
	}
}

func TestBadgerAppendMessageToMissingConversation(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	msg := &domain.Message{ID: "m1", Role: domain.RoleUser, Content: "hi", CreatedAt: time.Now()}
	if err := store.AppendMessage(ctx, "kid", "missing", msg); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	msgs, err := store.LoadRecentMessages(ctx, "kid", "missing", 0)
	if err != nil {
		t.Fatalf("LoadRecentMessages failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected nothing stored, got %d messages", len(msgs))
	}
}
