package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/history/pkg/adapters/memory"
	"github.com/aretw0/history/pkg/domain"
	"github.com/aretw0/history/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	// Setup
	underlyingStore := NewMockStore()
	// Mask keys containing "password" or "ssn"
	mw := middleware.NewPIIMiddleware([]string{"password", "ssn"})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	sessionID := "pii-session"
	state := map[string]any{
		"username":      "jdoe",
		"user_password": "secret123",
		"details": map[string]any{
			"address":    "123 St",
			"ssn_number": "999-99-9999",
		},
		"contacts": []any{map[string]any{"ssn": "111"}},
	}
	snap := &domain.Snapshot{
		Entries: []domain.Location{{Pathname: "/"}, {Pathname: "/signup", Key: "k1", State: state}},
		Current: 1,
	}

	// 1. Save
	if err := secureStore.Save(ctx, sessionID, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Verify the live state is NOT MODIFIED
	if state["user_password"] != "secret123" {
		t.Error("Middleware modified original state in memory!")
	}

	// 2. Load from Underlying Store (Should be masked)
	stored, err := underlyingStore.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	got := stored.Entries[1].State.(map[string]any)

	if got["username"] != "jdoe" {
		t.Error("Username shouldn't be masked")
	}
	if got["user_password"] != middleware.Mask {
		t.Errorf("Password should be masked, got: %v", got["user_password"])
	}

	details := got["details"].(map[string]any)
	if details["ssn_number"] != middleware.Mask {
		t.Errorf("Nested SSN should be masked, got: %v", details["ssn_number"])
	}
	if details["address"] != "123 St" {
		t.Errorf("Address shouldn't be masked, got: %v", details["address"])
	}

	contact := got["contacts"].([]any)[0].(map[string]any)
	if contact["ssn"] != middleware.Mask {
		t.Errorf("SSN inside a list should be masked, got: %v", contact["ssn"])
	}
}

func TestChain_MaskThenEncrypt(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	store := middleware.Chain(inner,
		middleware.NewPIIMiddleware([]string{"token"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}),
	)

	snap := &domain.Snapshot{
		Entries: []domain.Location{{Pathname: "/", Key: "k", State: map[string]any{"token": "abc", "page": 2}}},
	}
	if err := store.Save(ctx, "s", snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := inner.Load(ctx, "s")
	if err != nil {
		t.Fatalf("Inner load failed: %v", err)
	}
	if raw.Entries[0].Key != "" {
		t.Error("Inner store should only see the envelope")
	}

	loaded, err := store.Load(ctx, "s")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	state := loaded.Entries[0].State.(map[string]any)
	if state["token"] != middleware.Mask {
		t.Errorf("Token should be masked, got %v", state["token"])
	}
}
