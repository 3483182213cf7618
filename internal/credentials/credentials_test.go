package credentials

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/arnstad/sigil/internal/settings"
	"github.com/arnstad/sigil/internal/storage"
)

func testEnv(t *testing.T) (*Store, *settings.Store) {
	t.Helper()
	files, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	st, err := settings.New(files)
	if err != nil {
		t.Fatalf("settings.New: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(st, logger), st
}

func TestSetAndGetRoundTrip(t *testing.T) {
	keyring.MockInit()
	s, st := testEnv(t)

	if err := s.SetKey("sk-test-secret"); err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	got, err := s.GetKey()
	if err != nil {
		t.Fatalf("GetKey: %v", err)
	}
	if got != "sk-test-secret" {
		t.Errorf("GetKey = %q", got)
	}

	// The settings file never holds the plaintext.
	if st.Get(settings.KeyAPIKey) != "" {
		t.Error("legacy plaintext key still present")
	}
	enc := st.Get(settings.KeyEncryptedAPIKey)
	if enc == "" || enc == "sk-test-secret" {
		t.Errorf("encrypted value = %q", enc)
	}
}

func TestSetRemovesLegacyPlaintext(t *testing.T) {
	keyring.MockInit()
	s, st := testEnv(t)

	_ = st.Set(settings.KeyAPIKey, "old-plaintext")
	if err := s.SetKey("new-secret"); err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	if st.Get(settings.KeyAPIKey) != "" {
		t.Error("legacy plaintext not removed")
	}
	got, _ := s.GetKey()
	if got != "new-secret" {
		t.Errorf("GetKey = %q", got)
	}
}

func TestLegacyPlaintextFallback(t *testing.T) {
	keyring.MockInit()
	s, st := testEnv(t)

	_ = st.Set(settings.KeyAPIKey, "legacy-key")
	got, err := s.GetKey()
	if err != nil {
		t.Fatalf("GetKey: %v", err)
	}
	if got != "legacy-key" {
		t.Errorf("GetKey = %q, want legacy fallback", got)
	}
}

func TestUnavailableKeychainFallsBackToPlaintext(t *testing.T) {
	keyring.MockInitWithError(errors.New("no keychain"))
	s, st := testEnv(t)

	if err := s.SetKey("degraded-secret"); err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	if st.Get(settings.KeyAPIKey) != "degraded-secret" {
		t.Error("expected plaintext fallback when keychain unavailable")
	}
	got, _ := s.GetKey()
	if got != "degraded-secret" {
		t.Errorf("GetKey = %q", got)
	}
}

func TestGetKeyEmptyWhenNothingStored(t *testing.T) {
	keyring.MockInit()
	s, _ := testEnv(t)
	got, err := s.GetKey()
	if err != nil {
		t.Fatalf("GetKey: %v", err)
	}
	if got != "" {
		t.Errorf("GetKey = %q, want empty", got)
	}
}

func TestCorruptCiphertextReturnsEmpty(t *testing.T) {
	keyring.MockInit()
	s, st := testEnv(t)

	_ = st.Set(settings.KeyEncryptedAPIKey, "not-base64!!")
	got, err := s.GetKey()
	if err != nil {
		t.Fatalf("GetKey: %v", err)
	}
	if got != "" {
		t.Errorf("GetKey = %q, want empty on corrupt ciphertext", got)
	}
}
