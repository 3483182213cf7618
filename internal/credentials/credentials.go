// Package credentials persists the provider API key. The secret is
// sealed with AES-GCM under a random content key held by the OS
// keychain; the ciphertext itself lives in the settings file. On
// platforms without a keychain the store degrades to plaintext.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"

	"github.com/arnstad/sigil/internal/settings"
)

const (
	keyringService = "sigil"
	keyringUser    = "content-key"
)

// Store wraps the OS keychain and the settings file.
type Store struct {
	settings *settings.Store
	logger   *slog.Logger
}

// New creates a credential store.
func New(st *settings.Store, logger *slog.Logger) *Store {
	return &Store{settings: st, logger: logger}
}

// SetKey stores the API key. When the keychain is available the secret
// is encrypted and the legacy plaintext copy removed; otherwise the
// secret is stored in plaintext and the degraded mode is logged.
func (s *Store) SetKey(secret string) error {
	key, ok := s.contentKey()
	if !ok {
		s.logger.Warn("OS keychain unavailable, storing API key in plaintext")
		if err := s.settings.Delete(settings.KeyEncryptedAPIKey); err != nil {
			return err
		}
		return s.settings.Set(settings.KeyAPIKey, secret)
	}

	sealed, err := seal(key, []byte(secret))
	if err != nil {
		return fmt.Errorf("credentials: encrypt: %w", err)
	}
	if err := s.settings.Set(settings.KeyEncryptedAPIKey, base64.StdEncoding.EncodeToString(sealed)); err != nil {
		return err
	}
	return s.settings.Delete(settings.KeyAPIKey)
}

// GetKey returns the stored API key, or the empty string when nothing
// is stored or the encrypted copy cannot be recovered. An encrypted
// copy takes precedence; the legacy plaintext key is the fallback.
func (s *Store) GetKey() (string, error) {
	if enc := s.settings.Get(settings.KeyEncryptedAPIKey); enc != "" {
		key, ok := s.contentKey()
		if !ok {
			return "", nil
		}
		sealed, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return "", nil
		}
		secret, err := open(key, sealed)
		if err != nil {
			return "", nil
		}
		return string(secret), nil
	}
	return s.settings.Get(settings.KeyAPIKey), nil
}

// contentKey loads the AES key from the keychain, creating it on first
// use. Returns false when the keychain is unusable on this platform.
func (s *Store) contentKey() ([]byte, bool) {
	b64, err := keyring.Get(keyringService, keyringUser)
	if err == nil {
		key, decErr := base64.StdEncoding.DecodeString(b64)
		if decErr != nil || len(key) != 32 {
			return nil, false
		}
		return key, true
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		return nil, false
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false
	}
	if err := keyring.Set(keyringService, keyringUser, base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, false
	}
	return key, true
}

// seal encrypts plaintext with AES-GCM; the nonce is prepended.
func seal(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// open decrypts a nonce-prefixed AES-GCM ciphertext.
func open(key, sealed []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
