package storage

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/pbkdf2"

	"github.com/felixgeelhaar/clubhub/internal/errors"
)

// Cookie names.
const (
	CookieAccessToken  = "access-token"
	CookieRefreshToken = "refresh-token"
)

const (
	secretSize       = 32
	kdfIterations    = 100000
	maxCookieAge     = 90 * 24 * time.Hour
	cookieSaltPrefix = "clubhub-cookie-jar"
)

// cookiePayload is what gets signed and encrypted for each cookie.
type cookiePayload struct {
	Value   string `json:"v"`
	Expires int64  `json:"e"`
}

// CookieJar stores named values with an explicit expiry. Values are signed and
// encrypted with keys derived from a per-install secret, so copying or editing
// the backing store yields absent cookies rather than forged ones.
type CookieJar struct {
	store Local
	codec *securecookie.SecureCookie
	now   func() time.Time
}

// NewCookieJar returns a jar persisting into store with keys derived from secret.
func NewCookieJar(store Local, secret []byte) *CookieJar {
	key := pbkdf2.Key(secret, []byte(cookieSaltPrefix), kdfIterations, 64, sha256.New)

	codec := securecookie.New(key[:32], key[32:]).
		MaxAge(int(maxCookieAge.Seconds())).
		MaxLength(0)
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &CookieJar{store: store, codec: codec, now: time.Now}
}

// LoadSecret reads the install secret at path, generating it on first use.
func LoadSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil && len(data) == secretSize {
		return data, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeStorageKeyFile, "failed to read cookie secret", err)
	}

	secret := make([]byte, secretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageKeyFile, "failed to generate cookie secret", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageKeyFile, "failed to create secret directory", err)
	}
	if err := os.WriteFile(path, secret, 0o600); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageKeyFile, "failed to write cookie secret", err)
	}
	return secret, nil
}

// Set stores value under name until expires. A past expiry removes the cookie.
func (j *CookieJar) Set(name, value string, expires time.Time) error {
	if !expires.After(j.now()) {
		return j.Remove(name)
	}

	encoded, err := j.codec.Encode(name, cookiePayload{Value: value, Expires: expires.Unix()})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, fmt.Sprintf("failed to encode cookie %s", name), err)
	}
	return j.store.Set(name, encoded)
}

// Get returns the cookie value and its expiry. Missing, expired or tampered
// cookies are reported as absent.
func (j *CookieJar) Get(name string) (string, time.Time, bool) {
	raw, ok, err := j.store.Get(name)
	if err != nil || !ok {
		return "", time.Time{}, false
	}

	var p cookiePayload
	if err := j.codec.Decode(name, raw, &p); err != nil {
		return "", time.Time{}, false
	}

	expires := time.Unix(p.Expires, 0)
	if !expires.After(j.now()) {
		return "", time.Time{}, false
	}
	return p.Value, expires, true
}

// Remove deletes one cookie.
func (j *CookieJar) Remove(name string) error {
	return j.store.Remove(name)
}

// Clear removes both token cookies together.
func (j *CookieJar) Clear() error {
	for _, name := range []string{CookieAccessToken, CookieRefreshToken} {
		if err := j.store.Remove(name); err != nil {
			return err
		}
	}
	return nil
}
