package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// StateCookieName carries the sealed login state between the login
	// redirect and the callback.
	StateCookieName = "recipe_oidc_state"
	// StateCookieMaxAge bounds how long a login may take, in seconds.
	StateCookieMaxAge = 5 * 60
)

// Login state failures. All of them mean the callback did not come from a
// login this browser started.
var (
	ErrStateMissing  = errors.New("login state cookie missing")
	ErrStateInvalid  = errors.New("login state cookie invalid")
	ErrStateExpired  = errors.New("login state expired")
	ErrStateMismatch = errors.New("login state mismatch")
)

// StateData is what a login needs on both legs: the state echoed back in
// the callback and the nonce expected inside the ID token.
type StateData struct {
	State    string `json:"s"`
	Nonce    string `json:"n"`
	IssuedAt int64  `json:"iat"`
}

// StateStore keeps login state in an AES-GCM sealed cookie, so the server
// holds nothing between the two legs.
type StateStore struct {
	aead   cipher.AEAD
	secure bool
	now    func() time.Time
}

// NewStateStore creates a state store keyed by a 32-byte secret.
// Secure marks the cookie HTTPS-only.
func NewStateStore(key []byte, secure bool) (*StateStore, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("state store key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	return &StateStore{aead: aead, secure: secure, now: time.Now}, nil
}

// Begin starts a login. It sets the state cookie and returns the values to
// put in the authorization URL.
func (ss *StateStore) Begin(w http.ResponseWriter) (*StateData, error) {
	state, err := GenerateSecureString(32)
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}
	nonce, err := GenerateSecureString(32)
	if err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	data := &StateData{State: state, Nonce: nonce, IssuedAt: ss.now().Unix()}
	sealed, err := ss.seal(data)
	if err != nil {
		return nil, err
	}

	ss.setCookie(w, sealed, StateCookieMaxAge)
	return data, nil
}

// Consume finishes a login. It checks the callback's state against the
// cookie and clears the cookie whatever the outcome, so the browser does
// not present the same state twice.
func (ss *StateStore) Consume(w http.ResponseWriter, r *http.Request, state string) (*StateData, error) {
	cookie, err := r.Cookie(StateCookieName)
	if err != nil {
		return nil, ErrStateMissing
	}
	ss.setCookie(w, "", -1)

	data, err := ss.open(cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateInvalid, err)
	}
	if ss.now().Sub(time.Unix(data.IssuedAt, 0)) > StateCookieMaxAge*time.Second {
		return nil, ErrStateExpired
	}
	if state == "" || !ConstantTimeCompare(data.State, state) {
		return nil, ErrStateMismatch
	}
	return data, nil
}

func (ss *StateStore) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    value,
		Path:     "/user/oidc",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   ss.secure,
	})
}

// seal encrypts data, binding it to the cookie name so a value sealed for
// another purpose under the same key does not open here.
func (ss *StateStore) seal(data *StateData) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshaling state: %w", err)
	}

	nonce := make([]byte, ss.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating cipher nonce: %w", err)
	}

	sealed := ss.aead.Seal(nonce, nonce, plaintext, []byte(StateCookieName))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// open reverses seal.
func (ss *StateStore) open(encoded string) (*StateData, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	size := ss.aead.NonceSize()
	if len(sealed) < size {
		return nil, errors.New("short ciphertext")
	}

	plaintext, err := ss.aead.Open(nil, sealed[:size], sealed[size:], []byte(StateCookieName))
	if err != nil {
		return nil, err
	}

	var data StateData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
