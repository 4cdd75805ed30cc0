package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStateKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

// callbackWith builds a callback request carrying the cookies set by rr.
func callbackWith(rr *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/user/oidc/callback", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestNewStateStore_KeyLength(t *testing.T) {
	_, err := NewStateStore([]byte("short"), false)
	assert.Error(t, err)

	_, err = NewStateStore(testStateKey(), false)
	assert.NoError(t, err)
}

func TestStateStore_BeginAndConsume(t *testing.T) {
	ss, err := NewStateStore(testStateKey(), true)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	data, err := ss.Begin(rr)
	require.NoError(t, err)
	assert.NotEmpty(t, data.State)
	assert.NotEmpty(t, data.Nonce)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, StateCookieName, cookies[0].Name)
	assert.Equal(t, "/user/oidc", cookies[0].Path)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	out := httptest.NewRecorder()
	got, err := ss.Consume(out, callbackWith(rr), data.State)
	require.NoError(t, err)
	assert.Equal(t, data.Nonce, got.Nonce)

	cleared := out.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestStateStore_ConsumeFailures(t *testing.T) {
	ss, err := NewStateStore(testStateKey(), false)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	data, err := ss.Begin(rr)
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     *http.Request
		state   string
		wantErr error
	}{
		{"no cookie", httptest.NewRequest(http.MethodGet, "/", nil), data.State, ErrStateMissing},
		{"wrong state", callbackWith(rr), "some-other-state", ErrStateMismatch},
		{"empty state", callbackWith(rr), "", ErrStateMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ss.Consume(httptest.NewRecorder(), tt.req, tt.state)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStateStore_ClearsCookieOnFailure(t *testing.T) {
	ss, err := NewStateStore(testStateKey(), false)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	_, err = ss.Begin(rr)
	require.NoError(t, err)

	out := httptest.NewRecorder()
	_, err = ss.Consume(out, callbackWith(rr), "guess")
	require.Error(t, err)

	cleared := out.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestStateStore_RejectsForeignCookie(t *testing.T) {
	ss, err := NewStateStore(testStateKey(), false)
	require.NoError(t, err)

	other, err := NewStateStore([]byte("fedcba9876543210fedcba9876543210"), false)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	data, err := other.Begin(rr)
	require.NoError(t, err)

	_, err = ss.Consume(httptest.NewRecorder(), callbackWith(rr), data.State)
	assert.ErrorIs(t, err, ErrStateInvalid)
}

func TestStateStore_Expired(t *testing.T) {
	ss, err := NewStateStore(testStateKey(), false)
	require.NoError(t, err)

	start := time.Now()
	ss.now = func() time.Time { return start }

	rr := httptest.NewRecorder()
	data, err := ss.Begin(rr)
	require.NoError(t, err)

	ss.now = func() time.Time { return start.Add(StateCookieMaxAge*time.Second + time.Second) }

	_, err = ss.Consume(httptest.NewRecorder(), callbackWith(rr), data.State)
	assert.ErrorIs(t, err, ErrStateExpired)
}
