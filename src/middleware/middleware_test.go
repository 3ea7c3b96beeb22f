package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"invoicepay-server/src/session"
	"invoicepay-server/src/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionHandler(t *testing.T, h http.HandlerFunc) (http.Handler, *session.MemoryStore, *session.Codec) {
	store, err := session.NewMemoryStore(1 << 20)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	codec, err := session.NewCodec("a-very-long-test-secret")
	require.NoError(t, err)
	mw := SessionMiddleware(store, codec, SessionOptions{TTL: time.Hour})
	return mw(h), store, codec
}

func TestSessionMiddleware_persistsState(t *testing.T) {
	handler, store, codec := newSessionHandler(t, func(w http.ResponseWriter, r *http.Request) {
		st := workflow.FromContext(r.Context())
		if r.URL.Path == "/set" {
			st.Set(workflow.SlotInvoiceID, "in_1")
		}
		w.Write([]byte(st.InvoiceID))
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/set", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	id, err := codec.Decode(cookies[0].Value)
	require.NoError(t, err)
	st, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "in_1", st.InvoiceID)

	req := httptest.NewRequest("GET", "/get", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "in_1", rec.Body.String())
}

func TestSessionMiddleware_tamperedCookieStartsFresh(t *testing.T) {
	var seenID string
	handler, _, _ := newSessionHandler(t, func(w http.ResponseWriter, r *http.Request) {
		seenID = SessionID(r.Context())
		w.Write([]byte(workflow.FromContext(r.Context()).InvoiceID))
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "forged"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, seenID)
	assert.Empty(t, rec.Body.String())
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware([]string{"https://pay.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/user/get_link_token", nil)
	req.Header.Set("Origin", "https://pay.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://pay.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodPost, "/user/get_link_token", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSessionMiddleware_emptySessionNotStored(t *testing.T) {
	handler, store, codec := newSessionHandler(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	id, err := codec.Decode(cookies[0].Value)
	require.NoError(t, err)
	_, err = store.Load(context.Background(), id)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

type flakyStore struct {
	session.Store
	loadErr error
}

func (s *flakyStore) Load(ctx context.Context, id string) (*workflow.State, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.Store.Load(ctx, id)
}

func TestSessionMiddleware_loadFailureKeepsStoredState(t *testing.T) {
	mem, err := session.NewMemoryStore(1 << 20)
	require.NoError(t, err)
	t.Cleanup(mem.Close)
	codec, err := session.NewCodec("a-very-long-test-secret")
	require.NoError(t, err)

	ctx := context.Background()
	id := session.NewID()
	require.NoError(t, mem.Save(ctx, id, &workflow.State{AccessToken: "access-sandbox-1", InvoiceID: "in_1"}, time.Hour))
	value, err := codec.Encode(id, time.Hour)
	require.NoError(t, err)

	store := &flakyStore{Store: mem, loadErr: errors.New("conn reset by peer")}
	called := false
	handler := SessionMiddleware(store, codec, SessionOptions{TTL: time.Hour})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		workflow.FromContext(r.Context()).Set(workflow.SlotLinkToken, "link-2")
	}))

	req := httptest.NewRequest(http.MethodPost, "/user/get_link_token", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: value})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, called)

	st, err := mem.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "access-sandbox-1", st.AccessToken)
	assert.Equal(t, "in_1", st.InvoiceID)
	assert.Empty(t, st.LinkToken)

	store.loadErr = nil
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.True(t, called)
	st, err = mem.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "access-sandbox-1", st.AccessToken)
	assert.Equal(t, "link-2", st.LinkToken)
}
