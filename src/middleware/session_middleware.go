package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"invoicepay-server/src/session"
	"invoicepay-server/src/workflow"
)

const SessionCookieName = "sessionid"

type SessionOptions struct {
	TTL    time.Duration
	Secure bool
}

type sessionIDKey struct{}

// SessionID returns the id of the request's session.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// SessionMiddleware builds the workflow state at request entry and saves it
// back when the handler returns. The cookie and any stored entry are
// refreshed on every request; sessions that never held state are not stored.
func SessionMiddleware(store session.Store, codec *session.Codec, opts SessionOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, st, existed, err := loadSession(r, store, codec)
			if err != nil {
				// Saving over a session we could not read would wipe it.
				log.Printf("ERROR: Failed to load session %s: %v", id, err)
				http.Error(w, "session temporarily unavailable", http.StatusServiceUnavailable)
				return
			}

			value, err := codec.Encode(id, opts.TTL)
			if err != nil {
				log.Printf("ERROR: Failed to sign session cookie: %v", err)
				http.Error(w, "something went wrong", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    value,
				Path:     "/",
				MaxAge:   int(opts.TTL.Seconds()),
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), sessionIDKey{}, id)
			ctx = workflow.NewContext(ctx, st)
			next.ServeHTTP(w, r.WithContext(ctx))

			if !existed && !st.Dirty() {
				return
			}
			// The request context may already be cancelled once the client
			// went away; the state still has to be written.
			if err := store.Save(context.WithoutCancel(r.Context()), id, st, opts.TTL); err != nil {
				log.Printf("ERROR: Failed to save session %s: %v", id, err)
			}
		})
	}
}

// loadSession reports whether the session already had stored state. A
// missing or invalid cookie starts a new session; a store failure is returned.
func loadSession(r *http.Request, store session.Store, codec *session.Codec) (string, *workflow.State, bool, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return session.NewID(), &workflow.State{}, false, nil
	}
	id, err := codec.Decode(cookie.Value)
	if err != nil {
		return session.NewID(), &workflow.State{}, false, nil
	}
	st, err := store.Load(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		return id, &workflow.State{}, false, nil
	}
	if err != nil {
		return id, nil, false, err
	}
	return id, st, true, nil
}
