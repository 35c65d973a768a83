package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"

	"orderdesk/internal/model"
)

type userKey struct{}

// currentUser returns the authenticated user placed in the context by
// the authenticate middleware, or nil on unauthenticated routes.
func currentUser(r *http.Request) *model.User {
	u, _ := r.Context().Value(userKey{}).(*model.User)
	return u
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return header[len(prefix):]
}

// authenticate requires a valid bearer token and stores the user in the
// request context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			h.writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		user, err := h.authSvc.Authenticate(r.Context(), token)
		if err != nil {
			h.respondError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticateOptional resolves the user when a token is present but
// lets anonymous requests through. Used by open registration, where an
// admin token unlocks the admin flag.
func (h *Handler) authenticateOptional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := h.authSvc.Authenticate(r.Context(), token)
		if err != nil {
			h.respondError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// compressBrotli serves brotli-encoded responses to clients that accept
// them.
func compressBrotli(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "br") {
			next.ServeHTTP(w, r)
			return
		}

		bw := brotli.NewWriter(w)
		defer bw.Close()

		w.Header().Set("Content-Encoding", "br")
		w.Header().Add("Vary", "Accept-Encoding")
		next.ServeHTTP(&brotliResponseWriter{ResponseWriter: w, writer: bw}, r)
	})
}

type brotliResponseWriter struct {
	http.ResponseWriter
	writer io.Writer
}

func (w *brotliResponseWriter) Write(p []byte) (int, error) {
	return w.writer.Write(p)
}
