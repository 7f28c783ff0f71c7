package api

import (
	"net/http"

	"crashserver/config"
)

// The platform in front of this service owns authentication and forwards
// the verified identity in headers. Mutating endpoints require it; the
// read-only snapshot does not.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUsername = "X-Username"
)

// Identity extracts the authenticated user from the request, if any.
func Identity(r *http.Request) (userID, username string, ok bool) {
	userID = r.Header.Get(HeaderUserID)
	username = r.Header.Get(HeaderUsername)
	if userID == "" {
		return "", "", false
	}
	if username == "" {
		username = userID
	}
	return userID, username, true
}

// CORS adds permissive CORS headers and answers preflight requests.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", config.AllowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderUserID+", "+HeaderUsername)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
