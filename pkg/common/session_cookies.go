package common

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/matst80/slask-storefront/pkg/types"
)

func generateSessionId() int {
	return int(time.Now().UnixNano())
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, sessionId int) {
	host := r.Host
	if h, _, found := strings.Cut(host, ":"); found {
		host = h
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "sid",
		Value:    fmt.Sprintf("%d", sessionId),
		Domain:   strings.TrimPrefix(host, "."),
		SameSite: http.SameSiteNoneMode,
		Secure:   true,
		HttpOnly: true,
		MaxAge:   2592000,
		Path:     "/",
	})
}

func HandleSessionCookie(tracking types.Tracking, w http.ResponseWriter, r *http.Request) int {
	c, err := r.Cookie("sid")
	if err == nil {
		if sessionId, err := strconv.Atoi(c.Value); err == nil {
			return sessionId
		}
	}
	sessionId := generateSessionId()
	if tracking != nil {
		go tracking.TrackSession(sessionId, r)
	}
	setSessionCookie(w, r, sessionId)
	return sessionId
}
