package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	authmw "github.com/mind-engage/mindengage-studycentre/internal/auth/middleware"
	"github.com/mind-engage/mindengage-studycentre/internal/rbac"
)

const (
	guestCookie = "sc_guest_id"
	guestPrefix = "guest|"
	guestMaxAge = 30 * 24 * time.Hour
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Subject     string `json:"subject"`
	Role        string `json:"role"`
}

// GuestLoginHandler issues a learner token. A browser that already holds a guest
// cookie keeps its identity, so its open widget sessions remain reachable.
func GuestLoginHandler(a *authmw.AuthService, enabled, secureCookie bool, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !enabled {
			http.Error(w, "guest auth disabled", http.StatusForbidden)
			return
		}

		sub := ""
		if c, err := r.Cookie(guestCookie); err == nil && validGuest(c.Value) {
			sub = c.Value
		} else {
			sub = guestPrefix + uuid.NewString()
			log.Debug("guest created", zap.String("subject", sub))
		}

		tok, err := a.IssueJWT(sub, rbac.RoleLearner)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		cookie := &http.Cookie{
			Name:     guestCookie,
			Value:    sub,
			Path:     "/",
			HttpOnly: true,
			Secure:   secureCookie,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(guestMaxAge),
		}
		if secureCookie {
			cookie.SameSite = http.SameSiteNoneMode
		}
		http.SetCookie(w, cookie)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: tok, Subject: sub, Role: rbac.RoleLearner})
	}
}

func validGuest(v string) bool {
	id, ok := strings.CutPrefix(v, guestPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
