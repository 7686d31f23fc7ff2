package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/quoted/internal/logging"
	"github.com/fyrsmithlabs/quoted/internal/quote"
)

const (
	// userCookie carries the caller identity across requests. Anonymous
	// visitors get a generated "anon-" value on first contact.
	userCookie = "userId"

	// anonPrefix marks generated anonymous identities.
	anonPrefix = "anon-"

	cookieMaxAge = 365 * 24 * time.Hour

	actorContextKey = "quoted.actor"
)

// sessionMiddleware resolves the caller identity once per request. A missing
// cookie mints a new anonymous session id and sets it on the response;
// everything downstream reads the resolved Actor from the request context.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var id string
		if cookie, err := c.Cookie(userCookie); err == nil {
			id = strings.TrimSpace(cookie.Value)
		}
		if id == "" {
			id = anonPrefix + uuid.NewString()
			c.SetCookie(&http.Cookie{
				Name:     userCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(cookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		var actor quote.Actor
		if strings.HasPrefix(id, anonPrefix) {
			actor = quote.AnonymousActor(id)
		} else {
			actor = quote.AuthenticatedActor(id)
		}

		c.Set(actorContextKey, actor)
		c.SetRequest(c.Request().WithContext(
			logging.WithActor(c.Request().Context(), actor.String())))
		return next(c)
	}
}

// requestActor returns the identity resolved by sessionMiddleware.
func requestActor(c echo.Context) quote.Actor {
	if a, ok := c.Get(actorContextKey).(quote.Actor); ok {
		return a
	}
	return quote.Actor{}
}
