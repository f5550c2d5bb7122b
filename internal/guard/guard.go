// Package guard gates navigation on session state. Guards are stateless:
// each consults the session store (forcing a fresh status check), returns an
// allow/redirect decision, and never mutates the store beyond that one
// status or refresh call.
package guard

import (
	"context"
	"strings"

	"github.com/wttnguyen/draftolio/internal/api"
	"github.com/wttnguyen/draftolio/internal/routes"
)

// adminMarker is the substring that marks an authority as administrative
// (matches "ROLE_ADMIN" and bare "ADMIN" grants).
const adminMarker = "ADMIN"

// Session is the read side of the session store guards consult.
type Session interface {
	CheckStatus(ctx context.Context) (api.AuthStatus, error)
	IsAuthenticated() bool
	IsTokenExpiringSoon() bool
	RefreshToken(ctx context.Context) error
}

// Decision is the outcome of a guard: either the navigation proceeds, or the
// shell redirects to Redirect.
type Decision struct {
	Allowed  bool
	Redirect string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func redirect(to string) Decision {
	return Decision{Redirect: to}
}

// RequireAuth allows navigation only for authenticated callers. Denials
// redirect to login carrying the originally requested path.
func RequireAuth(ctx context.Context, sess Session, target string) Decision {
	status, err := sess.CheckStatus(ctx)
	if err != nil || !status.Authenticated {
		return redirect(routes.LoginWithReturn(target))
	}
	return allow()
}

// GuestOnly is the inverse of RequireAuth: it keeps authenticated users away
// from guest pages, sending them to the stored return target or home.
func GuestOnly(ctx context.Context, sess Session, returnURL string) Decision {
	status, err := sess.CheckStatus(ctx)
	if err != nil || !status.Authenticated {
		return allow()
	}
	if returnURL == "" {
		returnURL = routes.Home
	}
	return redirect(returnURL)
}

// RequireAdmin allows navigation only for authenticated callers holding an
// admin authority. Unauthenticated callers go to login; authenticated
// callers without the privilege go to the unauthorized page, not to login.
func RequireAdmin(ctx context.Context, sess Session, target string) Decision {
	status, err := sess.CheckStatus(ctx)
	if err != nil || !status.Authenticated {
		return redirect(routes.LoginWithReturn(target))
	}
	for _, authority := range status.Authorities {
		if strings.Contains(strings.ToUpper(authority), adminMarker) {
			return allow()
		}
	}
	return redirect(routes.Unauthorized)
}

// RequireRegion builds a guard allowing only users whose region code is in
// the allow-list (case-insensitive). Denials for authenticated users carry
// the attempted region and the allow-list as query context.
func RequireRegion(allowed []string) func(ctx context.Context, sess Session, target string) Decision {
	return func(ctx context.Context, sess Session, target string) Decision {
		status, err := sess.CheckStatus(ctx)
		if err != nil || !status.Authenticated {
			return redirect(routes.LoginWithReturn(target))
		}
		if status.CPID != "" {
			for _, region := range allowed {
				if strings.EqualFold(region, status.CPID) {
					return allow()
				}
			}
		}
		return redirect(routes.RegionRestrictedWith(status.CPID, allowed))
	}
}

// RequireFreshToken allows navigation only when the access token is not
// about to expire, attempting one refresh when it is. A failed refresh
// denies navigation; the store's own 401 handling covers the session-clear
// side effect.
func RequireFreshToken(ctx context.Context, sess Session, target string) Decision {
	if !sess.IsAuthenticated() {
		return redirect(routes.LoginWithReturn(target))
	}
	if !sess.IsTokenExpiringSoon() {
		return allow()
	}
	if err := sess.RefreshToken(ctx); err != nil {
		return redirect(routes.LoginWithReturn(target))
	}
	return allow()
}
