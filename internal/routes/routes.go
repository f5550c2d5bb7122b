// Package routes holds the navigation targets shared by the guards and the
// gateway, plus the query parameters carried on guard redirects.
package routes

import (
	"net/url"
	"strings"
)

// Page routes known to the client shell.
const (
	Home             = "/"
	Login            = "/login"
	Dashboard        = "/dashboard"
	Profile          = "/profile"
	Admin            = "/admin"
	Drafts           = "/drafts"
	NewDraft         = "/drafts/new"
	Unauthorized     = "/unauthorized"
	RegionRestricted = "/region-restricted"
)

// Query parameters attached to guard redirects.
const (
	ParamReturnURL      = "returnUrl"
	ParamUserRegion     = "userRegion"
	ParamAllowedRegions = "allowedRegions"
)

// LoginWithReturn builds the login route carrying the originally requested
// path so the shell can navigate back after authentication.
func LoginWithReturn(target string) string {
	if target == "" {
		return Login
	}
	q := url.Values{}
	q.Set(ParamReturnURL, target)
	return Login + "?" + q.Encode()
}

// RegionRestrictedWith builds the region-restriction route carrying the
// attempted region and the allow-list as query context.
func RegionRestrictedWith(userRegion string, allowed []string) string {
	q := url.Values{}
	q.Set(ParamUserRegion, userRegion)
	q.Set(ParamAllowedRegions, strings.Join(allowed, ","))
	return RegionRestricted + "?" + q.Encode()
}
