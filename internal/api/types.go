package api

import "time"

// AuthStatus is the lightweight poll result from GET /auth/status. It is
// transient: guards decide on it and the session store uses it to decide
// whether a full user fetch is worth issuing.
type AuthStatus struct {
	Authenticated bool     `json:"authenticated"`
	Subject       string   `json:"subject,omitempty"`
	CPID          string   `json:"cpid,omitempty"`
	Authorities   []string `json:"authorities,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// AuthInfo is the nested authentication block on the full user record.
type AuthInfo struct {
	Authenticated        bool       `json:"authenticated"`
	AccessTokenExpiresAt *time.Time `json:"accessTokenExpiresAt,omitempty"`
	Scopes               []string   `json:"scopes,omitempty"`
	Provider             string     `json:"provider,omitempty"`
}

// User is the full profile from GET /auth/user/me. Immutable snapshot,
// replaced wholesale on each successful fetch.
type User struct {
	ID          string     `json:"id" validate:"required"`
	Subject     string     `json:"subject" validate:"required"`
	CPID        string     `json:"cpid,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
	Email       string     `json:"email,omitempty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	AuthInfo    AuthInfo   `json:"authenticationInfo"`
}

// loginResponse is the payload from GET /auth/login.
type loginResponse struct {
	AuthorizationURL string `json:"authorizationUrl"`
	Error            string `json:"error,omitempty"`
}

// LogoutResponse is the payload from POST /auth/logout.
type LogoutResponse struct {
	Message     string `json:"message,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
}

// RefreshResponse is the payload from POST /auth/refresh.
type RefreshResponse struct {
	Message   string    `json:"message,omitempty"`
	ExpiresAt time.Time `json:"expiresAt" validate:"required"`
}

// activeCountResponse is the payload from the active-draft-count endpoint.
type activeCountResponse struct {
	ActiveCount int `json:"activeCount"`
}
