// Package mockrso is a self-contained stand-in for the Draftolio backend,
// used for local development and end-to-end tests. It speaks the same auth
// and draft API surface: cookie sessions, CSRF double-submit, short-lived
// HS256 access tokens, and the draft CRUD endpoints.
package mockrso

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/wttnguyen/draftolio/internal/drafts"
)

const (
	sessionCookie = "DRAFTOLIO_SESSION"
	csrfCookie    = "XSRF-TOKEN"
	csrfHeader    = "X-XSRF-TOKEN"
	userIDHeader  = "X-User-Id"

	mockSubject     = "mock_user_12345"
	mockCPID        = "NA1"
	mockDisplayName = "Mock Summoner"

	accessTokenTTL = 10 * time.Minute
)

// tokenClaims is the mock access token payload.
type tokenClaims struct {
	CPID string `json:"cpid"`
	jwt.RegisteredClaims
}

// session is one logged-in mock session.
type session struct {
	userID      string
	subject     string
	cpid        string
	authorities []string
	accessToken string
	expiresAt   time.Time
	csrfToken   string
	createdAt   time.Time
	lastLoginAt time.Time
}

// Server is the mock backend.
type Server struct {
	router   *gin.Engine
	logger   zerolog.Logger
	validate *validator.Validate
	secret   []byte
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	drafts   map[string]*drafts.Draft
	owners   map[string]string // draft id -> owner user id
	spectate map[string]string // spectate token -> draft id
}

// New creates a mock backend server.
func New(zlog zerolog.Logger) *Server {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(fmt.Sprintf("failed to generate mock signing secret: %v", err))
	}

	s := &Server{
		logger:   zlog,
		validate: validator.New(),
		secret:   secret,
		now:      time.Now,
		sessions: make(map[string]*session),
		drafts:   make(map[string]*drafts.Draft),
		owners:   make(map[string]string),
		spectate: make(map[string]string),
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.csrfMiddleware())

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "online", "service": "mock-rso"})
	})

	s.router.GET("/auth/login", s.login)
	s.router.GET("/auth/status", s.authStatus)
	s.router.GET("/auth/user/me", s.currentUser)
	s.router.POST("/auth/logout", s.logout)
	s.router.POST("/auth/refresh", s.refresh)

	api := s.router.Group("/api/v1/drafts")
	{
		api.POST("", s.createDraft)
		api.GET("/modes", s.listModes)
		api.GET("/spectate/:token", s.spectateDraft)
		api.GET("/user/:userId", s.listUserDrafts)
		api.GET("/user/:userId/active-count", s.activeDraftCount)
		api.GET("/:id", s.getDraft)
		api.POST("/:id/spectate", s.generateSpectateURL)
	}
}

// Handler exposes the router for httptest servers and the serve command.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Mock backend request")
	}
}

// csrfMiddleware enforces the double-submit cookie pattern the real backend
// uses: mutating requests on an authenticated session must echo the CSRF
// cookie in the X-XSRF-TOKEN header.
func (s *Server) csrfMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		sess := s.sessionFor(c)
		if sess == nil {
			// No session means nothing to forge.
			c.Next()
			return
		}
		if c.GetHeader(csrfHeader) != sess.csrfToken {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Invalid CSRF token"})
			return
		}
		c.Next()
	}
}

func (s *Server) sessionFor(c *gin.Context) *session {
	id, err := c.Cookie(sessionCookie)
	if err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// login skips the real authorization-code dance: it establishes the session
// immediately and returns its own status URL as the "authorization URL", so a
// client that navigates there lands on an authenticated response.
// Pass ?admin=1 to grant the admin role.
func (s *Server) login(c *gin.Context) {
	now := s.now()
	authorities := []string{"ROLE_USER"}
	if c.Query("admin") == "1" {
		authorities = append(authorities, "ROLE_ADMIN")
	}

	token, expiresAt, err := s.signToken(now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue access token"})
		return
	}

	sess := &session{
		userID:      ulid.Make().String(),
		subject:     mockSubject,
		cpid:        mockCPID,
		authorities: authorities,
		accessToken: token,
		expiresAt:   expiresAt,
		csrfToken:   ulid.Make().String(),
		createdAt:   now,
		lastLoginAt: now,
	}
	id := ulid.Make().String()

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	c.SetCookie(sessionCookie, id, 3600, "/", "", false, true)
	c.SetCookie(csrfCookie, sess.csrfToken, 3600, "/", "", false, false)

	c.JSON(http.StatusOK, gin.H{"authorizationUrl": "/auth/status"})
}

func (s *Server) signToken(now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(accessTokenTTL)
	claims := tokenClaims{
		CPID: mockCPID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   mockSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// tokenValid reports whether the session's access token still verifies. The
// session cookie can outlive the token, which is exactly the state the
// refresh endpoint exists for.
func (s *Server) tokenValid(sess *session) bool {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(sess.accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	return err == nil
}

func (s *Server) authStatus(c *gin.Context) {
	sess := s.sessionFor(c)
	if sess == nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "message": "Not authenticated"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"subject":       sess.subject,
		"cpid":          sess.cpid,
		"authorities":   sess.authorities,
	})
}

func (s *Server) currentUser(c *gin.Context) {
	sess := s.sessionFor(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}
	if !s.tokenValid(sess) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Access token expired"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          sess.userID,
		"subject":     sess.subject,
		"cpid":        sess.cpid,
		"displayName": mockDisplayName,
		"email":       "mock@example.com",
		"active":      true,
		"createdAt":   sess.createdAt,
		"updatedAt":   sess.createdAt,
		"lastLoginAt": sess.lastLoginAt,
		"authenticationInfo": gin.H{
			"authenticated":        true,
			"accessTokenExpiresAt": sess.expiresAt,
			"scopes":               []string{"openid", "cpid", "offline_access"},
			"provider":             "mock-rso",
		},
	})
}

func (s *Server) logout(c *gin.Context) {
	if id, err := c.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
	}

	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.SetCookie(csrfCookie, "", -1, "/", "", false, false)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully", "redirectUrl": "/"})
}

func (s *Server) refresh(c *gin.Context) {
	sess := s.sessionFor(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}

	token, expiresAt, err := s.signToken(s.now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue access token"})
		return
	}

	s.mu.Lock()
	sess.accessToken = token
	sess.expiresAt = expiresAt
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"message": "Token refreshed successfully", "expiresAt": expiresAt})
}

// callerID resolves who is making a draft request: the session user when one
// exists, otherwise the placeholder X-User-Id header.
func (s *Server) callerID(c *gin.Context) (string, bool) {
	if sess := s.sessionFor(c); sess != nil {
		if !s.tokenValid(sess) {
			return "", false
		}
		return sess.userID, true
	}
	if id := c.GetHeader(userIDHeader); id != "" {
		return id, true
	}
	return "", false
}

func (s *Server) createDraft(c *gin.Context) {
	owner, ok := s.callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}

	var req drafts.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if req.BanPhaseTimerDuration == 0 {
		req.BanPhaseTimerDuration = 30
	}
	if req.PickPhaseTimerDuration == 0 {
		req.PickPhaseTimerDuration = 30
	}

	now := s.now()
	id := ulid.Make().String()
	token := ulid.Make().String()
	draft := &drafts.Draft{
		ID:                     id,
		Name:                   req.Name,
		Description:            req.Description,
		BlueTeamName:           req.BlueTeamName,
		RedTeamName:            req.RedTeamName,
		Status:                 drafts.StatusCreated,
		Mode:                   req.Mode,
		BlueSideTeamID:         req.BlueSideTeamID,
		RedSideTeamID:          req.RedSideTeamID,
		CurrentPhase:           drafts.PhaseBan1,
		GameNumber:             1,
		BanPhaseTimerDuration:  req.BanPhaseTimerDuration,
		PickPhaseTimerDuration: req.PickPhaseTimerDuration,
		SpectateURL:            "/spectate/" + token,
		BlueCaptainURL:         "/draft/" + id + "/blue/" + ulid.Make().String(),
		RedCaptainURL:          "/draft/" + id + "/red/" + ulid.Make().String(),
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	s.mu.Lock()
	s.drafts[id] = draft
	s.owners[id] = owner
	s.spectate[token] = id
	s.mu.Unlock()

	c.JSON(http.StatusCreated, draft)
}

func (s *Server) getDraft(c *gin.Context) {
	if _, ok := s.callerID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}

	s.mu.Lock()
	draft := s.drafts[c.Param("id")]
	s.mu.Unlock()

	if draft == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Draft not found"})
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (s *Server) listUserDrafts(c *gin.Context) {
	if _, ok := s.callerID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}

	userID := c.Param("userId")
	out := []*drafts.Draft{}

	s.mu.Lock()
	for id, owner := range s.owners {
		if owner == userID {
			out = append(out, s.drafts[id])
		}
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, out)
}

func (s *Server) activeDraftCount(c *gin.Context) {
	if _, ok := s.callerID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}

	userID := c.Param("userId")
	count := 0

	s.mu.Lock()
	for id, owner := range s.owners {
		if owner != userID {
			continue
		}
		switch s.drafts[id].Status {
		case drafts.StatusCreated, drafts.StatusInProgress:
			count++
		}
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"activeCount": count})
}

// spectateDraft is public: spectate links work without any session.
func (s *Server) spectateDraft(c *gin.Context) {
	s.mu.Lock()
	id, ok := s.spectate[c.Param("token")]
	draft := s.drafts[id]
	s.mu.Unlock()

	if !ok || draft == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Draft not found"})
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (s *Server) generateSpectateURL(c *gin.Context) {
	if _, ok := s.callerID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}

	id := c.Param("id")
	token := ulid.Make().String()

	s.mu.Lock()
	draft := s.drafts[id]
	if draft != nil {
		s.spectate[token] = id
		draft.SpectateURL = "/spectate/" + token
	}
	s.mu.Unlock()

	if draft == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Draft not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"spectateUrl": draft.SpectateURL, "message": "Spectate URL generated"})
}

func (s *Server) listModes(c *gin.Context) {
	c.JSON(http.StatusOK, drafts.Modes())
}

// ExpireAccessToken invalidates every session's access token while leaving
// the session cookies valid. Tests use it to exercise the refresh-and-retry
// path.
func (s *Server) ExpireAccessToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.accessToken = "expired"
		sess.expiresAt = s.now().Add(-time.Minute)
	}
}

// Start runs the mock backend until the process is interrupted.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 30 * time.Second,
	}
	s.logger.Info().Str("addr", addr).Msg("Starting mock RSO backend")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
