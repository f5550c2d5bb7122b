package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wttnguyen/draftolio/internal/api/apierror"
	"github.com/wttnguyen/draftolio/internal/drafts"
	"github.com/wttnguyen/draftolio/internal/guard"
	"github.com/wttnguyen/draftolio/internal/routes"
)

// respondError maps a backend failure to an HTTP response, preserving the
// backend's status where one exists.
func (s *Server) respondError(c *gin.Context, err error) {
	status := apierror.StatusOf(err)
	switch {
	case status > 0:
		c.JSON(status, gin.H{"message": apierror.UserMessage(err)})
	case apierror.IsNetwork(err):
		c.JSON(http.StatusBadGateway, gin.H{"message": apierror.UserMessage(err)})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
}

// Pages. These return the data each view renders from; guards have already
// run by the time a handler executes.

func (s *Server) homePage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":        "home",
		"session":     s.session.Snapshot(),
		"displayName": s.session.DisplayName(),
	})
}

// loginPage applies the guest-only guard inline: an already-authenticated
// visitor is bounced back to where they came from.
func (s *Server) loginPage(c *gin.Context) {
	decision := guard.GuestOnly(c.Request.Context(), s.session, c.Query(routes.ParamReturnURL))
	if !decision.Allowed {
		c.Redirect(http.StatusFound, decision.Redirect)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":      "login",
		"returnUrl": c.Query(routes.ParamReturnURL),
	})
}

func (s *Server) unauthorizedPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "unauthorized", "message": "Access denied"})
}

func (s *Server) regionRestrictedPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":           "region-restricted",
		"userRegion":     c.Query(routes.ParamUserRegion),
		"allowedRegions": c.Query(routes.ParamAllowedRegions),
	})
}

func (s *Server) dashboardPage(c *gin.Context) {
	payload := gin.H{
		"page":        "dashboard",
		"session":     s.session.Snapshot(),
		"displayName": s.session.DisplayName(),
	}
	if s.cache != nil {
		if recent, err := s.cache.Recent(10); err == nil {
			payload["recentDrafts"] = recent
		}
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) profilePage(c *gin.Context) {
	user, err := s.session.FetchCurrentUser(c.Request.Context())
	if err != nil {
		s.session.HandleAuthError(err)
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": "profile", "user": user})
}

func (s *Server) adminPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "admin", "session": s.session.Snapshot()})
}

func (s *Server) draftsPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "drafts", "session": s.session.Snapshot()})
}

func (s *Server) newDraftPage(c *gin.Context) {
	modes, err := s.client.ListModes(c.Request.Context())
	if err != nil {
		// Mode metadata is static enough to fall back to the built-in set.
		modes = drafts.Modes()
	}
	c.JSON(http.StatusOK, gin.H{"page": "drafts-new", "modes": modes})
}

// Session operations.

func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"session":       s.session.Snapshot(),
		"displayName":   s.session.DisplayName(),
		"notifications": s.notifier.Active(),
	})
}

func (s *Server) startLogin(c *gin.Context) {
	authURL, err := s.session.Login(c.Request.Context(), c.Query(routes.ParamReturnURL))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

func (s *Server) doLogout(c *gin.Context) {
	// Local state is always cleared; a backend failure is not surfaced as
	// an error to the caller. The shell navigates to the returned route.
	redirect, _ := s.session.Logout(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Logged out", "redirectUrl": redirect})
}

func (s *Server) doRefresh(c *gin.Context) {
	if err := s.session.RefreshToken(c.Request.Context()); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Token refreshed"})
}

// Draft operations.

func (s *Server) createDraft(c *gin.Context) {
	var req drafts.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	draft, err := s.client.CreateDraft(c.Request.Context(), req)
	if err != nil {
		s.session.HandleAuthError(err)
		s.respondError(c, err)
		return
	}

	s.recordDraft(draft)
	draft.SpectateURL = drafts.AbsoluteURL(s.config.Backend.Origin, draft.SpectateURL)
	c.JSON(http.StatusCreated, draft)
}

func (s *Server) getDraft(c *gin.Context) {
	draft, err := s.client.GetDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.session.HandleAuthError(err)
		s.respondError(c, err)
		return
	}

	s.recordDraft(draft)
	c.JSON(http.StatusOK, draft)
}

func (s *Server) recentDrafts(c *gin.Context) {
	if s.cache == nil {
		c.JSON(http.StatusOK, gin.H{"drafts": []any{}})
		return
	}

	recent, err := s.cache.Recent(20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"drafts": recent})
}

func (s *Server) listModes(c *gin.Context) {
	modes, err := s.client.ListModes(c.Request.Context())
	if err != nil {
		modes = drafts.Modes()
	}
	c.JSON(http.StatusOK, modes)
}

func (s *Server) spectateDraft(c *gin.Context) {
	draft, err := s.client.GetDraftBySpectateToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (s *Server) generateSpectateURL(c *gin.Context) {
	link, err := s.client.GenerateSpectateURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.session.HandleAuthError(err)
		s.respondError(c, err)
		return
	}

	link.SpectateURL = drafts.AbsoluteURL(s.config.Backend.Origin, link.SpectateURL)
	c.JSON(http.StatusOK, link)
}

func (s *Server) recordDraft(d *drafts.Draft) {
	if s.cache == nil || d == nil {
		return
	}
	if err := s.cache.Record(d); err != nil {
		s.logger.Warn().Err(err).Str("draft_id", d.ID).Msg("Failed to cache draft")
	}
}
