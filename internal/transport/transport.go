// Package transport is the interceptor chain applied to every outgoing API
// call: marker-header augmentation, CSRF cookie-to-header promotion, a
// bounded refresh-and-retry on 401, and structured failure logging. The
// layers are http.RoundTrippers so the whole chain installs as the API
// client's transport.
package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/wttnguyen/draftolio/internal/api/apierror"
)

const (
	markerHeader    = "X-Requested-With"
	markerValue     = "XMLHttpRequest"
	csrfCookieName  = "XSRF-TOKEN"
	csrfHeader      = "X-XSRF-TOKEN"
	requestIDHeader = "X-Request-Id"
)

// exemptPaths never receive auth augmentation: login initiation, the status
// probe, and the OAuth callback surface.
var exemptPaths = []string{
	"/auth/login",
	"/auth/status",
	"/auth/error",
	"/oauth2",
	"/login/oauth2",
}

// oauthPaths are additionally exempt from CSRF promotion.
var oauthPaths = []string{
	"/oauth2",
	"/login/oauth2",
}

// pollingPaths are chatty endpoints whose successes are not worth logging.
var pollingPaths = []string{
	"/auth/status",
	"/auth/refresh",
}

// Session is the slice of the session store the chain consults. It is bound
// after construction because the store itself talks through this chain.
type Session interface {
	IsAuthenticated() bool
	RefreshToken(ctx context.Context) error
	HandleAuthError(err error)
}

// Chain is the assembled interceptor stack.
type Chain struct {
	rt http.RoundTripper

	mu   sync.RWMutex
	sess Session
}

// NewChain layers the interceptors over base (http.DefaultTransport when
// nil). Until BindSession is called the chain passes requests through with
// only request-id stamping and failure logging.
func NewChain(base http.RoundTripper, logger zerolog.Logger) *Chain {
	if base == nil {
		base = http.DefaultTransport
	}
	c := &Chain{}

	var rt http.RoundTripper = &csrfTransport{next: base}
	rt = &markerTransport{next: rt, session: c.session}
	rt = &retryTransport{next: rt, session: c.session, logger: logger}
	rt = &loggingTransport{next: rt, logger: logger}
	c.rt = rt
	return c
}

// BindSession attaches the session store. Called once during wiring.
func (c *Chain) BindSession(s Session) {
	c.mu.Lock()
	c.sess = s
	c.mu.Unlock()
}

func (c *Chain) session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess
}

// RoundTrip implements http.RoundTripper.
func (c *Chain) RoundTrip(req *http.Request) (*http.Response, error) {
	return c.rt.RoundTrip(req)
}

func pathMatchesAny(u *url.URL, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(u.Path, p) {
			return true
		}
	}
	return false
}

// markerTransport tags authenticated XHR-style requests. Session auth rides
// on cookies; no bearer token is ever attached client-side.
type markerTransport struct {
	next    http.RoundTripper
	session func() Session
}

func (t *markerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if pathMatchesAny(req.URL, exemptPaths) {
		return t.next.RoundTrip(req)
	}

	sess := t.session()
	if sess == nil || !sess.IsAuthenticated() {
		return t.next.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set(markerHeader, markerValue)
	return t.next.RoundTrip(clone)
}

// csrfTransport promotes the readable CSRF cookie into a request header for
// state-changing methods. A missing cookie is not an error.
type csrfTransport struct {
	next http.RoundTripper
}

func (t *csrfTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return t.next.RoundTrip(req)
	}
	if pathMatchesAny(req.URL, oauthPaths) {
		return t.next.RoundTrip(req)
	}

	cookie, err := req.Cookie(csrfCookieName)
	if err != nil || cookie.Value == "" {
		return t.next.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set(csrfHeader, cookie.Value)
	return t.next.RoundTrip(clone)
}

// retryTransport recovers from a 401 by refreshing the token once and
// retrying the original request once. Whatever the concurrency, a given
// request is retried at most once, and concurrent refreshes coalesce inside
// the session store.
type retryTransport struct {
	next    http.RoundTripper
	session func() Session
	logger  zerolog.Logger
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	sess := t.session()
	if sess == nil {
		return resp, nil
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		// The refresh call itself must never trigger another refresh.
		if pathMatchesAny(req.URL, exemptPaths) || strings.Contains(req.URL.Path, "/auth/refresh") {
			return resp, nil
		}

		if !sess.IsAuthenticated() {
			sess.HandleAuthError(&apierror.Error{
				Status:  http.StatusUnauthorized,
				Message: "Authentication required",
				Method:  req.Method,
				URL:     req.URL.String(),
			})
			return resp, nil
		}

		retryReq, ok := cloneForRetry(req)
		if !ok {
			return resp, nil
		}

		if rerr := sess.RefreshToken(req.Context()); rerr != nil {
			sess.HandleAuthError(rerr)
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		t.logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Msg("Retrying request after token refresh")
		return t.next.RoundTrip(retryReq)
	case http.StatusForbidden:
		sess.HandleAuthError(&apierror.Error{
			Status:  http.StatusForbidden,
			Message: apierror.FallbackMessage(http.StatusForbidden),
			Method:  req.Method,
			URL:     req.URL.String(),
		})
		return resp, nil
	}
	return resp, nil
}

// cloneForRetry rebuilds a request so it can be sent a second time. Requests
// with an unreplayable body are not retried.
func cloneForRetry(req *http.Request) (*http.Request, bool) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	clone.Body = body
	return clone, true
}

// loggingTransport stamps each request with a ULID and logs a structured
// record for every failed call.
type loggingTransport struct {
	next   http.RoundTripper
	logger zerolog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	requestID := clone.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = ulid.Make().String()
		clone.Header.Set(requestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(clone)
	duration := time.Since(start)

	if err != nil {
		t.logger.Error().
			Str("request_id", requestID).
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Dur("duration", duration).
			Err(err).
			Msg("HTTP request failed")
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		t.logger.Warn().
			Str("request_id", requestID).
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Int("status", resp.StatusCode).
			Str("message", resp.Status).
			Dur("duration", duration).
			Msg("HTTP request error")
	} else if !pathMatchesAny(req.URL, pollingPaths) {
		t.logger.Debug().
			Str("request_id", requestID).
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Int("status", resp.StatusCode).
			Dur("duration", duration).
			Msg("HTTP request")
	}
	return resp, nil
}
