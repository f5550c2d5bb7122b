package keepalive

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wttnguyen/draftolio/internal/api"
	"github.com/wttnguyen/draftolio/internal/session"
)

// The runner must accept the real store, not just test fakes.
var _ Session = (*session.Store)(nil)

type fakeSession struct {
	statusErr     error
	authenticated bool
	expiring      bool
	refreshErr    error

	statusCalls  int
	refreshCalls int
}

func (f *fakeSession) CheckStatus(ctx context.Context) (api.AuthStatus, error) {
	f.statusCalls++
	return api.AuthStatus{Authenticated: f.authenticated}, f.statusErr
}

func (f *fakeSession) IsAuthenticated() bool     { return f.authenticated }
func (f *fakeSession) IsTokenExpiringSoon() bool { return f.expiring }

func (f *fakeSession) RefreshToken(ctx context.Context) error {
	f.refreshCalls++
	return f.refreshErr
}

func newRunner(t *testing.T, sess Session) *Runner {
	t.Helper()
	r, err := New("@every 1m", sess, zerolog.Nop())
	require.NoError(t, err)
	return r
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New("not a schedule", &fakeSession{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestTickRefreshesExpiringToken(t *testing.T) {
	sess := &fakeSession{authenticated: true, expiring: true}
	newRunner(t, sess).tick(context.Background())

	assert.Equal(t, 1, sess.statusCalls)
	assert.Equal(t, 1, sess.refreshCalls)
}

func TestTickSkipsRefreshWhenTokenFresh(t *testing.T) {
	sess := &fakeSession{authenticated: true, expiring: false}
	newRunner(t, sess).tick(context.Background())

	assert.Equal(t, 1, sess.statusCalls)
	assert.Zero(t, sess.refreshCalls)
}

func TestTickSkipsRefreshWhenLoggedOut(t *testing.T) {
	sess := &fakeSession{authenticated: false, expiring: true}
	newRunner(t, sess).tick(context.Background())

	assert.Zero(t, sess.refreshCalls)
}

func TestTickStopsOnStatusFailure(t *testing.T) {
	sess := &fakeSession{statusErr: errors.New("backend down"), authenticated: true, expiring: true}
	newRunner(t, sess).tick(context.Background())

	assert.Equal(t, 1, sess.statusCalls)
	assert.Zero(t, sess.refreshCalls)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	r := newRunner(t, &fakeSession{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	cancel()
	<-done
}
