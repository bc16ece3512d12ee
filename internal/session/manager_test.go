package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHandle implements Handle for testing.
type fakeHandle struct {
	loginErr   error
	currentURL string
	probeErr   error
	closeErr   error
	closeCalls int
}

func (f *fakeHandle) Login(context.Context, Credentials) error { return f.loginErr }
func (f *fakeHandle) CurrentURL(context.Context) (string, error) {
	return f.currentURL, f.probeErr
}
func (f *fakeHandle) PageHTML(context.Context, string, time.Duration) (string, error) {
	return "", nil
}
func (f *fakeHandle) Close() error {
	f.closeCalls++
	return f.closeErr
}

// fakeDriver implements Driver, handing out handles in order.
type fakeDriver struct {
	handles []*fakeHandle
	openErr error
	opens   int
}

func (f *fakeDriver) Open(context.Context) (Handle, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	h := f.handles[f.opens]
	f.opens++
	return h, nil
}

var creds = Credentials{Email: "user@example.com", Password: "hunter2"}

func TestAcquire_Success(t *testing.T) {
	driver := &fakeDriver{handles: []*fakeHandle{{currentURL: "https://www.linkedin.com/feed/"}}}
	m := NewManager(driver, creds)

	sess, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, sess.Authenticated)
	assert.False(t, sess.Closed())
	assert.WithinDuration(t, time.Now().UTC(), sess.CreatedAt, time.Minute)
}

func TestAcquire_MissingCredentials(t *testing.T) {
	driver := &fakeDriver{handles: []*fakeHandle{{}}}
	m := NewManager(driver, Credentials{})

	_, err := m.Acquire(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Zero(t, driver.opens, "driver must not open without credentials")
}

func TestAcquire_DriverFailureIsFatal(t *testing.T) {
	driver := &fakeDriver{openErr: errors.New("chromium not found")}
	m := NewManager(driver, creds)

	_, err := m.Acquire(context.Background())
	assert.Error(t, err)
}

func TestAcquire_LoginFailureContinuesUnauthenticated(t *testing.T) {
	h := &fakeHandle{loginErr: errors.New("captcha wall")}
	m := NewManager(&fakeDriver{handles: []*fakeHandle{h}}, creds)

	sess, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, sess.Authenticated)
	assert.Zero(t, h.closeCalls)
}

func TestValidate(t *testing.T) {
	h := &fakeHandle{currentURL: "https://www.linkedin.com/feed/"}
	m := NewManager(&fakeDriver{handles: []*fakeHandle{h}}, creds)

	sess, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, m.Validate(context.Background(), sess))

	h.probeErr = errors.New("session deleted")
	assert.False(t, m.Validate(context.Background(), sess))
}

func TestValidate_NilAndClosed(t *testing.T) {
	h := &fakeHandle{currentURL: "x"}
	m := NewManager(&fakeDriver{handles: []*fakeHandle{h}}, creds)

	assert.False(t, m.Validate(context.Background(), nil))

	sess, err := m.Acquire(context.Background())
	require.NoError(t, err)
	m.Close(sess)
	assert.False(t, m.Validate(context.Background(), sess))
}

func TestRecover_ClosesOldAcquiresNew(t *testing.T) {
	old := &fakeHandle{currentURL: "dead"}
	fresh := &fakeHandle{currentURL: "https://www.linkedin.com/feed/"}
	driver := &fakeDriver{handles: []*fakeHandle{old, fresh}}
	m := NewManager(driver, creds)

	sess, err := m.Acquire(context.Background())
	require.NoError(t, err)

	replacement, err := m.Recover(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, 1, old.closeCalls)
	assert.True(t, sess.Closed())
	assert.False(t, replacement.Closed())
	assert.Equal(t, 2, driver.opens)
}

func TestRecover_AcquireFailureIsFatal(t *testing.T) {
	old := &fakeHandle{}
	driver := &fakeDriver{handles: []*fakeHandle{old}}
	m := NewManager(driver, creds)

	sess, err := m.Acquire(context.Background())
	require.NoError(t, err)

	driver.openErr = errors.New("no more browsers")
	_, err = m.Recover(context.Background(), sess)
	assert.Error(t, err)
	assert.Equal(t, 1, old.closeCalls)
}

func TestClose_BestEffortAndIdempotent(t *testing.T) {
	h := &fakeHandle{closeErr: errors.New("already gone")}
	m := NewManager(&fakeDriver{handles: []*fakeHandle{h}}, creds)

	sess, err := m.Acquire(context.Background())
	require.NoError(t, err)

	m.Close(sess)
	m.Close(sess)
	assert.Equal(t, 1, h.closeCalls)
	assert.True(t, sess.Closed())
}
