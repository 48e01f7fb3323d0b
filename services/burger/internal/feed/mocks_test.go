package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeConn struct {
	frames    chan []byte
	errs      chan error
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 8),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case f := <-c.frames:
		return f, nil
	case err := <-c.errs:
		return nil, err
	case <-c.closed:
		return nil, &SocketError{Err: errors.New("use of closed network connection")}
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) Send(frame string) {
	c.frames <- []byte(frame)
}

type fakeDialer struct {
	mu    sync.Mutex
	urls  []string
	conns []*fakeConn

	DialFunc func(ctx context.Context, url string) (Conn, error)
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	d.urls = append(d.urls, url)
	d.mu.Unlock()

	if d.DialFunc != nil {
		return d.DialFunc(ctx, url)
	}

	conn := newFakeConn()
	d.mu.Lock()
	d.conns = append(d.conns, conn)
	d.mu.Unlock()
	return conn, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func (d *fakeDialer) URL(i int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.urls[i]
}

func (d *fakeDialer) Conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

type fakeCredentials struct {
	mu           sync.Mutex
	token        string
	refreshCalls int

	RefreshFunc func(ctx context.Context) (string, error)
}

func (c *fakeCredentials) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *fakeCredentials) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.refreshCalls++
	fn := c.RefreshFunc
	c.mu.Unlock()

	if fn == nil {
		return nil
	}
	token, err := fn(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.token = ""
		return err
	}
	c.token = token
	return nil
}

func (c *fakeCredentials) RefreshCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshCalls
}

type MockPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics = append(m.topics, topic)
	return nil
}

func (m *MockPublisher) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.topics...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
