package feed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/appetiteclub/burger/pkg/event"
	"github.com/appetiteclub/burger/services/burger/internal/auth"
)

const ordersFrame = `{"success":true,"orders":[{"_id":"o1","number":1,"status":"done","ingredients":["bun-1"]}],"total":10,"totalToday":2}`

const invalidTokenFrame = `{"success":false,"message":"Invalid or missing token"}`

func newPublicEngine(d *fakeDialer) *Engine {
	return NewEngine(Config{Name: "public", Endpoint: "wss://feed.test/orders/all"}, EngineDeps{Dialer: d}, nil)
}

func newProfileEngine(d *fakeDialer, creds *fakeCredentials) *Engine {
	return NewEngine(Config{
		Name:         "profile",
		Endpoint:     "wss://feed.test/orders",
		RequiresAuth: true,
	}, EngineDeps{Dialer: d, Credentials: creds}, nil)
}

func TestEngineConnectPublic(t *testing.T) {
	d := &fakeDialer{}
	pub := &MockPublisher{}
	e := NewEngine(Config{Name: "public", Endpoint: "wss://feed.test/orders/all"}, EngineDeps{Dialer: d, Publisher: pub}, nil)
	defer e.Stop(context.Background())

	if err := e.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if got := e.Snapshot().Status; got != StatusSucceeded {
		t.Fatalf("Status = %q, want succeeded", got)
	}
	if d.URL(0) != "wss://feed.test/orders/all" {
		t.Errorf("dial url = %s, want no token", d.URL(0))
	}

	d.Conn(0).Send(ordersFrame)
	waitFor(t, "orders", func() bool { return len(e.Snapshot().Orders) == 1 })

	s := e.Snapshot()
	if s.Total != 10 || s.TotalToday != 2 {
		t.Errorf("totals = %d/%d, want 10/2", s.Total, s.TotalToday)
	}

	waitFor(t, "snapshot event", func() bool { return len(pub.Topics()) == 1 })
	if pub.Topics()[0] != event.FeedSnapshotTopic {
		t.Errorf("topic = %s, want %s", pub.Topics()[0], event.FeedSnapshotTopic)
	}
}

func TestEngineConnectWithToken(t *testing.T) {
	d := &fakeDialer{}
	e := newProfileEngine(d, &fakeCredentials{token: "Bearer abc"})
	defer e.Stop(context.Background())

	if err := e.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if !strings.Contains(d.URL(0), "token=Bearer+abc") {
		t.Errorf("dial url = %s, want token query", d.URL(0))
	}
}

func TestEngineConnectUnauthenticated(t *testing.T) {
	d := &fakeDialer{}
	e := newProfileEngine(d, &fakeCredentials{})
	defer e.Stop(context.Background())

	err := e.Connect(context.Background())
	if !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("Connect() error = %v, want ErrUnauthenticated", err)
	}

	s := e.Snapshot()
	if s.Status != StatusFailed || s.Error == "" {
		t.Errorf("slice = %+v, want failed with error", s)
	}
	if d.Dials() != 0 {
		t.Errorf("dials = %d, want 0", d.Dials())
	}
}

func TestEngineConnectRefreshesExpiringToken(t *testing.T) {
	expiring := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(5 * time.Second).Unix(),
	})
	signed, err := expiring.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	d := &fakeDialer{}
	creds := &fakeCredentials{
		token: "Bearer " + signed,
		RefreshFunc: func(ctx context.Context) (string, error) {
			return "Bearer fresh", nil
		},
	}
	e := newProfileEngine(d, creds)
	defer e.Stop(context.Background())

	if err := e.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if creds.RefreshCalls() != 1 {
		t.Errorf("refresh calls = %d, want 1", creds.RefreshCalls())
	}
	if !strings.Contains(d.URL(0), "token=Bearer+fresh") {
		t.Errorf("dial url = %s, want refreshed token", d.URL(0))
	}
}

func TestEngineDialFailure(t *testing.T) {
	d := &fakeDialer{
		DialFunc: func(ctx context.Context, url string) (Conn, error) {
			return nil, errors.New("refused")
		},
	}
	e := newPublicEngine(d)
	defer e.Stop(context.Background())

	err := e.Connect(context.Background())
	var sockErr *SocketError
	if !errors.As(err, &sockErr) {
		t.Fatalf("Connect() error = %v, want SocketError", err)
	}
	if got := e.Snapshot().Status; got != StatusFailed {
		t.Errorf("Status = %q, want failed", got)
	}
}

func TestEngineInvalidTokenRefreshesAndReconnectsOnce(t *testing.T) {
	d := &fakeDialer{}
	creds := &fakeCredentials{
		token: "Bearer stale",
		RefreshFunc: func(ctx context.Context) (string, error) {
			return "Bearer fresh", nil
		},
	}
	e := newProfileEngine(d, creds)
	defer e.Stop(context.Background())

	if err := e.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	first := d.Conn(0)
	first.Send(invalidTokenFrame)

	waitFor(t, "reconnect", func() bool { return d.Dials() == 2 && e.Snapshot().Status == StatusSucceeded })

	if !first.IsClosed() {
		t.Error("rejected connection left open")
	}
	if creds.RefreshCalls() != 1 {
		t.Errorf("refresh calls = %d, want 1", creds.RefreshCalls())
	}
	if !strings.Contains(d.URL(1), "token=Bearer+fresh") {
		t.Errorf("reconnect url = %s, want fresh token", d.URL(1))
	}

	d.Conn(1).Send(ordersFrame)
	waitFor(t, "orders after reconnect", func() bool { return len(e.Snapshot().Orders) == 1 })

	time.Sleep(20 * time.Millisecond)
	if d.Dials() != 2 {
		t.Errorf("dials = %d, want 2", d.Dials())
	}
}

func TestEngineRefreshFailureStaysFailed(t *testing.T) {
	d := &fakeDialer{}
	creds := &fakeCredentials{
		token: "Bearer stale",
		RefreshFunc: func(ctx context.Context) (string, error) {
			return "", &auth.RefreshError{Err: errors.New("jwt expired")}
		},
	}
	e := newProfileEngine(d, creds)
	defer e.Stop(context.Background())

	if err := e.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	d.Conn(0).Send(invalidTokenFrame)

	waitFor(t, "refresh failure", func() bool {
		s := e.Snapshot()
		return s.Status == StatusFailed && strings.Contains(s.Error, "token refresh failed")
	})

	time.Sleep(20 * time.Millisecond)
	if d.Dials() != 1 {
		t.Errorf("dials = %d, want 1", d.Dials())
	}
	if creds.AccessToken() != "" {
		t.Errorf("credentials not cleared")
	}
}

func TestEngineRefreshCompletingAfterDisconnect(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	d := &fakeDialer{}
	creds := &fakeCredentials{
		token: "Bearer stale",
		RefreshFunc: func(ctx context.Context) (string, error) {
			close(started)
			<-release
			return "Bearer fresh", nil
		},
	}
	e := newProfileEngine(d, creds)
	defer e.Stop(context.Background())

	if err := e.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	d.Conn(0).Send(invalidTokenFrame)

	<-started
	e.Disconnect()
	close(release)

	time.Sleep(50 * time.Millisecond)
	if d.Dials() != 1 {
		t.Errorf("dials = %d, want 1", d.Dials())
	}
	if got := e.Snapshot().Status; got != StatusIdle {
		t.Errorf("Status = %q, want idle", got)
	}
}

func TestEngineServerClose(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus Status
		wantError  string
	}{
		{
			name:       "cleanCloseGoesIdle",
			err:        ErrClosed,
			wantStatus: StatusIdle,
		},
		{
			name:       "abnormalCloseFails",
			err:        &SocketError{Err: errors.New("reset by peer")},
			wantStatus: StatusFailed,
			wantError:  ConnectionErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDialer{}
			e := newPublicEngine(d)
			defer e.Stop(context.Background())

			if err := e.Connect(context.Background()); err != nil {
				t.Fatalf("Connect() error = %v", err)
			}
			d.Conn(0).errs <- tt.err

			waitFor(t, "close", func() bool { return e.Snapshot().Status == tt.wantStatus })
			if got := e.Snapshot().Error; got != tt.wantError {
				t.Errorf("Error = %q, want %q", got, tt.wantError)
			}
		})
	}
}

func TestEngineDisconnect(t *testing.T) {
	d := &fakeDialer{}
	e := newPublicEngine(d)
	defer e.Stop(context.Background())

	if err := e.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	e.Disconnect()
	e.Disconnect()

	if !d.Conn(0).IsClosed() {
		t.Error("connection left open")
	}

	time.Sleep(20 * time.Millisecond)
	s := e.Snapshot()
	if s.Status != StatusIdle || s.Error != "" {
		t.Errorf("slice = %+v, want idle without error", s)
	}
}

func TestEngineReconnectReplacesConnection(t *testing.T) {
	d := &fakeDialer{}
	e := newPublicEngine(d)
	defer e.Stop(context.Background())

	if err := e.Connect(context.Background()); err != nil {
		t.Fatalf("first Connect() error = %v", err)
	}
	if err := e.Connect(context.Background()); err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}

	if !d.Conn(0).IsClosed() {
		t.Error("previous connection left open")
	}

	time.Sleep(20 * time.Millisecond)
	if got := e.Snapshot().Status; got != StatusSucceeded {
		t.Errorf("Status = %q, want succeeded", got)
	}
}

func TestEngineSubscribe(t *testing.T) {
	d := &fakeDialer{}
	e := newPublicEngine(d)

	id, updates := e.Subscribe()

	first := <-updates
	if first.Status != StatusIdle {
		t.Errorf("initial Status = %q, want idle", first.Status)
	}

	if err := e.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	var seen []Status
	for i := 0; i < 2; i++ {
		select {
		case s := <-updates:
			seen = append(seen, s.Status)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for update")
		}
	}
	if seen[0] != StatusLoading || seen[1] != StatusSucceeded {
		t.Errorf("updates = %v, want [loading succeeded]", seen)
	}

	e.Unsubscribe(id)
	if _, ok := <-updates; ok {
		t.Error("channel still open after Unsubscribe")
	}

	e.Stop(context.Background())
}

func TestEngineStopClosesSubscribers(t *testing.T) {
	e := newPublicEngine(&fakeDialer{})
	_, updates := e.Subscribe()
	<-updates

	e.Stop(context.Background())

	for range updates {
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		token    string
		want     string
	}{
		{name: "noToken", endpoint: "wss://feed.test/orders", want: "wss://feed.test/orders"},
		{name: "withToken", endpoint: "wss://feed.test/orders", token: "abc", want: "wss://feed.test/orders?token=abc"},
		{name: "keepsQuery", endpoint: "wss://feed.test/orders?x=1", token: "abc", want: "wss://feed.test/orders?token=abc&x=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildURL(tt.endpoint, tt.token); got != tt.want {
				t.Errorf("buildURL() = %s, want %s", got, tt.want)
			}
		})
	}
}
