package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/burger/pkg/event"
	"github.com/appetiteclub/burger/services/burger/internal/auth"
)

const (
	subscriberBuffer = 16
	defaultLeeway    = 30 * time.Second
)

// ErrClosed is returned by Conn.ReadMessage when the server closed the
// connection cleanly.
var ErrClosed = errors.New("feed connection closed")

// SocketError is any transport failure other than a clean close.
type SocketError struct {
	Err error
}

func (e *SocketError) Error() string {
	return fmt.Sprintf("%s: %v", ConnectionErrorMessage, e.Err)
}

func (e *SocketError) Unwrap() error {
	return e.Err
}

// Conn is an open inbound-only feed connection.
type Conn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Credentials is the shared access credential. Refresh replaces it.
type Credentials interface {
	AccessToken() string
	Refresh(ctx context.Context) error
}

type Config struct {
	Name         string
	Endpoint     string
	RequiresAuth bool
	AutoConnect  bool
	// RefreshLeeway triggers a refresh before dialing when the access token
	// expires within this window.
	RefreshLeeway time.Duration
}

type EngineDeps struct {
	Dialer      Dialer
	Credentials Credentials
	Publisher   events.Publisher
}

// Engine keeps one feed slice in sync with its socket. Every transition goes
// through Reduce under mu. gen identifies the current connection: callbacks
// from a connection that was closed deliberately carry an older gen and are
// ignored.
type Engine struct {
	cfg         Config
	dialer      Dialer
	credentials Credentials
	publisher   events.Publisher
	logger      aqm.Logger

	mu          sync.Mutex
	slice       Slice
	conn        Conn
	gen         uint64
	wanted      bool
	subscribers map[string]chan Slice

	ctx    context.Context
	cancel context.CancelFunc
}

func NewEngine(cfg Config, deps EngineDeps, logger aqm.Logger) *Engine {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if cfg.RefreshLeeway <= 0 {
		cfg.RefreshLeeway = defaultLeeway
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cfg:         cfg,
		dialer:      deps.Dialer,
		credentials: deps.Credentials,
		publisher:   deps.Publisher,
		logger:      logger.With("feed", cfg.Name),
		slice:       NewSlice(),
		subscribers: make(map[string]chan Slice),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (e *Engine) Name() string {
	return e.cfg.Name
}

func (e *Engine) RequiresAuth() bool {
	return e.cfg.RequiresAuth
}

// Start connects in the background when the feed is configured to.
func (e *Engine) Start(ctx context.Context) error {
	if !e.cfg.AutoConnect {
		return nil
	}
	go func() {
		if err := e.Connect(e.ctx); err != nil {
			e.logger.Info("feed autoconnect failed", "error", err)
		}
	}()
	return nil
}

// Stop disconnects and closes every subscriber channel.
func (e *Engine) Stop(ctx context.Context) error {
	e.Disconnect()
	e.cancel()

	e.mu.Lock()
	for id, ch := range e.subscribers {
		close(ch)
		delete(e.subscribers, id)
	}
	e.mu.Unlock()

	return nil
}

// Snapshot returns the current slice.
func (e *Engine) Snapshot() Slice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slice
}

// Connect replaces any open connection with a new one. On return the slice
// is either succeeded (socket open) or failed.
func (e *Engine) Connect(ctx context.Context) error {
	return e.connect(ctx, 0, false)
}

// connect with checkGen set only proceeds while the engine is still wanted
// and no newer connect or disconnect happened since expectGen.
func (e *Engine) connect(ctx context.Context, expectGen uint64, checkGen bool) error {
	if e.dialer == nil {
		return errors.New("feed dialer not configured")
	}

	e.mu.Lock()
	if checkGen && (!e.wanted || e.gen != expectGen) {
		e.mu.Unlock()
		return nil
	}
	e.wanted = true
	e.gen++
	gen := e.gen
	old := e.conn
	e.conn = nil
	e.applyLocked(ConnectEvent())
	e.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	token := ""
	if e.cfg.RequiresAuth {
		var err error
		token, err = e.accessToken(ctx)
		if err != nil {
			e.mu.Lock()
			if gen == e.gen {
				e.applyLocked(FailedEvent(err.Error()))
			}
			e.mu.Unlock()
			return err
		}
	}

	conn, err := e.dialer.Dial(ctx, buildURL(e.cfg.Endpoint, token))

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return nil
	}
	if err != nil {
		sockErr := &SocketError{Err: err}
		e.applyLocked(FailedEvent(sockErr.Error()))
		e.mu.Unlock()
		e.logger.Error("feed dial failed", "error", err)
		return sockErr
	}
	e.conn = conn
	e.applyLocked(OpenedEvent())
	e.mu.Unlock()

	e.logger.Info("feed connected")
	go e.readLoop(gen, conn)
	return nil
}

// accessToken returns the credential to dial with, refreshing it first when
// it is about to expire.
func (e *Engine) accessToken(ctx context.Context) (string, error) {
	if e.credentials == nil {
		return "", auth.ErrUnauthenticated
	}

	token := e.credentials.AccessToken()
	if token == "" {
		return "", auth.ErrUnauthenticated
	}

	if auth.Expired(token, time.Now(), e.cfg.RefreshLeeway) {
		e.logger.Debug("access token about to expire, refreshing before dial")
		if err := e.credentials.Refresh(ctx); err != nil {
			return "", err
		}
		token = e.credentials.AccessToken()
		if token == "" {
			return "", auth.ErrUnauthenticated
		}
	}
	return token, nil
}

// Disconnect closes the connection deliberately and stops any pending
// refresh-triggered reconnect. Calling it again is a no-op.
func (e *Engine) Disconnect() {
	e.mu.Lock()
	e.wanted = false
	e.gen++
	conn := e.conn
	e.conn = nil
	e.applyLocked(DisconnectEvent())
	e.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
		e.logger.Info("feed disconnected")
	}
}

func (e *Engine) readLoop(gen uint64, conn Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			e.handleClose(gen, err)
			return
		}
		if done := e.handleFrame(gen, data); done {
			return
		}
	}
}

// handleFrame reports true when the read loop must stop.
func (e *Engine) handleFrame(gen uint64, data []byte) bool {
	evt, needsRefresh := Classify(data, e.cfg.RequiresAuth)

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return true
	}

	if needsRefresh {
		e.gen++
		refreshGen := e.gen
		conn := e.conn
		e.conn = nil
		e.applyLocked(evt)
		e.mu.Unlock()

		if conn != nil {
			_ = conn.Close()
		}
		e.logger.Info("feed rejected access token, refreshing")
		go e.refreshAndReconnect(refreshGen)
		return true
	}

	e.applyLocked(evt)
	snapshot := e.slice
	e.mu.Unlock()

	if evt.Kind == EventOrders {
		e.publishSnapshot(snapshot)
	}
	return false
}

func (e *Engine) refreshAndReconnect(gen uint64) {
	var err error
	if e.credentials == nil {
		err = &auth.RefreshError{Err: auth.ErrMissingRefreshToken}
	} else {
		err = e.credentials.Refresh(e.ctx)
	}

	e.mu.Lock()
	if !e.wanted || e.gen != gen {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.applyLocked(FailedEvent(err.Error()))
		e.mu.Unlock()
		e.logger.Error("feed token refresh failed", "error", err)
		return
	}
	e.mu.Unlock()

	if err := e.connect(e.ctx, gen, true); err != nil {
		e.logger.Error("feed reconnect after refresh failed", "error", err)
	}
}

func (e *Engine) handleClose(gen uint64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen {
		return
	}
	e.conn = nil

	if errors.Is(err, ErrClosed) {
		e.applyLocked(ClosedEvent())
		e.logger.Info("feed closed by server")
		return
	}

	e.applyLocked(FailedEvent(ConnectionErrorMessage))
	e.logger.Error("feed connection lost", "error", err)
}

// applyLocked runs the reducer and fans the new slice out. Slow subscribers
// miss updates rather than block the feed.
func (e *Engine) applyLocked(evt Event) {
	e.slice = Reduce(e.slice, evt)

	for id, ch := range e.subscribers {
		select {
		case ch <- e.slice:
		default:
			e.logger.Debug("subscriber channel full, dropping update", "subscriber_id", id)
		}
	}
}

// Subscribe registers a listener for slice changes. The current slice is
// delivered first.
func (e *Engine) Subscribe() (string, <-chan Slice) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Slice, subscriberBuffer)
	ch <- e.slice
	e.subscribers[id] = ch

	e.logger.Debug("new feed subscriber", "subscriber_id", id, "total_subscribers", len(e.subscribers))
	return id, ch
}

func (e *Engine) Unsubscribe(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ch, ok := e.subscribers[id]; ok {
		close(ch)
		delete(e.subscribers, id)
	}
}

func (e *Engine) publishSnapshot(s Slice) {
	if e.publisher == nil {
		return
	}

	refs := make([]event.FeedOrderRef, 0, len(s.Orders))
	for _, o := range s.Orders {
		refs = append(refs, event.FeedOrderRef{ID: o.ID, Number: o.Number, Status: o.Status, Name: o.Name})
	}

	payload, err := json.Marshal(event.FeedSnapshotEvent{
		EventType:  event.EventFeedSnapshot,
		OccurredAt: time.Now().UTC(),
		Feed:       e.cfg.Name,
		Total:      s.Total,
		TotalToday: s.TotalToday,
		Orders:     refs,
	})
	if err != nil {
		e.logger.Error("cannot marshal feed snapshot", "error", err)
		return
	}

	if err := e.publisher.Publish(e.ctx, event.FeedSnapshotTopic, payload); err != nil {
		e.logger.Error("cannot publish feed snapshot", "error", err)
	}
}

func buildURL(endpoint, token string) string {
	if token == "" {
		return endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
