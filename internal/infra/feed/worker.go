package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dfs_go/internal/event"
	"dfs_go/internal/infra"
)

const (
	feedMaxRetries  = 10
	feedBaseDelay   = 1 * time.Second
	feedMaxDelay    = 60 * time.Second
	feedReadTimeout = 60 * time.Second
)

// rosterMessage is one frame of the roster status stream.
type rosterMessage struct {
	Type     string `json:"type"`      // "roster" or "lock"
	PlayerID string `json:"player_id"` // roster frames only
	Team     string `json:"team"`
	Order    int    `json:"order"` // 0 means scratched
}

// Worker maintains the roster feed WebSocket connection and turns frames
// into events. Implements domain.RosterFeed.
type Worker struct {
	url       string
	events    chan<- event.Event
	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWorker creates a roster feed worker publishing into events.
func NewWorker(url string, events chan<- event.Event) *Worker {
	return &Worker{
		url:    url,
		events: events,
	}
}

// Connect starts the WebSocket connection with automatic reconnection
func (w *Worker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.connectionLoop(ctx)

	return nil
}

// connectionLoop handles connection and reconnection with exponential backoff
func (w *Worker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("roster feed panic recovered", slog.Any("panic", r))
		}
	}()

	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			slog.Info("roster feed connection loop stopped")
			return
		default:
		}

		err := w.connect(ctx)
		if err != nil {
			slog.Warn("roster feed connection failed",
				slog.Any("error", err),
				slog.Int("retry", retryCount),
			)

			// Exponential backoff
			delay := infra.CalculateBackoff(retryCount, feedBaseDelay, feedMaxDelay)
			retryCount++
			if retryCount > feedMaxRetries {
				slog.Error("roster feed max retries exceeded, resetting counter")
				retryCount = 0
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		// Connection successful, reset retry counter
		retryCount = 0

		// Read messages until error
		w.readLoop(ctx)
	}
}

// connect establishes the WebSocket connection and subscribes to the
// roster channel.
func (w *Worker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()
	infra.GlobalMetrics.IncrementFeeds()

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return fmt.Errorf("subscribe failed: %w", err)
	}

	slog.Info("roster feed connected", slog.String("url", w.url))

	return nil
}

// subscribe sends the roster channel subscription message.
func (w *Worker) subscribe() error {
	subscribeMsg := map[string]interface{}{
		"ticket":  fmt.Sprintf("dfs-go-%d", time.Now().UnixNano()),
		"action":  "subscribe",
		"channel": "rosters",
	}

	msgBytes, err := json.Marshal(subscribeMsg)
	if err != nil {
		return err
	}

	return w.threadSafeWrite(websocket.TextMessage, msgBytes)
}

// threadSafeWrite sends a message to the WebSocket connection in a thread-safe manner
func (w *Worker) threadSafeWrite(messageType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.RLock()
	conn := w.conn
	w.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("connection is nil")
	}

	return conn.WriteMessage(messageType, data)
}

// readLoop reads messages from WebSocket
func (w *Worker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(feedReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("roster feed read error", slog.Any("error", err))
			}
			w.closeConnection()
			return
		}

		w.handleMessage(message)
	}
}

// handleMessage parses one frame and publishes the matching event. A full
// events channel drops the frame; the next full repair cycle re-reads the
// pool anyway.
func (w *Worker) handleMessage(message []byte) {
	var msg rosterMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		slog.Debug("roster feed message parse error", slog.Any("error", err))
		return
	}

	var ev event.Event
	switch msg.Type {
	case "roster":
		if msg.PlayerID == "" {
			return
		}
		ev = event.RosterUpdate{PlayerID: msg.PlayerID, Team: msg.Team, Order: msg.Order}
	case "lock":
		if msg.Team == "" {
			return
		}
		ev = event.TeamLock{Team: msg.Team}
	default:
		return
	}

	if w.events != nil {
		select {
		case w.events <- ev:
		default:
			slog.Warn("roster event channel full, dropping event",
				slog.String("kind", ev.Kind().String()),
			)
		}
	}
}

// closeConnection safely closes the WebSocket connection
func (w *Worker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	if w.connected {
		infra.GlobalMetrics.DecrementFeeds()
	}
	w.connected = false
}

// Disconnect closes the WebSocket connection
func (w *Worker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
	slog.Info("roster feed disconnected")
}

// IsConnected returns connection status
func (w *Worker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}
