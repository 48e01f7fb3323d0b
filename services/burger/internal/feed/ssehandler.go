package feed

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aquamarinepk/aqm"
)

const keepaliveInterval = 30 * time.Second

// SSEHandler streams feed views as Server-Sent Events, one "feed-update"
// event per slice change.
type SSEHandler struct {
	render func(name string, s Slice) View
	logger aqm.Logger
}

func NewSSEHandler(render func(name string, s Slice) View, logger aqm.Logger) *SSEHandler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &SSEHandler{render: render, logger: logger}
}

func (h *SSEHandler) Serve(w http.ResponseWriter, r *http.Request, engine *Engine) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	subscriberID, updates := engine.Subscribe()
	defer engine.Unsubscribe(subscriberID)

	log := h.logger.With("feed", engine.Name(), "subscriber_id", subscriberID)
	log.Info("new SSE connection")

	fmt.Fprintf(w, ": connected\n\n")
	fmt.Fprintf(w, "retry: 2000\n\n")
	flush(w)

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Info("SSE client disconnected")
			return

		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flush(w)

		case s, ok := <-updates:
			if !ok {
				log.Info("feed subscription closed")
				return
			}

			data, err := json.Marshal(h.render(engine.Name(), s))
			if err != nil {
				log.Error("cannot marshal feed view", "error", err)
				continue
			}
			sendSSEEvent(w, "feed-update", data)
		}
	}
}

// sendSSEEvent writes one event. data must be single-line JSON.
func sendSSEEvent(w http.ResponseWriter, eventType string, data []byte) {
	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", data)
	flush(w)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
