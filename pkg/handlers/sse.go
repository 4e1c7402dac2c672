package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"media-gallery/pkg/progress"
)

const (
	keepAliveInterval = 15 * time.Second
	eventBuffer       = 16
)

// stream forwards progress events to the client as server-sent events until
// the terminal event. When the client goes away the channel is detached and
// the job keeps running.
func (h *Handlers) stream(w http.ResponseWriter, r *http.Request, ch *progress.Channel) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		ch.Detach()
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			ch.Detach()
			h.logger.Info("progress observer disconnected", zap.Int("last_progress", ch.Last()))
			return
		case ev, open := <-ch.Events():
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("encode progress event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
