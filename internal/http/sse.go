package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (h *Handler) streamDrillEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, ok := h.ownedDrill(w, r); !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.respondError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, ok := h.drills.Events(id)
	if !ok {
		h.respondError(w, "drill not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}

			data, err := json.Marshal(ev)
			if err != nil {
				h.log.Error("failed to encode drill event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)

			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
