package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/emberhq/firewatch/internal/store"
)

// Handler subscribes to store events and formats them as dashboard messages.
// It bridges between the field data store and the WebSocket server.
type Handler struct {
	server *Server
	store  store.Store
	logger *log.Logger

	// pendingOp names the operation behind the status currently in
	// flight, so terminal transitions can be counted under it.
	pendingOp string
}

// NewHandler creates a new event handler connected to a dashboard server.
// It also installs the store snapshot as the server's welcome message.
func NewHandler(server *Server, st store.Store, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	h := &Handler{
		server: server,
		store:  st,
		logger: logger,
	}
	server.SetWelcome(h.snapshotMessage)
	return h
}

// Run relays store events to connected clients until ctx is canceled or the
// store closes its event stream. It blocks; run it in a goroutine.
func (h *Handler) Run(ctx context.Context) {
	events := h.store.Subscribe()
	defer h.store.Unsubscribe(events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.handleEvent(ev)
		}
	}
}

// handleEvent translates one store event into a broadcast
func (h *Handler) handleEvent(ev store.Event) {
	switch ev.Kind {
	case store.EventSnapshot:
		h.server.Broadcast(h.snapshotMessage())

	case store.EventStatus:
		h.observeStatus(ev.Status)

		dataJSON, err := json.Marshal(ev.Status)
		if err != nil {
			h.logger.Printf("Failed to marshal status: %v", err)
			return
		}
		h.server.Broadcast(Message{
			Type:      MessageTypeStatus,
			Timestamp: time.Now(),
			Data:      dataJSON,
		})

	case store.EventCollection:
		dataJSON, err := json.Marshal(CollectionData{
			Collection: ev.Collection,
			Count:      h.collectionCount(ev.Collection),
		})
		if err != nil {
			h.logger.Printf("Failed to marshal collection update: %v", err)
			return
		}
		h.server.Broadcast(Message{
			Type:      MessageTypeCollection,
			Timestamp: time.Now(),
			Data:      dataJSON,
		})
	}
}

// snapshotMessage builds a snapshot message from the store's current state
func (h *Handler) snapshotMessage() Message {
	snap := h.store.Snapshot()

	dataJSON, err := json.Marshal(SnapshotData{
		Activities:  len(snap.Activities),
		Hotspots:    len(snap.Hotspots),
		Incidents:   len(snap.Incidents),
		Loading:     snap.Loading,
		Stale:       snap.Stale,
		LastRefresh: snap.LastRefresh,
		Status:      snap.Status,
	})
	if err != nil {
		h.logger.Printf("Failed to marshal snapshot: %v", err)
	}

	return Message{
		Type:      MessageTypeSnapshot,
		Timestamp: time.Now(),
		Data:      dataJSON,
	}
}

// collectionCount reports how many records the named collection holds
func (h *Handler) collectionCount(collection string) int {
	switch collection {
	case store.CollectionActivities:
		return len(h.store.Activities())
	case store.CollectionHotspots:
		return len(h.store.Hotspots())
	case store.CollectionIncidents:
		return len(h.store.Incidents())
	default:
		return 0
	}
}

// observeStatus feeds the sync operation counter. Pending messages name the
// operation, terminal states carry the outcome.
func (h *Handler) observeStatus(st store.Status) {
	switch st.State {
	case store.StateSyncing:
		h.pendingOp = operationLabel(st.Message)

	case store.StateSuccess, store.StateError:
		op := h.pendingOp
		if op == "" {
			op = "unknown"
		}
		outcome := "success"
		if st.State == store.StateError {
			outcome = "error"
		}
		h.server.metrics.syncOps.WithLabelValues(op, outcome).Inc()
		h.pendingOp = ""
	}
}

// operationLabel buckets a pending status message for the metric
func operationLabel(message string) string {
	switch {
	case strings.HasPrefix(message, "Refreshing"):
		return "refresh"
	case strings.HasPrefix(message, "Resetting"):
		return "reset"
	default:
		return "write"
	}
}
