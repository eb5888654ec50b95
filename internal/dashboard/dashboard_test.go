package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/emberhq/firewatch/internal/entity"
	"github.com/emberhq/firewatch/internal/store"
)

// stubStore implements just the store methods the handler touches. The
// embedded interface covers the rest; calling one of those is a test bug.
type stubStore struct {
	store.Store

	events chan store.Event
	snap   store.Snapshot
}

func newStubStore() *stubStore {
	return &stubStore{events: make(chan store.Event, 16)}
}

func (s *stubStore) Subscribe() <-chan store.Event    { return s.events }
func (s *stubStore) Unsubscribe(<-chan store.Event)   {}
func (s *stubStore) Snapshot() store.Snapshot         { return s.snap }
func (s *stubStore) Activities() []entity.Activity    { return s.snap.Activities }
func (s *stubStore) Hotspots() []entity.Hotspot       { return s.snap.Hotspots }
func (s *stubStore) Incidents() []entity.FireIncident { return s.snap.Incidents }

func TestServerStartStop(t *testing.T) {
	config := &Config{
		Addr:   "127.0.0.1:0", // Use random available port
		Logger: log.New(os.Stderr, "[test] ", log.LstdFlags),
	}

	server := NewServer(config)

	// Start server
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	// Check that server is listening
	addr := server.GetAddr()
	if addr == "" {
		t.Fatal("Server address is empty")
	}

	// Stop server
	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}
}

func TestWebSocketConnection(t *testing.T) {
	config := &Config{
		Addr:   "127.0.0.1:0",
		Logger: log.New(os.Stderr, "[test] ", log.LstdFlags),
	}

	server := NewServer(config)

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer server.Stop()

	time.Sleep(100 * time.Millisecond)

	// Connect WebSocket client
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws://" + server.GetAddr() + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Verify client count
	if count := server.ClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}

	// Read welcome message
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}

	if msg.Type != MessageTypeSnapshot {
		t.Errorf("Expected welcome message type %s, got %s", MessageTypeSnapshot, msg.Type)
	}
}

func TestMultipleClients(t *testing.T) {
	config := &Config{
		Addr:   "127.0.0.1:0",
		Logger: log.New(os.Stderr, "[test] ", log.LstdFlags),
	}

	server := NewServer(config)

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer server.Stop()

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws://" + server.GetAddr() + "/ws"

	// Connect multiple clients
	numClients := 3
	clients := make([]*websocket.Conn, numClients)
	for i := 0; i < numClients; i++ {
		conn, _, err := websocket.Dial(ctx, wsURL, nil)
		if err != nil {
			t.Fatalf("Failed to connect client %d: %v", i, err)
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		clients[i] = conn

		// Read welcome message
		_, _, err = conn.Read(ctx)
		if err != nil {
			t.Fatalf("Failed to read welcome message for client %d: %v", i, err)
		}
	}

	// Verify client count
	if count := server.ClientCount(); count != numClients {
		t.Errorf("Expected %d clients, got %d", numClients, count)
	}
}

func TestMessageBroadcast(t *testing.T) {
	config := &Config{
		Addr:   "127.0.0.1:0",
		Logger: log.New(os.Stderr, "[test] ", log.LstdFlags),
	}

	server := NewServer(config)

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer server.Stop()

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws://" + server.GetAddr() + "/ws"

	// Connect client
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Read welcome message
	_, _, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}

	// Broadcast a test message
	testData := CollectionData{
		Collection: store.CollectionActivities,
		Count:      4,
	}

	dataJSON, _ := json.Marshal(testData)
	testMsg := Message{
		Type:      MessageTypeCollection,
		Timestamp: time.Now(),
		Data:      dataJSON,
	}

	server.Broadcast(testMsg)

	// Read broadcasted message
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read broadcast message: %v", err)
	}

	var received Message
	if err := json.Unmarshal(data, &received); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}

	if received.Type != MessageTypeCollection {
		t.Errorf("Expected message type %s, got %s", MessageTypeCollection, received.Type)
	}

	var receivedData CollectionData
	if err := json.Unmarshal(received.Data, &receivedData); err != nil {
		t.Fatalf("Failed to unmarshal collection data: %v", err)
	}

	if receivedData.Collection != testData.Collection {
		t.Errorf("Expected collection %s, got %s", testData.Collection, receivedData.Collection)
	}

	if receivedData.Count != testData.Count {
		t.Errorf("Expected count %d, got %d", testData.Count, receivedData.Count)
	}
}

func TestHandlerStatusEvents(t *testing.T) {
	config := &Config{
		Addr:   "127.0.0.1:0",
		Logger: log.New(os.Stderr, "[test] ", log.LstdFlags),
	}

	server := NewServer(config)
	st := newStubStore()
	handler := NewHandler(server, st, log.New(os.Stderr, "[test-handler] ", log.LstdFlags))

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer server.Stop()

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go handler.Run(ctx)

	wsURL := "ws://" + server.GetAddr() + "/ws"

	// Connect client
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Read welcome message
	_, _, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}

	// Push a status transition through the store event stream
	st.events <- store.Event{
		Kind:   store.EventStatus,
		Status: store.Status{State: store.StateSyncing, Message: "Refreshing data..."},
	}

	// Read status message
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read status update: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}

	if msg.Type != MessageTypeStatus {
		t.Errorf("Expected message type %s, got %s", MessageTypeStatus, msg.Type)
	}

	var status store.Status
	if err := json.Unmarshal(msg.Data, &status); err != nil {
		t.Fatalf("Failed to unmarshal status data: %v", err)
	}

	if status.State != store.StateSyncing {
		t.Errorf("Expected state %s, got %s", store.StateSyncing, status.State)
	}

	if status.Message != "Refreshing data..." {
		t.Errorf("Expected message %q, got %q", "Refreshing data...", status.Message)
	}
}

func TestHandlerCollectionEvents(t *testing.T) {
	config := &Config{
		Addr:   "127.0.0.1:0",
		Logger: log.New(os.Stderr, "[test] ", log.LstdFlags),
	}

	server := NewServer(config)
	st := newStubStore()
	st.snap.Activities = []entity.Activity{{ID: "act-1"}, {ID: "act-2"}}
	handler := NewHandler(server, st, log.New(os.Stderr, "[test-handler] ", log.LstdFlags))

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer server.Stop()

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go handler.Run(ctx)

	wsURL := "ws://" + server.GetAddr() + "/ws"

	// Connect client
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Read welcome message
	_, _, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}

	st.events <- store.Event{
		Kind:       store.EventCollection,
		Collection: store.CollectionActivities,
	}

	// Read collection update message
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read collection update: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}

	if msg.Type != MessageTypeCollection {
		t.Errorf("Expected message type %s, got %s", MessageTypeCollection, msg.Type)
	}

	var collData CollectionData
	if err := json.Unmarshal(msg.Data, &collData); err != nil {
		t.Fatalf("Failed to unmarshal collection data: %v", err)
	}

	if collData.Collection != store.CollectionActivities {
		t.Errorf("Expected collection %s, got %s", store.CollectionActivities, collData.Collection)
	}

	if collData.Count != 2 {
		t.Errorf("Expected count 2, got %d", collData.Count)
	}
}

func TestHandlerSnapshotEvents(t *testing.T) {
	config := &Config{
		Addr:   "127.0.0.1:0",
		Logger: log.New(os.Stderr, "[test] ", log.LstdFlags),
	}

	server := NewServer(config)
	st := newStubStore()
	st.snap = store.Snapshot{
		Activities: []entity.Activity{{ID: "act-1"}},
		Hotspots:   []entity.Hotspot{{ID: "hs-1"}, {ID: "hs-2"}},
		Incidents:  []entity.FireIncident{{ID: "fi-1"}},
		Status:     store.Status{State: store.StateIdle},
	}
	handler := NewHandler(server, st, log.New(os.Stderr, "[test-handler] ", log.LstdFlags))

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer server.Stop()

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go handler.Run(ctx)

	wsURL := "ws://" + server.GetAddr() + "/ws"

	// Connect client
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The welcome message carries the store snapshot
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}

	if msg.Type != MessageTypeSnapshot {
		t.Errorf("Expected message type %s, got %s", MessageTypeSnapshot, msg.Type)
	}

	var snapData SnapshotData
	if err := json.Unmarshal(msg.Data, &snapData); err != nil {
		t.Fatalf("Failed to unmarshal snapshot data: %v", err)
	}

	if snapData.Activities != 1 || snapData.Hotspots != 2 || snapData.Incidents != 1 {
		t.Errorf("Snapshot counts mismatch: got %+v", snapData)
	}

	// A snapshot event broadcasts the same summary
	st.events <- store.Event{Kind: store.EventSnapshot}

	_, data, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read snapshot update: %v", err)
	}

	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal snapshot message: %v", err)
	}

	if msg.Type != MessageTypeSnapshot {
		t.Errorf("Expected message type %s, got %s", MessageTypeSnapshot, msg.Type)
	}
}

func TestHandlerSyncMetrics(t *testing.T) {
	config := &Config{
		Addr:   "127.0.0.1:0",
		Logger: log.New(os.Stderr, "[test] ", log.LstdFlags),
	}

	server := NewServer(config)
	st := newStubStore()
	handler := NewHandler(server, st, log.New(os.Stderr, "[test-handler] ", log.LstdFlags))

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer server.Stop()

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go handler.Run(ctx)

	wsURL := "ws://" + server.GetAddr() + "/ws"

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}

	// A refresh cycle: pending status names the operation, the terminal
	// status carries the outcome
	st.events <- store.Event{
		Kind:   store.EventStatus,
		Status: store.Status{State: store.StateSyncing, Message: "Refreshing data..."},
	}
	st.events <- store.Event{
		Kind:   store.EventStatus,
		Status: store.Status{State: store.StateSuccess, Message: "Data refreshed"},
	}

	// Reading both broadcasts guarantees the handler counted them
	for i := 0; i < 2; i++ {
		if _, _, err := conn.Read(ctx); err != nil {
			t.Fatalf("Failed to read status update %d: %v", i, err)
		}
	}

	resp, err := http.Get("http://" + server.GetAddr() + "/metrics")
	if err != nil {
		t.Fatalf("Failed to scrape metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read metrics body: %v", err)
	}

	text := string(body)
	want := `firewatch_sync_operations_total{operation="refresh",outcome="success"} 1`
	if !strings.Contains(text, want) {
		t.Errorf("Metrics output missing %q:\n%s", want, text)
	}

	if !strings.Contains(text, "firewatch_ws_clients 1") {
		t.Errorf("Metrics output missing client gauge:\n%s", text)
	}
}

func TestHealthEndpoint(t *testing.T) {
	config := &Config{
		Addr:   "127.0.0.1:0",
		Logger: log.New(os.Stderr, "[test] ", log.LstdFlags),
	}

	server := NewServer(config)

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer server.Stop()

	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get("http://" + server.GetAddr() + "/health")
	if err != nil {
		t.Fatalf("Failed to get health: %v", err)
	}
	defer resp.Body.Close()

	var health struct {
		Status  string `json:"status"`
		Clients int    `json:"clients"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}

	if health.Status != "ok" {
		t.Errorf("Expected status ok, got %s", health.Status)
	}

	if health.Clients != 0 {
		t.Errorf("Expected 0 clients, got %d", health.Clients)
	}
}
