package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"avivia/ledger"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins — adjust for production if needed
		return true
	},
}

// Broadcaster pushes the availability grid to connected browsers whenever
// the ledger changes. It subscribes to the ledger in Attach; the core never
// learns about websockets.
type Broadcaster struct {
	mu     sync.Mutex
	conns  []*websocket.Conn
	ledger *ledger.Ledger
}

func NewBroadcaster(l *ledger.Ledger) *Broadcaster {
	return &Broadcaster{ledger: l}
}

// Attach registers the broadcaster as a ledger subscriber.
func (b *Broadcaster) Attach() {
	b.ledger.Subscribe(b.broadcast)
}

func (b *Broadcaster) HandleWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "WebSocket upgrade failed", http.StatusBadRequest)
		return
	}

	// Send the current grid before the connection joins the broadcast list.
	// Once registered, only broadcast may write to it; gorilla/websocket
	// forbids concurrent writers.
	if data, err := b.payload(); err == nil {
		conn.WriteMessage(websocket.TextMessage, data)
	}

	b.mu.Lock()
	b.conns = append(b.conns, conn)
	b.mu.Unlock()

	for {
		// Keeps the connection alive until the client disconnects.
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	b.mu.Lock()
	kept := make([]*websocket.Conn, 0, len(b.conns))
	for _, c := range b.conns {
		if c != conn {
			kept = append(kept, c)
		}
	}
	b.conns = kept
	b.mu.Unlock()

	conn.Close()
}

func (b *Broadcaster) payload() ([]byte, error) {
	return json.Marshal(map[string]any{
		"type":  "availability",
		"slots": b.ledger.SlotInfos(),
	})
}

func (b *Broadcaster) broadcast() {
	data, err := b.payload()
	if err != nil {
		log.Println("realtime: marshal error:", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.conns[:0]
	for _, conn := range b.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err == nil {
			kept = append(kept, conn)
		} else {
			conn.Close()
		}
	}
	b.conns = kept
}
