package realtime

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"avivia/ledger"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

func newTestServer(t *testing.T) (*Broadcaster, string) {
	t.Helper()
	b := NewBroadcaster(ledger.New(nil))
	b.Attach()

	router := httprouter.New()
	router.GET("/ws/availability", b.HandleWS)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return b, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/availability"
}

func TestInitialSnapshotSent(t *testing.T) {
	_, url := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(msg), `"availability"`) {
		t.Fatalf("unexpected payload: %s", msg)
	}
}

func TestBroadcastDuringConnect(t *testing.T) {
	b, url := newTestServer(t)

	// Hammer broadcast while clients connect; each client must still get its
	// initial grid without overlapping the broadcast writes.
	stop := make(chan struct{})
	var loop sync.WaitGroup
	loop.Add(1)
	go func() {
		defer loop.Done()
		for {
			select {
			case <-stop:
				return
			default:
				b.broadcast()
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			if err != nil {
				t.Errorf("dial failed: %v", err)
				return
			}
			defer conn.Close()

			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			if _, msg, err := conn.ReadMessage(); err != nil {
				t.Errorf("read failed: %v", err)
			} else if !strings.Contains(string(msg), `"availability"`) {
				t.Errorf("unexpected payload: %s", msg)
			}
		}()
	}
	wg.Wait()
	close(stop)
	loop.Wait()
}
