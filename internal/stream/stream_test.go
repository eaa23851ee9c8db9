package stream

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/houseofai/orderbook-reflex/internal/quote"
)

func TestHubBroadcastsBooks(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Registration happens in the server handler; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	book := quote.Book{
		Time: time.Date(2026, 8, 23, 9, 30, 0, 0, time.UTC),
		NBBO: quote.Quote{PriceBid: 100.00, PriceAsk: 100.02, SizeBid: 500, SizeAsk: 500},
		Pivot: quote.Pivot{Kind: quote.PivotHigh, Bid: 100.10, Ask: 100.12},
	}
	hub.Broadcast(book)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got quote.Book
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if got.NBBO.SizeBid != 500 || got.Pivot.Kind != quote.PivotHigh {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestHubDropsClosedClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never dropped after close")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Broadcasting with no clients is a no-op.
	hub.Broadcast(quote.Book{})
}
