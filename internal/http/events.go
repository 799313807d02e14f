package http

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"boss-timer-api/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Events streams change events to a websocket client until it disconnects.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("events: upgrade failed: %v", err)
		return
	}

	c := &eventClient{
		conn: conn,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
	cancel := h.svc.Events().Subscribe(c.enqueue)
	go c.writePump()
	c.readPump()
	cancel()
	c.stop()
}

type eventClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *eventClient) enqueue(ev models.ChangeEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("events: encode %s/%s: %v", ev.Table, ev.Event, err)
		return
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
		log.Printf("events: client too slow, dropping %s/%s", ev.Table, ev.Event)
	}
}

func (c *eventClient) stop() {
	c.once.Do(func() { close(c.done) })
}

// readPump only drains control frames; clients have nothing to say.
func (c *eventClient) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("events: websocket error: %v", err)
			}
			return
		}
	}
}

func (c *eventClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.stop()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.stop()
				return
			}
		}
	}
}
