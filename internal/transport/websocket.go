// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"zeoscribe/internal/eeg"
	applog "zeoscribe/internal/log"
)

const writeWait = 2 * time.Second

// Request is a client message on the /ws endpoint.
type Request struct {
	Op      string `json:"op"`                // value, ticks, buffer or channels
	Channel string `json:"channel,omitempty"` // channel name for value
}

// Response answers a Request. Sample events pushed by the server use the
// same envelope with Op "sample".
type Response struct {
	Op       string    `json:"op"`
	Channel  string    `json:"channel,omitempty"`
	Value    *float64  `json:"value,omitempty"`
	Data     *string   `json:"data,omitempty"`
	Channels []string  `json:"channels,omitempty"`
	Seq      uint64    `json:"seq,omitempty"`
	Time     time.Time `json:"time,omitzero"`
	Error    string    `json:"error,omitempty"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// WebSocketTransport serves the channel registry on /ws. Clients poll
// channels with requests; samples passed to Send are pushed to every client.
type WebSocketTransport struct {
	channels Channels
	raw      Drainer

	upgrader  websocket.Upgrader
	clients   map[*client]struct{}
	clientsMu sync.Mutex
	broadcast chan any
	dropped   atomic.Uint64

	listener net.Listener
	server   *http.Server
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// NewWebSocketTransport listens on addr and starts serving. raw may be nil
// when the raw channel is disabled.
func NewWebSocketTransport(addr string, channels Channels, raw Drainer) (*WebSocketTransport, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	wst := &WebSocketTransport{
		channels: channels,
		raw:      raw,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // hosts run on the same machine
			},
		},
		clients:   make(map[*client]struct{}),
		broadcast: make(chan any, 2*eeg.BatchSize),
		listener:  ln,
		done:      make(chan struct{}),
	}
	wst.start()
	return wst, nil
}

// start begins the HTTP server and the broadcast loop.
func (wst *WebSocketTransport) start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)
	wst.server = &http.Server{Handler: mux}

	wst.wg.Add(2)
	go func() {
		defer wst.wg.Done()
		applog.Infof("WebSocketTransport: Serving on %s", wst.listener.Addr())
		if err := wst.server.Serve(wst.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("WebSocketTransport: Server error: %v", err)
		}
	}()
	go func() {
		defer wst.wg.Done()
		wst.handleBroadcasts()
	}()
}

// Addr returns the listen address.
func (wst *WebSocketTransport) Addr() net.Addr { return wst.listener.Addr() }

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// Dropped returns how many pushed messages were dropped on a full queue.
func (wst *WebSocketTransport) Dropped() uint64 { return wst.dropped.Load() }

// handleWebSocket upgrades the connection and serves its requests.
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketTransport: Upgrade error: %v", err)
		return
	}

	c := &client{conn: conn}
	wst.clientsMu.Lock()
	wst.clients[c] = struct{}{}
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("WebSocketTransport: Client connected, total: %d", total)

	defer func() {
		wst.clientsMu.Lock()
		delete(wst.clients, c)
		total := len(wst.clients)
		wst.clientsMu.Unlock()
		conn.Close()
		applog.Infof("WebSocketTransport: Client disconnected, total: %d", total)
	}()

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) && !errors.Is(err, net.ErrClosed) {
				applog.Debugf("WebSocketTransport: Read error: %v", err)
			}
			return
		}
		if err := c.write(wst.handle(req)); err != nil {
			applog.Debugf("WebSocketTransport: Write error: %v", err)
			return
		}
	}
}

// handle answers one request.
func (wst *WebSocketTransport) handle(req Request) Response {
	resp := Response{Op: req.Op, Channel: req.Channel}
	switch req.Op {
	case "value":
		p, err := wst.channels.Lookup(req.Channel)
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		v := p.Value()
		resp.Value = &v
	case "ticks", "buffer":
		if wst.raw == nil {
			resp.Error = "raw channel is disabled"
			return resp
		}
		var data string
		if req.Op == "ticks" {
			data = wst.raw.Ticks()
		} else {
			data = wst.raw.Buffer()
		}
		resp.Data = &data
	case "channels":
		resp.Channels = wst.channels.Names()
	default:
		resp.Error = "unknown op"
	}
	return resp
}

// handleBroadcasts sends queued messages to all connected clients.
func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case data := <-wst.broadcast:
			wst.clientsMu.Lock()
			clients := make([]*client, 0, len(wst.clients))
			for c := range wst.clients {
				clients = append(clients, c)
			}
			wst.clientsMu.Unlock()

			for _, c := range clients {
				if err := c.write(data); err != nil {
					applog.Debugf("WebSocketTransport: Error sending to client: %v", err)
					c.conn.Close()
				}
			}
		case <-wst.done:
			return
		}
	}
}

// Send queues data for every connected client. Samples are wrapped in a
// sample event. A full queue drops the message.
func (wst *WebSocketTransport) Send(data any) error {
	if s, ok := data.(eeg.Sample); ok {
		v := float64(s.Value)
		data = Response{Op: "sample", Value: &v, Seq: s.Seq, Time: s.Time}
	}
	select {
	case <-wst.done:
		return net.ErrClosed
	default:
	}
	select {
	case wst.broadcast <- data:
	default:
		wst.dropped.Add(1)
	}
	return nil
}

// Close shuts down the server and disconnects every client.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.once.Do(func() {
		applog.Infof("WebSocketTransport: Closing server")
		close(wst.done)
		err = wst.server.Close()

		wst.clientsMu.Lock()
		for c := range wst.clients {
			c.conn.Close()
		}
		wst.clientsMu.Unlock()
		wst.wg.Wait()
	})
	return err
}

// Ensure WebSocketTransport satisfies the interface
var _ Transport = (*WebSocketTransport)(nil)
