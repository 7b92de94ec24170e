// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package ws manages websocket connections carrying msgjson messages.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"paywaila.org/waila/wallet"
	"paywaila.org/waila/wallet/msgjson"
)

// outBufferSize is the size of the WSLink's buffered channel for outgoing
// messages.
const outBufferSize = 128

const writeWait = 5 * time.Second

// ErrPeerDisconnected will be returned if Send is called on a disconnected
// link.
const ErrPeerDisconnected = wallet.ErrorKind("peer disconnected")

// Connection represents a websocket connection to a remote peer. In practice,
// it is satisfied by *websocket.Conn. For testing, a stub can be used.
type Connection interface {
	Close() error

	SetReadDeadline(t time.Time) error
	ReadMessage() (int, []byte, error)

	SetWriteDeadline(t time.Time) error
	WriteMessage(int, []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
}

// WSLink is the local, per-connection representation of a websocket peer.
type WSLink struct {
	// ip is the peer's IP address.
	ip   string
	conn Connection
	log  wallet.Logger
	// on prevents multiple Close calls on the underlying connection.
	on atomic.Bool
	// quit cancels the link context.
	quit context.CancelFunc
	// stopped is closed when the link stops.
	stopped chan struct{}
	outChan chan []byte
	// wg tracks the read, write and ping goroutines.
	wg         sync.WaitGroup
	handler    func(*msgjson.Message) *msgjson.Error
	pingPeriod time.Duration
}

var _ wallet.Connector = (*WSLink)(nil)

// NewWSLink is a constructor for a new WSLink.
func NewWSLink(addr string, conn Connection, pingPeriod time.Duration, handler func(*msgjson.Message) *msgjson.Error, log wallet.Logger) *WSLink {
	if log == nil {
		log = wallet.Disabled
	}
	return &WSLink{
		ip:         addr,
		conn:       conn,
		log:        log,
		stopped:    make(chan struct{}),
		outChan:    make(chan []byte, outBufferSize),
		pingPeriod: pingPeriod,
		handler:    handler,
	}
}

// Send queues the message for the peer. A nil error only means that the link
// is believed to be up and the message was encoded.
func (c *WSLink) Send(msg *msgjson.Message) error {
	if c.Off() {
		return ErrPeerDisconnected
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case c.outChan <- b:
	case <-c.stopped:
		return ErrPeerDisconnected
	}
	return nil
}

// SendError sends the msgjson.Error to the peer.
func (c *WSLink) SendError(id uint64, rpcErr *msgjson.Error) {
	msg, err := msgjson.NewResponse(id, nil, rpcErr)
	if err != nil {
		c.log.Errorf("SendError: failed to create message: %v", err)
		return
	}
	if err := c.Send(msg); err != nil {
		c.log.Debugf("SendError: failed to send message to peer %s: %v", c.ip, err)
	}
}

// Connect begins processing input and output messages. Satisfies
// wallet.Connector.
func (c *WSLink) Connect(ctx context.Context) (*sync.WaitGroup, error) {
	if !c.on.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("attempted to start a running WSLink")
	}
	linkCtx, quit := context.WithCancel(ctx)
	c.quit = quit
	// The pong handler sets subsequent read deadlines.
	if err := c.conn.SetReadDeadline(time.Now().Add(c.pingPeriod * 2)); err != nil {
		c.stop()
		return nil, fmt.Errorf("failed to set initial read deadline for %v: %w", c.ip, err)
	}

	c.log.Tracef("Starting websocket messaging with peer %s", c.ip)
	c.wg.Add(3)
	go c.inHandler(linkCtx)
	go c.outHandler(linkCtx)
	go c.pingHandler(linkCtx)
	return &c.wg, nil
}

func (c *WSLink) stop() bool {
	if !c.on.CompareAndSwap(true, false) {
		return false
	}
	close(c.stopped)
	c.quit()
	return true
}

// Disconnect begins shutdown of the WSLink. Queued messages are written
// before the connection is closed. Shutdown is complete when the WaitGroup
// returned by Connect is done.
func (c *WSLink) Disconnect() {
	if !c.stop() {
		c.log.Debugf("Disconnect attempted on stopped WSLink.")
	}
}

// inHandler handles all incoming messages for the websocket connection. It must
// be run as a goroutine.
func (c *WSLink) inHandler(ctx context.Context) {
	defer c.wg.Done()
	defer c.stop()
	for ctx.Err() == nil {
		_, msgBytes, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway,
				websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) && ctx.Err() == nil {
				c.log.Debugf("Websocket receive error from peer %s: %v", c.ip, err)
			}
			return
		}
		// A message that fails to decode is answered with an error but
		// doesn't end the connection.
		msg, err := msgjson.DecodeMessage(msgBytes)
		if err != nil || msg == nil {
			c.SendError(1, msgjson.NewError(msgjson.RPCParseError, "failed to parse message"))
			continue
		}
		if msg.ID == 0 {
			c.SendError(1, msgjson.NewError(msgjson.RPCParseError, "request id cannot be zero"))
			continue
		}
		if rpcErr := c.handler(msg); rpcErr != nil {
			c.SendError(msg.ID, rpcErr)
		}
	}
}

func (c *WSLink) write(b []byte) {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		c.log.Debugf("write error for peer %s: %v", c.ip, err)
		c.stop()
	}
}

func (c *WSLink) outHandler(ctx context.Context) {
	defer c.wg.Done()
	defer c.conn.Close()
	defer c.stop()

	// Write anything queued before the stop, if the connection is still up.
	defer func() {
		for {
			select {
			case b := <-c.outChan:
				c.write(b)
			default:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case b := <-c.outChan:
			c.write(b)
		}
	}
}

// pingHandler sends periodic pings to the client.
func (c *WSLink) pingHandler(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait))
			if err != nil {
				c.stop()
				c.log.Debugf("WriteMessage ping error: %v", err)
				return
			}
		case <-ctx.Done():
			c.log.Tracef("Websocket ping handler done for peer %s", c.ip)
			return
		}
	}
}

// Off will return true if the link has disconnected.
func (c *WSLink) Off() bool {
	return !c.on.Load()
}

// IP is the peer address passed to the constructor.
func (c *WSLink) IP() string {
	return c.ip
}

// websocket.Upgrader is the preferred method of upgrading a request to a
// websocket connection.
var upgrader = websocket.Upgrader{}

// NewConnection creates a new Connection by upgrading the http request to a
// websocket. The read deadline is extended by readTimeout with every pong.
func NewConnection(w http.ResponseWriter, r *http.Request, readTimeout time.Duration, log wallet.Logger) (Connection, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		var hsErr websocket.HandshakeError
		if errors.As(err, &hsErr) {
			log.Errorf("Unexpected websocket error: %v", err)
		}
		// The upgrader has already written an error response.
		return nil, err
	}
	reqAddr := r.RemoteAddr
	ws.SetPongHandler(func(string) error {
		log.Tracef("got pong from %v", reqAddr)
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})
	return ws, nil
}
