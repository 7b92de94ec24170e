// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package webserver

import (
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"paywaila.org/waila/client/core"
	"paywaila.org/waila/wallet/msgjson"
	"paywaila.org/waila/wallet/ws"
)

var (
	// Time allowed to read the next pong message from the peer. The
	// default is intended for production, but leaving as a var instead of const
	// to facilitate testing.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait. The
	// default is intended for production, but leaving as a var instead of const
	// to facilitate testing.
	pingPeriod = (pongWait * 9) / 10
	// A client id counter.
	cidCounter atomic.Int32
)

type wsClient struct {
	*ws.WSLink
	cid int32
}

// handleWS handles the websocket connection request, creating a ws.Connection
// and serving the client until the connection closes.
func (s *WebServer) handleWS(w http.ResponseWriter, r *http.Request) {
	ip := r.RemoteAddr
	// If a host:port can be parsed, the IP is only the host portion.
	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		ip = host
	}
	wsConn, err := ws.NewConnection(w, r, pingPeriod+pongWait, s.log)
	if err != nil {
		// The upgrader has already responded.
		s.log.Errorf("ws connection error: %v", err)
		return
	}
	s.websocketHandler(wsConn, ip)
}

// websocketHandler handles a new websocket client by creating a new wsClient,
// starting it, and blocking until the connection closes.
func (s *WebServer) websocketHandler(conn ws.Connection, ip string) {
	cl := &wsClient{cid: cidCounter.Add(1)}
	s.log.Debugf("New websocket client %s (%d)", ip, cl.cid)
	cl.WSLink = ws.NewWSLink(ip, conn, pingPeriod, func(msg *msgjson.Message) *msgjson.Error {
		return s.handleMessage(cl, msg)
	}, s.log)

	s.mtx.Lock()
	s.clients[cl.cid] = cl
	s.mtx.Unlock()
	defer func() {
		s.mtx.Lock()
		delete(s.clients, cl.cid)
		s.mtx.Unlock()
	}()
	wg, err := cl.Connect(s.ctx)
	if err != nil {
		s.log.Errorf("websocket client connect error: %v", err)
		return
	}
	wg.Wait()
	s.log.Tracef("Disconnected websocket client %s (%d)", cl.IP(), cl.cid)
}

// notify sends a Core notification to every websocket client.
func (s *WebServer) notify(n core.Notification) {
	msg, err := msgjson.NewNotification(msgjson.NotifyRoute, n)
	if err != nil {
		s.log.Errorf("%q notification encoding error: %v", n.Type(), err)
		return
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	for _, cl := range s.clients {
		if err := cl.Send(msg); err != nil {
			s.log.Debugf("notification send error for client %s (%d): %v", cl.IP(), cl.cid, err)
		}
	}
}

// handleMessage handles the websocket message, calling the right handler for
// the route.
func (s *WebServer) handleMessage(cl *wsClient, msg *msgjson.Message) *msgjson.Error {
	s.log.Tracef("message of type %d received for route %s", msg.Type, msg.Route)
	if msg.Type != msgjson.Request {
		// Web server doesn't send requests, only responses and notifications,
		// so a response-type message from a client is an error.
		return msgjson.NewError(msgjson.RPCUnknownRoute, "web server only handles requests")
	}
	handler, found := wsHandlers[msg.Route]
	if !found {
		return msgjson.NewError(msgjson.RPCUnknownRoute, "unknown route %q", msg.Route)
	}
	return handler(s, cl, msg)
}

// wsHandlers is the map used by the server to locate the router handler for a
// request.
var wsHandlers = map[string]func(*WebServer, *wsClient, *msgjson.Message) *msgjson.Error{
	msgjson.ResolveRoute:       wsResolve,
	msgjson.CheckInFlightRoute: wsCheckInFlight,
}

// wsResolve is the handler for the 'resolve' websocket route. The result is
// the payment descriptor.
func wsResolve(s *WebServer, cl *wsClient, msg *msgjson.Message) *msgjson.Error {
	req := new(msgjson.ResolveRequest)
	if err := msg.Unmarshal(req); err != nil {
		return msgjson.NewError(msgjson.RPCParseError, "error parsing resolve request: %v", err)
	}
	desc, err := s.resolve(req)
	if err != nil {
		return rpcError(err)
	}
	return respond(s, cl, msg.ID, desc)
}

// wsCheckInFlight is the handler for the 'checkinflight' websocket route. The
// result is true if a notification was sent.
func wsCheckInFlight(s *WebServer, cl *wsClient, msg *msgjson.Message) *msgjson.Error {
	return respond(s, cl, msg.ID, s.core.CheckInFlight(s.ctx))
}

func respond(s *WebServer, cl *wsClient, id uint64, result any) *msgjson.Error {
	resp, err := msgjson.NewResponse(id, result, nil)
	if err != nil {
		s.log.Errorf("error encoding response: %v", err)
		return msgjson.NewError(msgjson.RPCInternal, "error encoding response")
	}
	if err := cl.Send(resp); err != nil {
		s.log.Debugf("error sending response to client %s (%d): %v", cl.IP(), cl.cid, err)
	}
	return nil
}
