// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package webserver is the HTTP surface of the wallet shell. It serves a
// small JSON API for resolving payment strings, a websocket feed of Core
// notifications, and the prometheus metrics.
package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"paywaila.org/waila/client/core"
	"paywaila.org/waila/client/payreq"
	"paywaila.org/waila/wallet"
)

const (
	// rpcTimeoutSeconds is the number of seconds a connection to the
	// server is allowed to stay open without completing a request.
	rpcTimeoutSeconds = 10
	// maxBodySize is the limit on an API request body.
	maxBodySize = 1 << 16
	// DefaultRateLimit is the default sustained rate of API requests per
	// second.
	DefaultRateLimit = 10
)

var validate = validator.New()

// clientCore is satisfied by core.Core.
type clientCore interface {
	Network() wallet.Network
	ResolveFor(raw string, net wallet.Network) (*payreq.Descriptor, error)
	CheckInFlight(ctx context.Context) bool
	NotificationFeed() <-chan core.Notification
}

var (
	_ clientCore    = (*core.Core)(nil)
	_ wallet.Runner = (*WebServer)(nil)
)

// Config is the configuration for the WebServer.
type Config struct {
	Core clientCore
	// Addr is the listen address.
	Addr string
	// Logger is the WEB subsystem logger. Nil disables logging.
	Logger wallet.Logger
	// RateLimit is the sustained rate of /api requests per second. The burst
	// is twice the rate. Zero means DefaultRateLimit.
	RateLimit float64
	// Gatherer is the metrics source for /metrics. Nil means the prometheus
	// default gatherer.
	Gatherer prometheus.Gatherer
	// Indent pretty-prints JSON responses.
	Indent bool
}

// WebServer is an http and websocket server for the wallet shell.
type WebServer struct {
	ctx     context.Context
	core    clientCore
	log     wallet.Logger
	addr    string
	srv     *http.Server
	limiter *rate.Limiter
	indent  bool

	mtx     sync.RWMutex
	clients map[int32]*wsClient
}

// New is the constructor for a new WebServer.
func New(cfg *Config) (*WebServer, error) {
	if cfg.Core == nil {
		return nil, errors.New("no core")
	}
	log := cfg.Logger
	if log == nil {
		log = wallet.Disabled
	}
	rateLimit := cfg.RateLimit
	if rateLimit < 0 {
		return nil, fmt.Errorf("negative rate limit %f", rateLimit)
	}
	if rateLimit == 0 {
		rateLimit = DefaultRateLimit
	}
	burst := int(2 * rateLimit)
	if burst < 1 {
		burst = 1
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// Create an HTTP router.
	mux := chi.NewRouter()
	httpServer := &http.Server{
		Handler:      mux,
		ReadTimeout:  rpcTimeoutSeconds * time.Second, // slow requests should not hold connections opened
		WriteTimeout: rpcTimeoutSeconds * time.Second, // hung responses must die
	}

	// Make the server here so its methods can be registered.
	s := &WebServer{
		ctx:     context.Background(),
		core:    cfg.Core,
		log:     log,
		addr:    cfg.Addr,
		srv:     httpServer,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), burst),
		indent:  cfg.Indent,
		clients: make(map[int32]*wsClient),
	}

	// Middleware
	mux.Use(securityMiddleware)
	mux.Use(middleware.Recoverer)
	// Websocket endpoint
	mux.Get("/ws", s.handleWS)
	mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimiter)
		r.Get("/qr", s.apiQR)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			r.Post("/resolve", s.apiResolve)
			r.Post("/checkinflight", s.apiCheckInFlight)
		})
	})

	return s, nil
}

// Run starts the web server. Satisfies the wallet.Runner interface.
func (s *WebServer) Run(ctx context.Context) {
	// Websocket clients are bound to the server's context.
	s.ctx = ctx
	// Start serving.
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.log.Errorf("Can't listen on %s. web server quitting: %v", s.addr, err)
		return
	}

	// Shutdown the server on context cancellation.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		err := s.srv.Shutdown(context.Background())
		if err != nil {
			s.log.Errorf("Problem shutting down rpc: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.readNotifications(ctx)
	}()

	s.log.Infof("Web server listening on http://%s", listener.Addr())
	err = s.srv.Serve(listener)
	if !errors.Is(err, http.ErrServerClosed) {
		s.log.Warnf("unexpected (http.Server).Serve error: %v", err)
	}
	s.log.Infof("Web server off")

	// Disconnect the websocket clients since Shutdown does not deal with
	// hijacked websocket connections.
	s.mtx.RLock()
	for _, cl := range s.clients {
		cl.Disconnect()
	}
	s.mtx.RUnlock()

	wg.Wait()
}

// readNotifications reads from the Core notification channel and relays to
// websocket clients.
func (s *WebServer) readNotifications(ctx context.Context) {
	ch := s.core.NotificationFeed()
	for {
		select {
		case n := <-ch:
			s.notify(n)
		case <-ctx.Done():
			return
		}
	}
}

// readPost unmarshals the request body into the provided interface.
func (s *WebServer) readPost(w http.ResponseWriter, r *http.Request, thing any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	r.Body.Close()
	if err != nil {
		s.log.Debugf("Error reading request body: %v", err)
		http.Error(w, "error reading JSON message", http.StatusBadRequest)
		return false
	}
	err = json.Unmarshal(body, thing)
	if err != nil {
		s.log.Debugf("failed to unmarshal JSON request: %v", err)
		http.Error(w, "failed to unmarshal JSON request", http.StatusBadRequest)
		return false
	}
	return true
}

// writeJSON marshals the provided interface and writes the bytes to the
// ResponseWriter. The response code is assumed to be StatusOK.
func (s *WebServer) writeJSON(w http.ResponseWriter, thing any) {
	s.writeJSONWithStatus(w, thing, http.StatusOK)
}

// writeJSONWithStatus marshals the provided interface and writes the bytes to
// the ResponseWriter with the specified response code.
func (s *WebServer) writeJSONWithStatus(w http.ResponseWriter, thing any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	encoder := json.NewEncoder(w)
	if s.indent {
		encoder.SetIndent("", "    ")
	}
	if err := encoder.Encode(thing); err != nil {
		s.log.Infof("JSON encode error: %v", err)
	}
}
