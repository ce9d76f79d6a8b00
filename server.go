package foyer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomodule/redigo/redis"
	"github.com/hearthside/foyer/auth"
)

// Server is the main interface handlers use to interact with the rest of foyer. It provides an
// abstraction that makes mocking easier for isolated unit tests
type Server interface {
	Config() *Config
	Store() Store

	AddHandlerRoute(handler Handler, method string, path string, handlerFunc HandlerFunc)
	AddAuthedHandlerRoute(handler Handler, method string, path string, handlerFunc HandlerFunc)

	WaitGroup() *sync.WaitGroup
	StopChan() chan bool
	Stopped() bool

	Router() chi.Router

	Start() error
	Stop() error
}

// NewServer creates a new Server for the passed in configuration, gating authed routes with a JWT
// token gate built from the config. The server will have to be started afterwards.
func NewServer(config *Config, store Store) Server {
	return NewServerWithGate(config, store, auth.NewJWTGate(config.JWTSecret, config.JWTAudience))
}

// NewServerWithGate creates a new Server which uses the passed in gate for authed routes
func NewServerWithGate(config *Config, store Store, gate auth.TokenGate) Server {
	router := chi.NewRouter()
	router.Use(middleware.Compress(5))
	router.Use(middleware.StripSlashes)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	return &server{
		config: config,
		store:  store,
		gate:   gate,

		router: router,

		stopChan:  make(chan bool),
		waitGroup: &sync.WaitGroup{},
		stopped:   false,
	}
}

type server struct {
	config *Config
	store  Store
	gate   auth.TokenGate

	httpServer *http.Server
	router     *chi.Mux

	redisPool *redis.Pool

	waitGroup *sync.WaitGroup
	stopChan  chan bool
	stopped   bool

	routes []string
}

// Start starts the server listening for incoming requests, returning an error if it encounters
// any unrecoverable problem
func (s *server) Start() error {
	// start our store
	if err := s.store.Start(); err != nil {
		return err
	}

	// create our rate limiting pool if we have a redis config
	if s.config.Redis != "" {
		pool, err := newRedisPool(s.config.Redis)
		if err != nil {
			return err
		}
		s.redisPool = pool
	}

	// wire up our main pages
	s.router.NotFound(s.handle404)
	s.router.MethodNotAllowed(s.handle405)
	s.router.Get("/", s.handleIndex)
	s.router.Get("/status", s.handleStatus)

	// initialize our handlers
	for _, handler := range registeredHandlers {
		if err := handler.Initialize(s); err != nil {
			return err
		}
		slog.Info("handler initialized", "comp", "server", "handler", handler.Name())
	}
	sort.Strings(s.routes)

	// configure timeouts on our server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Address, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.waitGroup.Add(1)
	go func() {
		defer s.waitGroup.Done()

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.Error("server stopping", "comp", "server", "error", err)
		}
	}()

	slog.Info("server listening", "comp", "server", "port", s.config.Port, "version", s.config.Version)
	return nil
}

// Stop stops the server, returning only after all requests have completed
func (s *server) Stop() error {
	log := slog.With("comp", "server")
	log.Info("stopping server")

	if err := s.httpServer.Shutdown(context.Background()); err != nil {
		log.Error("error shutting down server", "error", err)
	}

	s.stopped = true
	close(s.stopChan)

	if err := s.store.Stop(); err != nil {
		return err
	}

	if s.redisPool != nil {
		s.redisPool.Close()
	}

	s.waitGroup.Wait()

	log.Info("server stopped")
	return nil
}

func (s *server) WaitGroup() *sync.WaitGroup { return s.waitGroup }
func (s *server) StopChan() chan bool        { return s.stopChan }
func (s *server) Config() *Config            { return s.config }
func (s *server) Stopped() bool              { return s.stopped }

func (s *server) Store() Store       { return s.store }
func (s *server) Router() chi.Router { return s.router }

// AddHandlerRoute adds a route for the passed in handler
func (s *server) AddHandlerRoute(handler Handler, method string, path string, handlerFunc HandlerFunc) {
	s.addRoute(handler, method, path, handlerFunc, false)
}

// AddAuthedHandlerRoute adds a route for the passed in handler which is only reachable with a
// valid token, requests failing the gate are rejected before the handler runs
func (s *server) AddAuthedHandlerRoute(handler Handler, method string, path string, handlerFunc HandlerFunc) {
	s.addRoute(handler, method, path, handlerFunc, true)
}

func (s *server) addRoute(handler Handler, method string, path string, handlerFunc HandlerFunc, authed bool) {
	s.router.Method(strings.ToUpper(method), path, s.handlerWrapper(handler, handlerFunc, authed))
	s.routes = append(s.routes, fmt.Sprintf("%-8s %-30s - %s", strings.ToUpper(method), path, handler.Name()))
}

func (s *server) handlerWrapper(handler Handler, handlerFunc HandlerFunc, authed bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := slog.With("handler", handler.Name(), "method", r.Method, "url", r.URL.String())

		if authed {
			if err := s.gate.Authenticate(r); err != nil {
				log.Info("request rejected by token gate", "error", err)
				WriteResponse(w, NewErrorResponse(http.StatusUnauthorized, "unauthorized"))
				return
			}
		}

		// writes are rate limited per client IP when we have a redis pool
		if r.Method == http.MethodPost && s.redisPool != nil && s.config.RateLimitPerMinute > 0 {
			limited, err := s.rateLimited(r.RemoteAddr)
			if err != nil {
				log.Error("error checking rate limit", "error", err)
			} else if limited {
				log.Info("request rate limited", "ip", r.RemoteAddr)
				WriteResponse(w, NewErrorResponse(http.StatusTooManyRequests, "rate limit exceeded"))
				return
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		resp, err := handlerFunc(ctx, r.WithContext(ctx))
		if err != nil {
			log.Error("error handling request", "error", err, "elapsed", time.Since(start))
			WriteServerError(w, err)
			return
		}

		if err := WriteResponse(w, resp); err != nil {
			log.Error("error writing response", "error", err)
			return
		}

		log.Info("request handled", "status", resp.Status, "elapsed", time.Since(start))
	}
}

// rateLimited increments the one minute counter for the passed in client IP, returning whether
// the client is over our configured limit
func (s *server) rateLimited(ip string) (bool, error) {
	rc := s.redisPool.Get()
	defer rc.Close()

	key := fmt.Sprintf("foyer:rate:%s:%d", ip, time.Now().Unix()/60)

	count, err := redis.Int(rc.Do("INCR", key))
	if err != nil {
		return false, err
	}
	if count == 1 {
		if _, err := rc.Do("EXPIRE", key, 60); err != nil {
			return false, err
		}
	}

	return count > s.config.RateLimitPerMinute, nil
}

func newRedisPool(redisURL string) (*redis.Pool, error) {
	pool := &redis.Pool{
		Wait:        true,
		MaxActive:   8,
		MaxIdle:     4,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(redisURL)
		},
	}

	// test our connection
	conn := pool.Get()
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		slog.Error("redis not reachable", "error", err)
	} else {
		slog.Info("redis ok")
	}

	return pool, nil
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	buf.WriteString("<title>foyer</title><body><pre>\n")
	buf.WriteString(splash)
	buf.WriteString(s.config.Version)

	buf.WriteString(s.store.Health())

	buf.WriteString("\n\n")
	buf.WriteString(strings.Join(s.routes, "\n"))
	buf.WriteString("</pre></body>")
	w.Write(buf.Bytes())
}

func (s *server) handle404(w http.ResponseWriter, r *http.Request) {
	slog.Info("not found", "url", r.URL.String(), "method", r.Method, "resp_status", "404")
	if err := WriteResponse(w, NewErrorResponse(http.StatusNotFound, fmt.Sprintf("not found: %s", r.URL.String()))); err != nil {
		slog.Error("error writing response", "error", err)
	}
}

func (s *server) handle405(w http.ResponseWriter, r *http.Request) {
	slog.Info("invalid method", "url", r.URL.String(), "method", r.Method, "resp_status", "405")
	if err := WriteResponse(w, NewErrorResponse(http.StatusMethodNotAllowed, fmt.Sprintf("method not allowed: %s", r.Method))); err != nil {
		slog.Error("error writing response", "error", err)
	}
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.config.StatusUsername != "" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.config.StatusUsername || pass != s.config.StatusPassword {
			w.Header().Set("WWW-Authenticate", `Basic realm="Authenticate"`)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized.\n"))
			return
		}
	}

	var buf bytes.Buffer
	buf.WriteString("<title>foyer</title><body><pre>\n")
	buf.WriteString(splash)
	buf.WriteString(s.config.Version)
	buf.WriteString("\n\n")
	buf.WriteString(s.store.Health())
	buf.WriteString("\n\n</pre></body>")
	w.Write(buf.Bytes())
}

var splash = `
   __________  __  _____  _____
  / ____/ __ \/ / / / _ \/ ___/
 / /_  / / / / /_/ /  __/ /
/_/   /_/ /_/\__, /\___/_/
            /____/          v`
