package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/valyala/fastjson"
	"golang.org/x/time/rate"

	"github.com/coffersTech/logbridge/internal/config"
	"github.com/coffersTech/logbridge/internal/model"
	"github.com/coffersTech/logbridge/internal/mutate"
	"github.com/coffersTech/logbridge/internal/pool"
)

// IngestServer exposes exactly one route: POST on the configured path.
// Each request is one stateless transaction: decode, translate, build
// the batch, borrow a connection, write, respond.
type IngestServer struct {
	cfg     config.Config
	pool    *pool.Pool
	parsers fastjson.ParserPool
	limiter *rate.Limiter // nil unless an rps guard is configured
	srv     *http.Server
	done    chan struct{}

	requestCounter int64 // total ingest requests accepted
	recordCounter  int64 // total records written
	currentRate    int64 // records per second, updated by the stats ticker
}

// NewIngestServer wires the server against an already-built pool.
func NewIngestServer(cfg config.Config, pl *pool.Pool) *IngestServer {
	s := &IngestServer{
		cfg:  cfg,
		pool: pl,
		done: make(chan struct{}),
	}
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	return s
}

// Handler builds the route table.
func (s *IngestServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.ListenRoute, s.handlePut)
	return mux
}

// Listen binds the configured address. Kept separate from Serve so the
// caller can fail the process on a bind error before going async.
func (s *IngestServer) Listen() (net.Listener, error) {
	return net.Listen("tcp", s.cfg.ListenAddr)
}

// Serve runs the HTTP server on ln until Shutdown.
func (s *IngestServer) Serve(ln net.Listener) error {
	s.srv = &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server and the stats ticker.
func (s *IngestServer) Shutdown(ctx context.Context) error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

// handlePut processes one write batch.
func (s *IngestServer) handlePut(w http.ResponseWriter, r *http.Request) {
	// ServeMux treats "/" as a catch-all; the bridge serves only the
	// configured route.
	if r.URL.Path != s.cfg.ListenRoute {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	start := time.Now()
	reqID := uuid.NewString()
	atomic.AddInt64(&s.requestCounter, 1)

	body, err := s.readBody(w, r)
	if err != nil {
		log.Printf("[%s] failed to read body: %v", reqID, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p := s.parsers.Get()
	defer s.parsers.Put(p)

	batch, err := model.ParseBatch(p, body)
	if err != nil {
		log.Printf("[%s] bad request body: %v", reqID, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows := make([]mutate.RowBatch, 0, len(batch))
	for _, rec := range batch {
		rb, terr := mutate.Translate(rec, s.cfg.ColumnFamily)
		if terr != nil {
			// Faithful to the system this replaces: translation
			// failures share the generic failure path.
			s.fail(w, reqID, terr)
			return
		}
		rows = append(rows, rb)
	}
	wb := mutate.Build(rows)

	lease, err := s.pool.Get(r.Context())
	if err != nil {
		s.fail(w, reqID, err)
		return
	}
	defer lease.Release()

	wctx, cancel := context.WithTimeout(r.Context(), s.cfg.WriteTimeout)
	defer cancel()
	if err := lease.Conn().Put(wctx, s.cfg.TableName, wb); err != nil {
		lease.MarkBroken()
		s.fail(w, reqID, err)
		return
	}

	atomic.AddInt64(&s.recordCounter, int64(len(batch)))
	w.WriteHeader(http.StatusCreated)
	log.Printf("[%s] wrote %d records to %s in %v", reqID, len(batch), s.cfg.TableName, time.Since(start))
}

// readBody returns the request body, transparently decoding gzip and
// enforcing the configured size cap.
func (s *IngestServer) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	var reader io.Reader = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodySize)
	if r.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, errors.New("invalid gzip body")
		}
		defer gz.Close()
		// The cap must hold after inflation too, not just on the
		// compressed bytes.
		reader = io.LimitReader(gz, s.cfg.MaxBodySize+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > s.cfg.MaxBodySize {
		return nil, errors.New("request body too large")
	}
	return body, nil
}

// fail maps any per-request error to the uniform server failure: 500
// with the error text as body. Nothing is retried here.
func (s *IngestServer) fail(w http.ResponseWriter, reqID string, err error) {
	log.Printf("[%s] write failed: %v", reqID, err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
