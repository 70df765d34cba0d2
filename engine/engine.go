// Package engine holds the non-API-specific substrate shared by every
// ogc/* resource package (spec.md §1, "HTTP server framework ... treated as
// external collaborators" -- engine is the thin internal substrate those
// collaborators sit on top of): configuration, content negotiation, the
// problem+json envelope, hypermedia link resolution and the landing
// page/conformance document, plus graceful shutdown. Generalized from the
// teacher's template-rendering Engine to a dynamic JSON/GeoJSON API
// substrate (SPEC_FULL.md, AMBIENT STACK).
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/PDOK/gokoala-ogc/domain"
)

const shutdownTimeout = 5 * time.Second

// Engine encapsulates shared non-OGC-API-specific logic: config, content
// negotiation, and the process-wide landing page / conformance classes.
type Engine struct {
	Config *Config
	CN     *ContentNegotiation

	// landing page and conformance classes are process-wide, mutated only
	// during router initialization and read on every landing/conformance
	// request thereafter (spec.md §5, "Mutable shared state ... protected
	// by a reader-writer lock ... After startup the lock contention is
	// read-only").
	mu            sync.RWMutex
	landingLinks  []domain.Link
	conformance   []string
}

// NewEngine builds a new Engine from a config file path.
func NewEngine(configFile string) *Engine {
	return NewEngineWithConfig(ReadConfigFile(configFile))
}

// NewEngineWithConfig builds a new Engine from an already-parsed Config.
func NewEngineWithConfig(config *Config) *Engine {
	return &Engine{
		Config: config,
		CN:     newContentNegotiation(),
	}
}

// AddConformanceClasses registers conformance class URIs, called once per
// ogc/* package at router-wiring time (mirrors the teacher's per-family
// template registration in e.g. ogc/styles/main.go's NewStyles, generalized
// from template rendering to conformance-class bookkeeping).
func (e *Engine) AddConformanceClasses(classes ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conformance = append(e.conformance, classes...)
}

// ConformanceClasses returns the accumulated conformance class list.
func (e *Engine) ConformanceClasses() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.conformance))
	copy(out, e.conformance)
	return out
}

// AddLandingPageLinks upserts links onto the shared landing-page link set
// by rel, called once per ogc/* package at router-wiring time.
func (e *Engine) AddLandingPageLinks(links ...domain.Link) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.landingLinks = domain.UpsertLinks(e.landingLinks, links...)
}

// LandingPageLinks returns the accumulated landing-page link set.
func (e *Engine) LandingPageLinks() []domain.Link {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.Link, len(e.landingLinks))
	copy(out, e.landingLinks)
	return out
}

// NewRouter builds the chi.Mux with the common middleware stack the
// teacher's main.go wires (logger, recoverer, real-IP, gzip).
func NewRouter() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RealIP)
	router.Use(middleware.Compress(5))
	return router
}

// Start the engine by initializing all components and starting the server.
func (e *Engine) Start(address string, router *chi.Mux, debugPort int, shutdownDelay int) error {
	if debugPort > 0 {
		go func() {
			debugAddress := fmt.Sprintf("localhost:%d", debugPort)
			debugRouter := chi.NewRouter()
			debugRouter.Use(middleware.Logger)
			debugRouter.Mount("/debug", middleware.Profiler())
			if err := e.startServer("debug server", debugAddress, 0, debugRouter); err != nil {
				log.Fatalf("debug server failed %v", err)
			}
		}()
	}
	return e.startServer("main server", address, shutdownDelay, router)
}

// startServer creates and starts an HTTP server, also takes care of
// graceful shutdown (unchanged from the teacher's engine.Engine.startServer).
func (e *Engine) startServer(name string, address string, shutdownDelay int, router *chi.Mux) error {
	server := http.Server{
		Addr:    address,
		Handler: router,

		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		log.Printf("%s listening on %s", name, address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to shutdown %s: %v", name, err)
		}
	}()

	<-ctx.Done()
	stop()

	if shutdownDelay > 0 {
		log.Printf("stop signal received, initiating shutdown of %s after %d seconds delay", name, shutdownDelay)
		time.Sleep(time.Duration(shutdownDelay) * time.Second)
	}
	log.Printf("shutting down %s gracefully", name)

	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(timeoutCtx)
}

// SafeWrite executes the given http.ResponseWriter.Write while logging
// errors, unchanged from the teacher's engine.SafeWrite.
func SafeWrite(write func([]byte) (int, error), body []byte) {
	_, err := write(body)
	if err != nil {
		log.Printf("failed to write response: %v", err)
	}
}
