// Package web provides a live dashboard for a detection session: annotated
// camera frames and side classifications streamed over websockets.
package web

import (
	"context"
	_ "embed"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-rangeaware/internal/log"
	"github.com/teslashibe/go-rangeaware/pkg/classifier"
	"github.com/teslashibe/go-rangeaware/pkg/hub"
	"gocv.io/x/gocv"
)

//go:embed index.html
var indexHTML []byte

// maxEvents is how many recent events /api/detections keeps
const maxEvents = 200

// Status is the session summary served at /api/status
type Status struct {
	Session        string             `json:"session"`
	StartedAt      time.Time          `json:"started_at"`
	Frames         uint64             `json:"frames"`
	FPS            float64            `json:"fps"`
	LastDetections []classifier.Event `json:"last_detections"`
	CameraClients  int                `json:"camera_clients"`
	EventClients   int                `json:"event_clients"`
}

// Server is the web dashboard server. It implements classifier.Publisher.
type Server struct {
	app         *fiber.App
	addr        string
	jpegQuality int

	status   Status
	statusMu sync.RWMutex

	events   []classifier.Event
	eventsMu sync.RWMutex

	cameraHub *hub.Hub
	eventHub  *hub.Hub

	// Closed once Serve has returned and shutdown has finished
	stopped chan struct{}
}

// NewServer creates a dashboard for session listening on addr (e.g. ":8080").
func NewServer(addr, session string) *Server {
	s := &Server{
		addr:        addr,
		jpegQuality: 80,
		status: Status{
			Session:        session,
			StartedAt:      time.Now(),
			LastDetections: []classifier.Event{},
		},
		events:    make([]classifier.Event, 0, maxEvents),
		cameraHub: hub.New("camera"),
		eventHub:  hub.New("detections"),
		stopped:   make(chan struct{}),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Range-awareness Dashboard",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	app.Get("/", s.handleIndex)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/detections", s.handleDetections)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/camera", websocket.New(s.serveHub(s.cameraHub)))
	app.Get("/ws/detections", websocket.New(s.serveHub(s.eventHub)))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve runs the hubs and serves HTTP on ln until ctx is canceled. When ctx
// ends it returns only after open connections have drained or the shutdown
// timeout has passed. Serve must be called at most once.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer close(s.stopped)

	go s.cameraHub.Run(ctx)
	go s.eventHub.Run(ctx)

	shutdown := make(chan struct{})
	go func() {
		defer close(shutdown)
		<-ctx.Done()
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Warn("dashboard shutdown", "error", err)
		}
		// Covers a cancel that lands before the app starts accepting.
		ln.Close()
	}()

	log.Info("web dashboard listening", "url", "http://"+ln.Addr().String())
	err := s.app.Listener(ln)
	if ctx.Err() != nil {
		<-shutdown
	}
	return err
}

// StartAsync listens on the configured address and serves in a goroutine.
// Use Wait to block until that goroutine has shut down.
func (s *Server) StartAsync(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.Serve(ctx, ln); err != nil {
			log.Error("web server error", "error", err)
		}
	}()
	return nil
}

// Stopped is closed once Serve has returned.
func (s *Server) Stopped() <-chan struct{} {
	return s.stopped
}

// Wait blocks until Serve has returned or ctx is done.
func (s *Server) Wait(ctx context.Context) error {
	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishFrame records events and pushes them, plus the annotated frame when
// anyone is watching, to websocket clients. It is called from the detection
// loop and never blocks on the network.
func (s *Server) PublishFrame(frame gocv.Mat, fps float64, events []classifier.Event) {
	s.statusMu.Lock()
	s.status.Frames++
	s.status.FPS = fps
	if len(events) > 0 {
		s.status.LastDetections = append([]classifier.Event(nil), events...)
	}
	s.statusMu.Unlock()

	if len(events) > 0 {
		s.eventsMu.Lock()
		s.events = append(s.events, events...)
		if over := len(s.events) - maxEvents; over > 0 {
			s.events = append(s.events[:0], s.events[over:]...)
		}
		s.eventsMu.Unlock()

		for _, e := range events {
			if err := s.eventHub.BroadcastJSON(e); err != nil {
				log.Warn("encode event", "error", err)
			}
		}
	}

	if s.cameraHub.ClientCount() == 0 || frame.Empty() {
		return
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame, []int{gocv.IMWriteJpegQuality, s.jpegQuality})
	if err != nil {
		log.Warn("encode frame", "error", err)
		return
	}
	jpeg := append([]byte(nil), buf.GetBytes()...)
	buf.Close()
	s.cameraHub.BroadcastBinary(jpeg)
}

// Events returns a copy of the recent events, oldest first.
func (s *Server) Events() []classifier.Event {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return append([]classifier.Event(nil), s.events...)
}

// Status returns a snapshot of the session summary.
func (s *Server) Status() Status {
	s.statusMu.RLock()
	st := s.status
	s.statusMu.RUnlock()

	st.CameraClients = s.cameraHub.ClientCount()
	st.EventClients = s.eventHub.ClientCount()
	return st
}

// CameraHub returns the hub carrying JPEG frames
func (s *Server) CameraHub() *hub.Hub {
	return s.cameraHub
}

// EventHub returns the hub carrying detection events
func (s *Server) EventHub() *hub.Hub {
	return s.eventHub
}
