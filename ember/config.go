package ember

import (
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/turnerm/ember/transport"
)

// Protocol describes one listening port and how to turn an accepted
// connection into a Client. Grounded on WebProtoConfig_t, minus the fields
// Go doesn't need: there's no client record size to preallocate, and
// Creator/Worker/Delete collapse into NewClient returning a fully formed
// Client.
type Protocol struct {
	// Name identifies the protocol in logs ("http", "ftp", ...).
	Name string
	// Port is the TCP port to listen on.
	Port int
	// Backlog is the listen() backlog depth.
	Backlog int
	// NewClient constructs a Client for a newly accepted connection.
	NewClient func(conn transport.Conn) Client
}

// Config is the Server's construction-time configuration. Grounded on
// EmberConfig_t/TCPServerConfig_t.
type Config struct {
	Protocols []Protocol

	// Period bounds how long the dispatcher's socket-set wait blocks per
	// cycle before falling through to service existing clients regardless.
	Period time.Duration
	// StartupDelay is how long the dispatcher goroutine started by Init
	// sleeps before its first cycle (Init itself returns at once), mirroring
	// EmberConfig_t.uxStartupDelay.
	StartupDelay time.Duration

	RcvBufSize      int
	SndBufSize      int
	FilenameBufSize int

	Logger hclog.Logger
}

// Option customizes a Server at construction time.
type Option func(*Server)

// WithPeriod overrides the dispatcher's per-cycle wait bound.
func WithPeriod(d time.Duration) Option {
	return func(s *Server) { s.cfg.Period = d }
}

// WithStartupDelay overrides the dispatcher's one-time startup delay.
func WithStartupDelay(d time.Duration) Option {
	return func(s *Server) { s.cfg.StartupDelay = d }
}

// WithLogger overrides the server's structured logger.
func WithLogger(l hclog.Logger) Option {
	return func(s *Server) { s.cfg.Logger = l }
}

// WithBufferSizes overrides the shared receive/send/filename scratch buffer
// capacities.
func WithBufferSizes(rcv, snd, filename int) Option {
	return func(s *Server) {
		s.cfg.RcvBufSize = rcv
		s.cfg.SndBufSize = snd
		s.cfg.FilenameBufSize = filename
	}
}

// DefaultConfig returns baseline settings grounded on EmberConfig_t's static
// initializer (3000ms startup delay, 10ms period) and
// emberTCP_RCV_BUFFER_SIZE/emberTCP_SND_BUFFER_SIZE-scale buffers.
func DefaultConfig(protocols ...Protocol) Config {
	return Config{
		Protocols:       protocols,
		Period:          10 * time.Millisecond,
		StartupDelay:    3 * time.Second,
		RcvBufSize:      8192,
		SndBufSize:      8192,
		FilenameBufSize: 256,
		Logger:          hclog.NewNullLogger(),
	}
}
