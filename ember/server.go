// Package ember is the core of the Ember server (spec.md C2/C3): the
// cooperative single-task dispatcher that owns every listening and client
// socket, the intrusive client list, and the shared per-cycle scratch
// buffers every protocol worker reuses.
//
// Grounded on original_source/src/ember.c. The FreeRTOS task loop becomes a
// single goroutine started by Init and stopped by DeInit; the semaphore
// around the client list becomes timedMutex; the pending-accept burst
// buffer is github.com/eapache/queue, the same dependency the teacher
// (momentics-hioload-ws) wires into its own executor for bounded
// backpressure.
package ember

import (
	"fmt"
	"time"

	"github.com/eapache/queue"
	"github.com/hashicorp/go-hclog"

	"github.com/turnerm/ember/iobuf"
	"github.com/turnerm/ember/transport"
)

type pendingConn struct {
	conn     transport.Conn
	protocol int
}

// Server is Ember's single TCP dispatcher. One Server owns one socket set,
// one shared buffer pair, and the list of every currently connected client
// across every configured protocol.
type Server struct {
	cfg Config
	log hclog.Logger

	listeners []transport.Listener
	sockets   transport.SocketSet
	buf       *iobuf.Buffers
	pending   *queue.Queue

	mu   timedMutex
	head *node

	stopCh chan struct{}
	doneCh chan struct{}
	state  uint32 // 0=stopped, 1=running
}

// New constructs a Server from cfg, applying opts. The server does not open
// any sockets until Init is called.
func New(cfg Config, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		mu:      newTimedMutex(),
		pending: queue.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.Logger == nil {
		s.cfg.Logger = hclog.NewNullLogger()
	}
	s.log = s.cfg.Logger.Named("ember.dispatcher")
	return s
}

// Init starts the dispatcher goroutine, idempotently. Grounded on
// Ember_Init.
func (s *Server) Init() error {
	if s.state == 1 {
		return nil
	}
	if len(s.cfg.Protocols) == 0 {
		return fmt.Errorf("ember: no protocols configured")
	}
	sockets, err := transport.NewSocketSet()
	if err != nil {
		return fmt.Errorf("ember: create socket set: %w", err)
	}
	s.sockets = sockets
	s.buf = iobuf.New(s.cfg.RcvBufSize, s.cfg.SndBufSize, s.cfg.FilenameBufSize)

	for _, p := range s.cfg.Protocols {
		l, err := transport.Listen(p.Port, p.Backlog)
		if err != nil {
			return fmt.Errorf("ember: listen %s on %d: %w", p.Name, p.Port, err)
		}
		if err := s.sockets.Register(l.Fd()); err != nil {
			return fmt.Errorf("ember: register listener %s: %w", p.Name, err)
		}
		s.listeners = append(s.listeners, l)
		s.log.Info("listening", "protocol", p.Name, "port", p.Port)
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.state = 1
	go s.run()
	return nil
}

// DeInit stops the dispatcher goroutine and closes every socket,
// idempotently. Grounded on Ember_DeInit.
func (s *Server) DeInit() error {
	if s.state == 0 {
		return nil
	}
	close(s.stopCh)
	<-s.doneCh
	s.state = 0

	s.mu.Lock()
	for n := s.head; n != nil; n = n.next {
		s.dropClientLocked(n)
	}
	s.head = nil
	s.mu.Unlock()

	for _, l := range s.listeners {
		l.Close()
	}
	s.listeners = nil
	if s.sockets != nil {
		s.sockets.Close()
	}
	return nil
}

func (s *Server) run() {
	if s.cfg.StartupDelay > 0 {
		time.Sleep(s.cfg.StartupDelay)
	}
	defer close(s.doneCh)
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}
		ready, err := s.sockets.Wait(s.cfg.Period)
		if err != nil {
			s.log.Error("socket wait failed", "error", err)
		}
		if ready {
			s.acceptAll()
		}
		s.serviceAll()
	}
}

// acceptAll drains every listener's backlog into the pending queue, then
// creates client records for each, matching prvTCPServerWork's accept
// phase but with the burst buffered through eapache/queue so socket
// registration and list insertion stay a separate, lock-scoped step from
// the raw, allocation-free accept loop.
func (s *Server) acceptAll() {
	for i, l := range s.listeners {
		for {
			conn, err := l.Accept()
			if err != nil {
				s.log.Warn("accept failed", "protocol", s.cfg.Protocols[i].Name, "error", err)
				break
			}
			if conn == nil {
				break
			}
			s.pending.Add(pendingConn{conn: conn, protocol: i})
		}
	}
	for s.pending.Length() > 0 {
		pc := s.pending.Remove().(pendingConn)
		s.acceptNewClient(pc.protocol, pc.conn)
	}
}

// acceptNewClient constructs a Client for conn and links it at the head of
// the client list. Grounded on prvAcceptNewClient.
func (s *Server) acceptNewClient(protocolIdx int, conn transport.Conn) {
	proto := s.cfg.Protocols[protocolIdx]
	client := proto.NewClient(conn)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sockets.Register(conn.Fd()); err != nil {
		s.log.Error("register client failed", "error", err)
		conn.Close()
		return
	}
	n := &node{client: client, next: s.head}
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
}

// serviceAll calls Work on every live client once, dropping any that report
// an error or go quiet on the wire, and swapping in any client that
// completed a protocol upgrade mid-cycle. Grounded on prvTCPServerWork's
// service phase.
func (s *Server) serviceAll() {
	s.mu.Lock()
	curr := s.head
	s.mu.Unlock()

	for curr != nil {
		s.mu.Lock()
		n := curr
		next := n.next
		s.mu.Unlock()

		if !n.client.Conn().Alive() {
			s.removeClient(n)
			curr = next
			continue
		}

		rc, err := n.client.Work(s.buf)
		if up, ok := n.client.(upgradeable); ok {
			if repl := up.TakeUpgraded(); repl != nil {
				if wc, ok := repl.(Client); ok {
					s.mu.Lock()
					n.client = wc
					s.mu.Unlock()
				}
			}
		}
		if err != nil || rc < 0 {
			s.removeClient(n)
		}
		curr = next
	}
}

func (s *Server) removeClient(n *node) {
	s.mu.Lock()
	s.dropClientLocked(n)
	s.mu.Unlock()
}

// dropClientLocked closes and unlinks n. Must be called with s.mu held.
// Grounded on prvDropClient, including its void return: the caller never
// needs the unlinked node back, only the client list's head pointer, which
// this updates directly.
func (s *Server) dropClientLocked(n *node) {
	n.client.Close()
	if conn := n.client.Conn(); conn != nil {
		s.sockets.Unregister(conn.Fd())
		conn.Close()
	}
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.head == n {
		s.head = n.next
	}
}

// SelectClients walks every currently connected client, head to tail, and
// calls action on each. A negative return from action drops that client.
// The walk is atomic with respect to concurrent accepts and drops: it holds
// the client-list lock for its duration, bounded by twice the dispatcher's
// period, matching Ember_SelectClients. If the lock can't be acquired in
// time, or the dispatcher isn't running, SelectClients is a no-op.
func (s *Server) SelectClients(action func(c Client) int) {
	if s.state == 0 {
		return
	}
	if !s.mu.TryLockTimeout(2 * s.cfg.Period) {
		return
	}
	defer s.mu.Unlock()
	curr := s.head
	for curr != nil {
		next := curr.next
		if action(curr.client) < 0 {
			s.dropClientLocked(curr)
		}
		curr = next
	}
}
