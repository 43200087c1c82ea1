//go:build linux

// Non-blocking socket plumbing and epoll-based readiness for Linux.
// Grounded on the teacher's reactor/epoll_reactor.go (epoll create/ctl/wait
// loop) and internal/transport/transport_linux.go (non-blocking socket
// creation, TCP_NODELAY, EAGAIN handling).
package transport

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

type tcpConn struct {
	fd     int
	closed bool
}

func (c *tcpConn) Recv(buf []byte) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	n, err := unix.Read(c.fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, nil
		}
		return 0, fmt.Errorf("recv: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("recv: %w", ErrClosed)
	}
	return n, nil
}

func (c *tcpConn) Send(buf []byte) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	n, err := unix.Write(c.fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, nil
		}
		return 0, fmt.Errorf("send: %w", err)
	}
	return n, nil
}

func (c *tcpConn) SendSpace() int {
	if c.closed {
		return 0
	}
	n, err := unix.IoctlGetInt(c.fd, unix.TIOCOUTQ)
	if err != nil || n < 0 {
		return 1 << 16
	}
	space := (1 << 16) - n
	if space < 0 {
		return 0
	}
	return space
}

func (c *tcpConn) Alive() bool {
	if c.closed {
		return false
	}
	var buf [1]byte
	n, _, err := unix.Recvfrom(c.fd, buf[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
	if err != nil {
		return err == unix.EAGAIN || err == unix.EWOULDBLOCK
	}
	return n > 0
}

func (c *tcpConn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return unix.Close(c.fd)
}

func (c *tcpConn) Fd() uintptr { return uintptr(c.fd) }

type tcpListener struct {
	fd     int
	closed bool
}

func listen(port, backlog int) (Listener, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setsockopt reuseaddr: %w", err)
	}
	addr := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind: %w", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen: %w", err)
	}
	return &tcpListener{fd: fd}, nil
}

func (l *tcpListener) Accept() (Conn, error) {
	if l.closed {
		return nil, ErrClosed
	}
	fd, _, err := unix.Accept(l.fd)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil, nil
		}
		return nil, fmt.Errorf("accept: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("set nonblock: %w", err)
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	zero := unix.Timeval{}
	_ = unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &zero)
	_ = unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &zero)
	return &tcpConn{fd: fd}, nil
}

func (l *tcpListener) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	return unix.Close(l.fd)
}

func (l *tcpListener) Fd() uintptr { return uintptr(l.fd) }

// epollSocketSet registers read+except interest for every listening and
// client socket, matching spec.md's "every live client socket is registered
// ... for read+except events" invariant.
type epollSocketSet struct {
	epfd int
}

func newSocketSet() (SocketSet, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &epollSocketSet{epfd: epfd}, nil
}

func (s *epollSocketSet) Register(fd uintptr) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLERR | unix.EPOLLHUP, Fd: int32(fd)}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev); err != nil {
		return fmt.Errorf("epoll add: %w", err)
	}
	return nil
}

func (s *epollSocketSet) Unregister(fd uintptr) error {
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, int(fd), nil); err != nil {
		return fmt.Errorf("epoll del: %w", err)
	}
	return nil
}

func (s *epollSocketSet) Wait(timeout time.Duration) (bool, error) {
	var events [128]unix.EpollEvent
	ms := int(timeout / time.Millisecond)
	n, err := unix.EpollWait(s.epfd, events[:], ms)
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, fmt.Errorf("epoll wait: %w", err)
	}
	return n > 0, nil
}

func (s *epollSocketSet) Close() error {
	return unix.Close(s.epfd)
}
