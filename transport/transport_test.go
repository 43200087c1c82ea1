package transport

import (
	"net"
	"strconv"
	"testing"
	"time"
)

// freePort asks the OS for an ephemeral port, then immediately frees it for
// Listen to rebind — good enough for a single-test race window.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("freePort: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func TestListenAcceptSendRecv(t *testing.T) {
	port := freePort(t)
	ln, err := Listen(port, 16)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	dialed := make(chan net.Conn, 1)
	go func() {
		c, err := net.Dial("tcp", "127.0.0.1:"+strconv.Itoa(port))
		if err != nil {
			t.Errorf("Dial: %v", err)
			return
		}
		dialed <- c
	}()

	var conn Conn
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c, err := ln.Accept()
		if err != nil {
			t.Fatalf("Accept: %v", err)
		}
		if c != nil {
			conn = c
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if conn == nil {
		t.Fatal("Accept never returned a connection")
	}
	defer conn.Close()

	client := <-dialed
	defer client.Close()

	if _, err := client.Write([]byte("ping")); err != nil {
		t.Fatalf("client write: %v", err)
	}

	buf := make([]byte, 16)
	var n int
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err = conn.Recv(buf)
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if string(buf[:n]) != "ping" {
		t.Fatalf("Recv = %q, want ping", buf[:n])
	}

	if _, err := conn.Send([]byte("pong")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	rn, err := client.Read(buf)
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	if string(buf[:rn]) != "pong" {
		t.Fatalf("client read = %q, want pong", buf[:rn])
	}
}

func TestSocketSetWaitReportsReady(t *testing.T) {
	port := freePort(t)
	ln, err := Listen(port, 16)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	set, err := NewSocketSet()
	if err != nil {
		t.Fatalf("NewSocketSet: %v", err)
	}
	defer set.Close()
	if err := set.Register(ln.Fd()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		c, err := net.Dial("tcp", "127.0.0.1:"+strconv.Itoa(port))
		if err == nil {
			c.Close()
		}
	}()

	ready, err := set.Wait(2 * time.Second)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !ready {
		t.Fatal("expected Wait to report readiness once a connection arrives")
	}
}
