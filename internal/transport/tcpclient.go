package transport

import (
	"context"
	"net"
	"strings"
	"time"
)

// TCPClient dials out to a remote NMEA/Seatalk bridge, reconnecting with
// a fixed backoff if the connection drops. Addresses may carry an
// optional "tcp://" prefix.
type TCPClient struct {
	addr    string
	backoff time.Duration
	conn    net.Conn
}

func NewTCPClient(addr string) *TCPClient {
	return &TCPClient{
		addr:    strings.TrimPrefix(addr, "tcp://"),
		backoff: 5 * time.Second,
	}
}

func (c *TCPClient) Initialize(ctx context.Context) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return err
	}
	c.conn = conn
	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()
	return nil
}

func (c *TCPClient) Read(b []byte) (int, error) {
	n, err := c.conn.Read(b)
	if err != nil {
		c.reconnect()
	}
	return n, err
}

func (c *TCPClient) Write(b []byte) (int, error) {
	n, err := c.conn.Write(b)
	if err != nil {
		c.reconnect()
	}
	return n, err
}

func (c *TCPClient) reconnect() {
	time.Sleep(c.backoff)
	conn, err := net.Dial("tcp", c.addr)
	if err == nil {
		c.conn.Close()
		c.conn = conn
	}
}

func (c *TCPClient) Flush() error { return nil }

func (c *TCPClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
