package probe

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultHostHeader is the Host header value sent regardless of the dialed host.
const DefaultHostHeader = "localhost"

// Request holds the bytes written on every probe. It is immutable once built and
// safe to share between goroutines.
type Request struct {
	raw []byte
}

// NewRequest builds the probe request with the given Host header value. An empty
// value falls back to DefaultHostHeader.
func NewRequest(hostHeader string) Request {
	hostHeader = strings.TrimSpace(hostHeader)
	if hostHeader == "" {
		hostHeader = DefaultHostHeader
	}
	return Request{raw: []byte("GET / HTTP/1.1\r\nHost: " + hostHeader + "\r\nConnection: close\r\n\r\n")}
}

// DefaultRequest returns GET / with Host: localhost and Connection: close.
func DefaultRequest() Request {
	return NewRequest(DefaultHostHeader)
}

// Bytes returns a copy of the request bytes.
func (r Request) Bytes() []byte {
	return append([]byte(nil), r.raw...)
}

// Len returns the request size in bytes.
func (r Request) Len() int {
	return len(r.raw)
}

func (r Request) String() string {
	return string(r.raw)
}

// Target identifies the endpoint a probe connects to.
type Target struct {
	Host    string
	Port    int
	Timeout time.Duration // zero means no deadline
}

// Address returns host:port suitable for net.Dial.
func (t Target) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// Validate checks the host and port ranges.
func (t Target) Validate() error {
	if strings.TrimSpace(t.Host) == "" {
		return fmt.Errorf("host is required")
	}
	if t.Port < 1 || t.Port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", t.Port)
	}
	if t.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0")
	}
	return nil
}

func (t Target) String() string {
	return t.Address()
}
