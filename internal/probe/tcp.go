package probe

import (
	"context"
	"fmt"
	"net"
	"time"
)

type tcpProber struct {
	address string
	timeout time.Duration
	dialer  func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewTCP returns a prober that dials address once per attempt and closes the
// connection straight away. A non-positive timeout leaves the bound to the
// caller's context and the operating system.
func NewTCP(address string, timeout time.Duration) Prober {
	return &tcpProber{
		address: address,
		timeout: timeout,
		dialer:  (&net.Dialer{}).DialContext,
	}
}

func (p *tcpProber) Probe(ctx context.Context) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	conn, err := p.dialer(ctx, "tcp", p.address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.address, err)
	}
	return conn.Close()
}
