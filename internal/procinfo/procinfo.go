// Package procinfo inspects local processes for diagnostics: which process
// owns a listening port, and what it is.
package procinfo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	units "github.com/docker/go-units"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

// ErrNoListener is returned when nothing on the host listens on the port.
var ErrNoListener = errors.New("procinfo: no listener on port")

// Info is a point-in-time snapshot of a process.
type Info struct {
	PID        int       `json:"pid"`
	Name       string    `json:"name,omitempty"`
	Cmdline    string    `json:"cmdline,omitempty"`
	RSS        uint64    `json:"rss_bytes,omitempty"`
	CPUPercent float64   `json:"cpu_percent"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
}

// String renders the snapshot as a single log-friendly line.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pid %d", i.PID)
	if i.Name != "" {
		fmt.Fprintf(&b, " (%s)", i.Name)
	}
	if !i.CreatedAt.IsZero() {
		fmt.Fprintf(&b, " up %s", time.Since(i.CreatedAt).Truncate(time.Second))
	}
	if i.RSS > 0 {
		fmt.Fprintf(&b, " rss %s", units.BytesSize(float64(i.RSS)))
	}
	return b.String()
}

// FindListener returns the pid of the process listening on the TCP port.
// Some platforms hide the owning pid of foreign processes; the pid is then
// zero and err is nil.
func FindListener(ctx context.Context, port int) (int, error) {
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("procinfo: invalid port %d", port)
	}
	conns, err := psnet.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		return 0, fmt.Errorf("procinfo: list connections: %w", err)
	}
	for _, conn := range conns {
		if conn.Status != "LISTEN" {
			continue
		}
		if int(conn.Laddr.Port) == port {
			return int(conn.Pid), nil
		}
	}
	return 0, fmt.Errorf("%w %d", ErrNoListener, port)
}

// Describe collects what can be read about pid. Fields the platform refuses
// to disclose are left empty.
func Describe(ctx context.Context, pid int) (Info, error) {
	info := Info{PID: pid}
	if pid <= 0 {
		return info, fmt.Errorf("procinfo: invalid pid %d", pid)
	}
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return info, fmt.Errorf("procinfo: pid %d: %w", pid, err)
	}
	if name, err := proc.NameWithContext(ctx); err == nil {
		info.Name = name
	}
	if cmdline, err := proc.CmdlineWithContext(ctx); err == nil {
		info.Cmdline = cmdline
	}
	if mem, err := proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		info.RSS = mem.RSS
	}
	if pct, err := proc.CPUPercentWithContext(ctx); err == nil {
		info.CPUPercent = pct
	}
	if created, err := proc.CreateTimeWithContext(ctx); err == nil && created > 0 {
		info.CreatedAt = time.UnixMilli(created)
	}
	return info, nil
}

// DescribeListener combines FindListener and Describe.
func DescribeListener(ctx context.Context, port int) (Info, error) {
	pid, err := FindListener(ctx, port)
	if err != nil {
		return Info{}, err
	}
	if pid == 0 {
		return Info{}, nil
	}
	return Describe(ctx, pid)
}
