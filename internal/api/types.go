package api

import (
	stdcontext "context"
	"errors"
	"time"
)

// ErrNoCompanion is returned when a shutdown is requested but this
// supervisor owns no companion.
var ErrNoCompanion = errors.New("no managed companion")

// StatusReport describes the supervisor and the endpoint it watches.
type StatusReport struct {
	Run         string    `json:"run"`
	State       string    `json:"state"`
	Endpoint    string    `json:"endpoint"`
	Alive       bool      `json:"alive"`
	Pid         int       `json:"pid,omitempty"`
	Command     string    `json:"command,omitempty"`
	Exited      bool      `json:"exited"`
	Listener    string    `json:"listener,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ShutdownResult captures the outcome of a shutdown request.
type ShutdownResult struct {
	Pid         int       `json:"pid"`
	Command     string    `json:"command"`
	CompletedAt time.Time `json:"completed_at"`
}

// Controller exposes supervisor operations required by control servers.
type Controller interface {
	Status(stdcontext.Context) (*StatusReport, error)
	Shutdown(stdcontext.Context) (*ShutdownResult, error)
}
