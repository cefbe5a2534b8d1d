//go:build !windows

package process

import (
	"os/exec"

	"go.uber.org/zap"
)

func startWithCleanup(cmd *exec.Cmd, _ *zap.Logger) (func(), error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return func() {}, nil
}
