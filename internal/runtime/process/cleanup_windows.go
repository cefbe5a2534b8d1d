//go:build windows

package process

import (
	"fmt"
	"os/exec"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

// startWithCleanup starts the command and assigns the child to a Job Object
// with JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE. If the supervisor exits without
// running shutdown (even via crash), the OS closes the job handle and kills
// the child. A job setup failure is logged; the child keeps running.
func startWithCleanup(cmd *exec.Cmd, logger *zap.Logger) (func(), error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	job, err := assignJob(cmd.Process.Pid)
	if err != nil {
		logger.Warn("companion not bound to supervisor lifetime", zap.Int("pid", cmd.Process.Pid), zap.Error(err))
		return func() {}, nil
	}
	return func() { _ = windows.CloseHandle(job) }, nil
}

func assignJob(pid int) (windows.Handle, error) {
	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return 0, fmt.Errorf("create job object: %w", err)
	}

	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
		BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
			LimitFlags: windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE,
		},
	}
	_, err = windows.SetInformationJobObject(
		job,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	)
	if err != nil {
		_ = windows.CloseHandle(job)
		return 0, fmt.Errorf("set job object info: %w", err)
	}

	handle, err := windows.OpenProcess(
		windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE,
		false,
		uint32(pid),
	)
	if err != nil {
		_ = windows.CloseHandle(job)
		return 0, fmt.Errorf("open child process: %w", err)
	}
	defer windows.CloseHandle(handle)

	if err := windows.AssignProcessToJobObject(job, handle); err != nil {
		_ = windows.CloseHandle(job)
		return 0, fmt.Errorf("assign process to job: %w", err)
	}

	// The job handle stays open until Kill so the kernel only reaps the
	// child when we are gone.
	return job, nil
}
