// Package process provides the launcher that starts the companion as a local,
// detached process.
//
// The child never inherits the supervisor's standard streams and never gets a
// visible console. On Windows it is started with CREATE_NO_WINDOW and bound to
// a Job Object so it cannot outlive the supervisor. On Unix it runs in its own
// process group, which Kill signals as a whole; on Linux the kernel also
// delivers SIGKILL to it when the supervisor dies. macOS offers no equivalent
// of the parent-death signal, so a crashed supervisor may leave the child
// running there until the next shutdown path reaches it.
package process
