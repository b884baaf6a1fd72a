// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with structured logging and lifecycle
// observers, and OSCommandRunner supplies the default os/exec backed runner
// used by dependable to run npm in a testable manner.
package execshell
