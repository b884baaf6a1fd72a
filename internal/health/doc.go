// Package health produces the dependency health report. Service reads the manifest, runs npm audit and
// npm outdated concurrently, and writes the rendered report; CommandBuilder exposes it as a cobra command.
package health
