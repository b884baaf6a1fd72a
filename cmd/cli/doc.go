// Package cli constructs the dependable command-line interface. It wires the Cobra root command, the
// Viper configuration loader with embedded defaults, and zap logging around the health report command.
package cli
