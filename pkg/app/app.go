// Package app defines the runtime contract shared by the cmd/monitor subcommands.
package app

// Runner represents a runnable application component.
type Runner interface {
	Run() error
}
