// Package convert implements the team-to-project query override
// reconciliation workflow used by the queryconv CLI.
//
// It exposes CommandBuilder for wiring the convert Cobra command, Service
// for driving the workflow programmatically, and narrow abstractions for
// the platform API and file system collaborators.
package convert
