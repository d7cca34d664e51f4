// Package cli assembles the queryconv command-line application: the Cobra
// root command, configuration loading, and structured logging.
package cli
