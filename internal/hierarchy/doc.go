// Package hierarchy resolves the ordered chain of teams containing a
// project from a per-run snapshot of the platform's team tree.
package hierarchy
