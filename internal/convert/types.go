package convert

import "fmt"

const projectErrorTemplateConstant = "project %d (%s): %v"

// CommandOptions captures the configurable parameters for the convert
// command.
type CommandOptions struct {
	ProjectSelectors     []string
	DryRun               bool
	PrettyPrint          bool
	DebugOutput          bool
	SaveQueries          bool
	SaveQueriesDirectory string
}

// ProjectError records a failure local to one project. Such failures never
// abort the run; they are joined into the aggregate error Service.Run
// returns after the remaining projects are processed.
type ProjectError struct {
	ProjectIdentifier int64
	ProjectName       string
	Cause             error
}

// Error renders the per-project failure.
func (projectError *ProjectError) Error() string {
	return fmt.Sprintf(projectErrorTemplateConstant, projectError.ProjectIdentifier, projectError.ProjectName, projectError.Cause)
}

// Unwrap exposes the underlying cause.
func (projectError *ProjectError) Unwrap() error {
	return projectError.Cause
}
