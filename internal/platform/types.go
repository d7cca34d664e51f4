package platform

// Severity enumerates query severities recognized by the platform.
type Severity string

// Supported severity values.
const (
	SeverityInformation Severity = "Information"
	SeverityLow         Severity = "Low"
	SeverityMedium      Severity = "Medium"
	SeverityHigh        Severity = "High"
)

// PackageScope identifies the hierarchy level owning a query group.
type PackageScope string

// Supported query group scopes. The platform also ships corporate and
// default packages; those are never overridden by this tool and are
// filtered out at retrieval time.
const (
	PackageScopeTeam    PackageScope = "Team"
	PackageScopeProject PackageScope = "Project"
)

// Team describes one node of the organizational hierarchy. A root team
// carries a zero or negative parent identifier.
type Team struct {
	Identifier       int64  `json:"id"`
	Name             string `json:"name"`
	FullName         string `json:"fullName"`
	ParentIdentifier int64  `json:"parentId"`
}

// Project describes a scan target owned by exactly one team.
type Project struct {
	Identifier     int64  `json:"id"`
	Name           string `json:"name"`
	TeamIdentifier int64  `json:"teamId"`
}

// Query is a single static-analysis rule customization.
type Query struct {
	Identifier  int64    `json:"id"`
	Name        string   `json:"name"`
	Enabled     bool     `json:"enabled"`
	Severity    Severity `json:"severity"`
	Source      string   `json:"source"`
	VersionCode int64    `json:"versionCode"`
	Status      string   `json:"status"`
}

// QueryGroup is a named collection of query customizations scoped to one
// hierarchy level. OwningTeamIdentifier is meaningful only for team scope
// and ProjectIdentifier only for project scope.
type QueryGroup struct {
	Name                 string       `json:"name"`
	LanguageName         string       `json:"languageName"`
	Scope                PackageScope `json:"packageType"`
	OwningTeamIdentifier int64        `json:"owningTeamId"`
	ProjectIdentifier    int64        `json:"projectId"`
	Queries              []Query      `json:"queries"`
}

// QueryStatusNew marks a query record the platform must create rather than
// update in place.
const QueryStatusNew = "New"

// CloneGroup returns a deep copy of the provided query group.
func CloneGroup(group QueryGroup) QueryGroup {
	duplicatedQueries := make([]Query, len(group.Queries))
	copy(duplicatedQueries, group.Queries)
	group.Queries = duplicatedQueries
	return group
}
