package hierarchy

import (
	"fmt"

	"github.com/temirov/queryconv/internal/platform"
)

const (
	unknownTeamTemplateConstant   = "team %d not present in hierarchy snapshot"
	unknownParentTemplateConstant = "team %d references unknown parent %d"
	cycleTemplateConstant         = "team %d participates in a hierarchy cycle"
)

// ChainError reports a malformed or unresolvable team chain. It is fatal
// for the affected project only.
type ChainError struct {
	TeamIdentifier int64
	Message        string
}

// Error renders the chain failure.
func (chainError *ChainError) Error() string {
	return chainError.Message
}

// Resolver answers ancestry questions against a read-only team snapshot
// captured at the start of a run.
type Resolver struct {
	teamsByIdentifier map[int64]platform.Team
}

// NewResolver indexes the provided team snapshot.
func NewResolver(teams []platform.Team) *Resolver {
	teamsByIdentifier := make(map[int64]platform.Team, len(teams))
	for _, team := range teams {
		teamsByIdentifier[team.Identifier] = team
	}
	return &Resolver{teamsByIdentifier: teamsByIdentifier}
}

// Team returns the snapshot record for the given identifier.
func (resolver *Resolver) Team(teamIdentifier int64) (platform.Team, bool) {
	team, found := resolver.teamsByIdentifier[teamIdentifier]
	return team, found
}

// Chain returns the ordered chain of teams from the organizational root
// down to (and including) the team identified by teamIdentifier. The order
// matches merge precedence: least specific first. Unknown teams, dangling
// parent references, and cycles yield a ChainError.
func (resolver *Resolver) Chain(teamIdentifier int64) ([]platform.Team, error) {
	team, found := resolver.teamsByIdentifier[teamIdentifier]
	if !found {
		return nil, &ChainError{TeamIdentifier: teamIdentifier, Message: fmt.Sprintf(unknownTeamTemplateConstant, teamIdentifier)}
	}

	visited := map[int64]struct{}{}
	var reversedChain []platform.Team
	for {
		if _, alreadySeen := visited[team.Identifier]; alreadySeen {
			return nil, &ChainError{TeamIdentifier: teamIdentifier, Message: fmt.Sprintf(cycleTemplateConstant, team.Identifier)}
		}
		visited[team.Identifier] = struct{}{}
		reversedChain = append(reversedChain, team)

		// Root teams report their parent as zero or a negative sentinel.
		if team.ParentIdentifier <= 0 {
			break
		}

		parent, parentFound := resolver.teamsByIdentifier[team.ParentIdentifier]
		if !parentFound {
			return nil, &ChainError{TeamIdentifier: teamIdentifier, Message: fmt.Sprintf(unknownParentTemplateConstant, team.Identifier, team.ParentIdentifier)}
		}
		team = parent
	}

	chain := make([]platform.Team, 0, len(reversedChain))
	for index := len(reversedChain) - 1; index >= 0; index-- {
		chain = append(chain, reversedChain[index])
	}
	return chain, nil
}
