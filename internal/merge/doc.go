// Package merge folds per-level query-group override sets, ordered from
// the organizational root down to the project, into the single effective
// project-level override set. Traversal order is the entire precedence
// rule: a later (more specific) level always wins for the queries it
// touches, and queries it leaves alone survive from earlier levels.
package merge
