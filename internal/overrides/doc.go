// Package overrides indexes a query-collection snapshot so the overrides
// defined exactly at one hierarchy level (team or project) can be
// retrieved without further remote calls.
package overrides
