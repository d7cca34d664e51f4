// Package platform provides the client and domain types for the
// static-analysis platform's remote API: team hierarchy and project
// listings, query-group override retrieval, and project-level override
// writes.
package platform
