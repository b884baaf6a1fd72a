// Package npm defines the explicit schemas for npm manifests, audit reports, and outdated
// reports consumed by dependable, together with the ReportDocument that merges them.
package npm
