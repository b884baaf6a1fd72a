// Package ordered provides an insertion-ordered map used for package manifests and
// package manager reports, whose natural key order must survive parsing and rendering.
package ordered
