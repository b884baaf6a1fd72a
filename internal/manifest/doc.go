// Package manifest reads the dependency declarations of an npm project manifest.
package manifest
