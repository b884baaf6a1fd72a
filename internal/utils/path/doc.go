// Package pathutils resolves user supplied project directories.
package pathutils
