// Package naming derives the paths the pipeline works with: the engine's
// temporary output next to each capture, and recognition of captures and
// left-over work files by name.
package naming
