// Package app wires the application together: configuration, the isolated
// logger, pipeline loading, the step handler registry, and the run
// lifecycle.
package app
