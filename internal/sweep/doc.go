// Package sweep implements maintenance sweeps over the mesh: a handler that
// tombstones matching papers as the stream delivers them, and a runner that
// bounds the sweep with a fixed deadline, the run's sole terminator.
package sweep
