// Package analysis advances a built diagram through time. It dispatches
// initialization, periodic, discrete and per-step events and integrates the
// concatenated continuous state of every leaf. It also runs ensembles of
// simulators and derives phase portraits from recorded heights.
package analysis
