// Package main provides the clx command line tool for DGA domain detection.
// It fetches labeled domain feeds into a local store, trains the GRU
// classifier keeping the best checkpoint, scores a trained checkpoint on the
// held-out split, and runs the streaming enrichment workflow.
package main
