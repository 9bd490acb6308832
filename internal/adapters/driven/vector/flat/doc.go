// Package flat provides an exact, brute-force vector index.
// It implements the driven.VectorIndex interface.
//
// Every search scores every stored vector. At corpus scale (thousands of
// chunks) this is fast enough and keeps ordering exact: results are sorted
// by descending cosine similarity with ties kept in insertion order.
package flat
