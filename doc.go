// Package redlist provides a small Redis list adapter and a FIFO queue built on it.
//
// It uses:
// - LPUSH to append at the head of a list
// - RPOP / BRPOP to take from the tail (oldest first)
// - DEL to purge a list
//
// An Adapter owns a single lazily opened session and is meant for one caller
// at a time; pool adapters (see WorkerPool) for concurrent consumers.
package redlist
