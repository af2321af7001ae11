// Package memory implements the auth storage contracts in process memory.
// It backs tests and single-instance development runs; data does not
// survive a restart.
package memory
