// Package prompt holds the interactive decisions the engine defers to a
// person: picking one rom among equally matching candidates, approving a batch
// of quarantine moves and selecting systems. Deterministic implementations
// stand in for the terminal in tests and non-interactive runs.
package prompt
