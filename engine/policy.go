package engine

// Policy controls how reference misses are treated. The zero value is
// lenient: misses are logged and the reference is left null or unpatched.
type Policy struct {
	// StrictReadReferences makes Resolve fail when a lookup misses.
	StrictReadReferences bool
	// StrictWritePointers makes ResolvePointers fail when a pointer
	// target was never written.
	StrictWritePointers bool
}
