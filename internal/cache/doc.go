// Package cache holds the optional key/value stores used to accelerate
// discovery, and IDLists, the fail-open wrapper the engine talks to.
//
// A Store may return any error; IDLists converts every failure into a miss
// and trips a circuit breaker after repeated failures so that an unreachable
// backend stops costing a round trip per request. Cached values are id lists
// only, encoded in the versioned IDList envelope.
package cache
