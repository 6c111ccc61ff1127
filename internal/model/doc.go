// Package model defines the data types shared across the scan engine.
//
// It contains the fingerprint samples produced by collectors, the leak
// probe results produced by network probes, the composite privacy score,
// and the report aggregate that binds one scan run together. Types in
// this package are plain data: they carry no behavior beyond convenience
// constructors and deduplicating adders, so every other package can
// depend on them without import cycles.
package model
