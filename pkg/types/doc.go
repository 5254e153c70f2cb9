// Package types defines the small, dependency-free vocabulary shared by the
// archive, engine and pipeline packages: record identity handles and the
// typed error categories every fallible operation reports.
//
// Design goals:
//   - Small, copyable handles (StoreNumber/RecordID) instead of raw offsets.
//   - Typed errors with stable categories (structural/schema/bounds/...).
//   - Breadcrumb context (typename, field, offset) attached as errors
//     bubble out of recursive reads and writes.
//
// This package has no dependencies beyond the standard library.
package types
