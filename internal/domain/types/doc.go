// Package types implements the type registry node models are resolved against.
//
// This package is pure domain code with standard library imports only. It knows
// nothing about typekit files, loaders or projects.
//
// # Core Types
//
// Type is a named data type belonging to one Category. Categories form a closed
// set: every supported category has exactly one factory in the registry's
// factory table, so Registry.Create rejects anything outside it with
// ErrUnknownCategory.
//
// Registry holds types by name plus aliases. It provides:
//   - Get/Has for lookup (aliases resolve to their target)
//   - Create and the CreateX helpers for building new types
//   - Merge for combining registries (conflicting definitions are rejected)
//   - Minimal for extracting a type together with everything it depends on
//   - Each for ordered enumeration, optionally including aliases
package types
