// Package component implements the node metamodel: node models and their
// interface objects, typekits, projects and deployments.
//
// Like the types package it is pure domain code. Models call back into a
// Loader (implemented by the loaders package) to register themselves and to
// resolve type names, which keeps this package free of any text format or
// storage concern.
//
// # Inheritance
//
// A NodeModel keeps one ordered object set per interface category (see Kind).
// Lookups walk the supermodel chain. When a submodel is asked for an
// inherited object with one of the FindX methods, the object is duplicated,
// rebound to the submodel and stored there, so later changes made through the
// submodel never reach the supermodel. Enumeration (Each and the plural
// accessors) yields supermodel entries first and reports every name once.
//
// A name may only be used once across all categories of a model and its
// ancestors; declarations enforce this through CheckUniqueness.
package component
