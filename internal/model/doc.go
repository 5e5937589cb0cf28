// Package model defines the persisted metadata for wsforge.
//
// A single Document holds every stored resource and every compose. Resources
// are a tagged variant keyed by Kind: source repositories, skills, agents,
// commands and MCP configs share a base record and carry only the fields of
// their kind. Composes reference resources by id and are resolved into a
// ComposeDetail when read.
//
// Key concepts:
//   - Resource: a stored configurable unit, discriminated by Type
//   - Compose: a named bundle of resource references
//   - ComposeDetail: a compose with every reference resolved or marked missing
//   - Document: the whole persisted unit, owned by the store package
package model
