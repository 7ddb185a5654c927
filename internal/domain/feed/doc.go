// Package feed contains the external catalog bounded context.
// This context describes the remote product feed the importer reads from.
//
// Key concepts:
//   - CatalogSource: Port interface for the paginated remote catalog API
//   - Product / Page: Value objects describing feed records as the source returns them
//   - ImportResult: Aggregated outcome of one reconciliation run
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package feed
