// Package normalisers provides page loaders for the source document types
// the assistant can ingest. Each loader turns one file into ordered page
// records carrying source and page provenance.
//
// Loaders are registered with the Registry at startup and selected by file
// extension.
package normalisers
