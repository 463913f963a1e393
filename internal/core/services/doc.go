// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
//   - CorpusBuilder: source files to ordered chunks
//   - IndexService: load-or-build lifecycle of the persisted vector index
//   - AnswerEngine: retrieval, prompt assembly and grounded answers
package services
