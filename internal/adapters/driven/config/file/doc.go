// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - Load: TOML or YAML configuration over domain defaults, with .env support
//   - PromptStore: user-editable prompt templates with embedded defaults
package file
