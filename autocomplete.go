// Package autocomplete only holds the version of the set of tools an autocompletion engine uses to
// lex partially typed input.
//
// The main sub-packages are:
//
//   - lexer: the Facade over a grammar's tokenizer, with tokenization, automaton introspection and caches.
//   - lexer/atn: the lexer automaton, states and transitions addressed by stable ids.
//   - lexer/rules: a tokenizer factory driven by a grammar file's rule table.
package autocomplete

// Version of the library.
// Manually kept in sync with project releases.
var Version = "v0.0.0-dev"
