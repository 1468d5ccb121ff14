// Package template implements read-time rendering of stored configuration
// documents: {{ name }} placeholders are substituted with caller-supplied
// variables, with an optional default('x') fallback filter. Only variable
// substitution is supported; loops and conditionals are out of scope, so
// a lexer pass over the serialized document replaces a full template
// engine.
package template
