// Package answer turns graph context or Cypher result rows into a Vietnamese
// answer produced by a language model.
package answer
