// Package cypher translates Vietnamese questions into read-only Cypher with a
// few-shot prompt and checks generated queries before they reach the graph.
package cypher
