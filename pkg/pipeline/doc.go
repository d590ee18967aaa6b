// Package pipeline wires entity resolution, graph lookup and answer
// generation into the question answering flow.
package pipeline
