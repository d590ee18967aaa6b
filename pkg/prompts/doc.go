// Package prompts renders the Vietnamese prompts sent to language models:
// graph-grounded answers, zero-shot answers, few-shot text-to-Cypher and
// benchmark question rephrasing.
package prompts
