// Package corpus builds the immutable entity index used by hybrid search.
//
// An Index holds the de-duplicated, NFC-normalized entity names together with
// one dense vector per name and a BM25 Okapi index over their lowercase
// whitespace tokens. Build is the only constructor; once it returns the Index
// is read-only and safe for concurrent use.
package corpus
