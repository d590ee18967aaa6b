// Package ingest turns the raw pharmacopoeia and disease sources into typed
// records.
//
// Monographs come from .docx exports of Dược điển Việt Nam. ParseDocx reads
// the body paragraphs, splits them into one chunk per active ingredient and
// routes each line to a column by its section header. The resulting records
// round-trip through a fixed-column CSV (WriteMonographCSV and
// ReadMonographCSV) that the graph loader, the corpus indexer and the
// benchmark tools all consume.
//
// Disease records are read from the translated disease CSV with
// ReadDiseaseCSV.
package ingest
