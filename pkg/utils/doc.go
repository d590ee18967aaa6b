// Package utils holds small helpers shared across duocdien: bounded
// concurrency, panic recovery, vector math and text sets.
package utils
