package driver

import (
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/soundprediction/duocdien/pkg/types"
)

var (
	// ErrUpstreamUnavailable is returned when Neo4j cannot be reached.
	ErrUpstreamUnavailable = types.ErrUpstreamUnavailable
	// ErrUnknownSchema is returned for an unrecognised schema name.
	ErrUnknownSchema = errors.New("unknown graph schema")
)

// wrapError tags connectivity failures with ErrUpstreamUnavailable.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if neo4j.IsConnectivityError(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
