package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
)

// Neo4jDriver implements GraphLookup and QueryRunner for Neo4j.
type Neo4jDriver struct {
	client      neo4j.DriverWithContext
	database    string
	schema      Schema
	logger      *slog.Logger
	concurrency int
}

// Option configures a Neo4jDriver.
type Option func(*Neo4jDriver)

// WithSchema selects the graph layout used by FetchContext and CreateIndices.
func WithSchema(s Schema) Option {
	return func(n *Neo4jDriver) { n.schema = s }
}

// WithLogger sets the driver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Neo4jDriver) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithLoadConcurrency bounds the number of rows loaded in parallel.
func WithLoadConcurrency(workers int) Option {
	return func(n *Neo4jDriver) { n.concurrency = workers }
}

// NewNeo4jDriver creates a driver. It does not dial; call VerifyConnectivity
// to check the server.
func NewNeo4jDriver(uri, username, password, database string, opts ...Option) (*Neo4jDriver, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	n := &Neo4jDriver{
		client:   client,
		database: database,
		schema:   SchemaPharmacopoeia,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Schema returns the configured graph layout.
func (n *Neo4jDriver) Schema() Schema {
	return n.schema
}

// FetchContext returns the entity named name and its outgoing neighbours.
// An exact name match is tried first, then a case-insensitive CONTAINS
// match. An unknown entity yields an empty slice and a nil error.
func (n *Neo4jDriver) FetchContext(ctx context.Context, name string) ([]ContextRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []ContextRecord{}, nil
	}

	for _, exact := range []bool{true, false} {
		rows, err := n.readRecords(ctx, contextQuery(n.schema, exact), map[string]any{"name": name})
		if err != nil {
			return nil, wrapError("fetch context", err)
		}
		if len(rows) == 0 {
			continue
		}

		records, err := contextFromRecords(rows)
		if err != nil {
			return nil, fmt.Errorf("fetch context for %q: %w", name, err)
		}
		n.logger.Debug("Fetched graph context", "entity", name, "exact", exact, "records", len(records))
		return records, nil
	}
	return []ContextRecord{}, nil
}

// RunQuery executes cypher in a read transaction. Nodes and relationships
// in the result are flattened to their property maps.
func (n *Neo4jDriver) RunQuery(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	records, err := n.readRecords(ctx, cypher, params)
	if err != nil {
		return nil, wrapError("run query", err)
	}

	rows := make([]map[string]any, len(records))
	for i, rec := range records {
		row := make(map[string]any, len(rec.Keys))
		for j, key := range rec.Keys {
			row[key] = PlainValue(rec.Values[j])
		}
		rows[i] = row
	}
	return rows, nil
}

func (n *Neo4jDriver) readRecords(ctx context.Context, cypher string, params map[string]any) ([]*db.Record, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: n.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return MustRecordSlice(result, "records")
}

func (n *Neo4jDriver) write(ctx context.Context, fn func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, fn)
}

// CreateIndices creates the uniqueness constraints on entity names for the
// configured schema. Each constraint is backed by an index, so lookups by name
// stay indexed. It fails when the graph already holds duplicate names.
func (n *Neo4jDriver) CreateIndices(ctx context.Context) error {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	for _, q := range schemaQueries(n.schema) {
		res, err := session.Run(ctx, q, nil)
		if err == nil {
			_, err = res.Consume(ctx)
		}
		if err != nil && !strings.Contains(err.Error(), "An equivalent") {
			return wrapError("create constraint", err)
		}
	}
	return nil
}

// ClearGraph deletes every node and relationship.
func (n *Neo4jDriver) ClearGraph(ctx context.Context) error {
	_, err := n.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, clearGraphQuery, nil)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return wrapError("clear graph", err)
	}
	n.logger.Info("Graph has been cleared")
	return nil
}

// VerifyConnectivity checks that the server is reachable with the
// configured credentials.
func (n *Neo4jDriver) VerifyConnectivity(ctx context.Context) error {
	if err := n.client.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("verify connectivity: %w: %w", ErrUpstreamUnavailable, err)
	}
	return nil
}

// Close releases the connection pool.
func (n *Neo4jDriver) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}

// contextFromRecords converts (n, relation, m) rows into context records.
// The entity comes first, followed by one record per distinct neighbour.
func contextFromRecords(records []*db.Record) ([]ContextRecord, error) {
	out := make([]ContextRecord, 0, len(records)+1)
	seen := make(map[string]bool)

	for i, rec := range records {
		entityVal, _ := rec.Get("n")
		entity, err := MustDBNode(entityVal, "n")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if !seen[entity.ElementId] {
			props, err := StringProperties(entity.Props)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			seen[entity.ElementId] = true
			out = append(out, ContextRecord{Label: primaryLabel(entity.Labels), Properties: props})
		}

		neighbourVal, _ := rec.Get("m")
		if neighbourVal == nil {
			continue
		}
		neighbour, err := MustDBNode(neighbourVal, "m")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		relVal, _ := rec.Get("relation")
		relation, err := MustString(relVal, "relation")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		key := relation + "|" + neighbour.ElementId
		if seen[key] {
			continue
		}
		seen[key] = true

		props, err := StringProperties(neighbour.Props)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, ContextRecord{
			Label:      primaryLabel(neighbour.Labels),
			Relation:   relation,
			Properties: props,
		})
	}
	return out, nil
}

func primaryLabel(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	return labels[0]
}
