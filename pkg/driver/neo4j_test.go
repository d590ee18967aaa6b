package driver_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/soundprediction/duocdien/pkg/driver"
	"github.com/soundprediction/duocdien/pkg/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfNeo4jUnavailable connects to the server named by NEO4J_URI and
// skips when it is unset or unreachable. The test database is cleared.
func skipIfNeo4jUnavailable(t *testing.T, schema driver.Schema) *driver.Neo4jDriver {
	t.Helper()

	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set")
	}
	d, err := driver.NewNeo4jDriver(uri, os.Getenv("NEO4J_USER"), os.Getenv("NEO4J_PASSWORD"), os.Getenv("NEO4J_DATABASE"),
		driver.WithSchema(schema), driver.WithLoadConcurrency(2))
	if err != nil {
		t.Skipf("Neo4j not available at %s: %v", uri, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.VerifyConnectivity(ctx); err != nil {
		_ = d.Close(context.Background())
		t.Skipf("Neo4j connection failed: %v", err)
	}
	require.NoError(t, d.ClearGraph(ctx))
	require.NoError(t, d.CreateIndices(ctx))

	t.Cleanup(func() { _ = d.Close(context.Background()) })
	return d
}

func TestNeo4jDriver_PharmacopoeiaRoundTrip(t *testing.T) {
	d := skipIfNeo4jUnavailable(t, driver.SchemaPharmacopoeia)
	ctx := context.Background()

	stats, err := d.LoadMonographs(ctx, []ingest.Monograph{
		{Name: "ASPIRIN", Formula: "C9H8O4", Identification: "Phổ IR", DrugClass: "Giảm đau"},
		{Name: "ASPIRIN VÀ CAFEIN", DrugClass: ingest.NoInfo},
		{Name: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 2, stats.Loaded)
	assert.Equal(t, 1, stats.Skipped)

	records, err := d.FetchContext(ctx, "ASPIRIN")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, driver.LabelActiveIngredient, records[0].Label)
	assert.Equal(t, "C9H8O4", records[0].Properties["công_thức_hóa_học"])

	// CONTAINS fallback prefers the shortest name
	records, err = d.FetchContext(ctx, "aspi")
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, "ASPIRIN", records[0].Properties["tên_hoạt_chất"])

	records, err = d.FetchContext(ctx, "PARACETAMOL")
	require.NoError(t, err)
	assert.Empty(t, records)

	rows, err := d.RunQuery(ctx, "MATCH (n:`HOẠT_CHẤT`)-[:`THUỘC_NHÓM`]->(l) RETURN n.`tên_hoạt_chất` AS name, l", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ASPIRIN", rows[0]["name"])
	assert.Equal(t, "Giảm đau", rows[0]["l"].(map[string]any)["tên_loại"])
}

func TestNeo4jDriver_SharedDrugClassLoadsOnce(t *testing.T) {
	d := skipIfNeo4jUnavailable(t, driver.SchemaPharmacopoeia)
	ctx := context.Background()

	var monographs []ingest.Monograph
	for i := 0; i < 20; i++ {
		monographs = append(monographs, ingest.Monograph{Name: fmt.Sprintf("HOẠT CHẤT %02d", i), DrugClass: "Kháng sinh"})
	}
	for range 2 {
		stats, err := d.LoadMonographs(ctx, monographs)
		require.NoError(t, err)
		assert.Equal(t, 20, stats.Loaded)
	}

	rows, err := d.RunQuery(ctx, "MATCH (l:`LOẠI_THUỐC`) RETURN count(l) AS classes", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 1, rows[0]["classes"])

	rows, err = d.RunQuery(ctx, "MATCH (n:`HOẠT_CHẤT`) RETURN count(n) AS drugs", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 20, rows[0]["drugs"])
}

func TestNeo4jDriver_DiseaseAssociations(t *testing.T) {
	d := skipIfNeo4jUnavailable(t, driver.SchemaDisease)
	ctx := context.Background()

	rows := []ingest.DiseaseRecord{
		{Name: "Ho gà", Description: "d", Category: "c", Cause: "x", Associated: "['Viêm phổi']"},
		{Name: "Sởi", Description: "d", Category: "c", Cause: "x", Associated: "viêm phổi"},
	}
	stats, err := d.LoadDiseases(ctx, rows[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, stats.AssociatedCreated)

	stats, err = d.LoadDiseases(ctx, rows[1:])
	require.NoError(t, err)
	assert.Equal(t, 1, stats.AssociatedSkipped, "existing associated disease is not linked again")

	records, err := d.FetchContext(ctx, "Ho gà")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, driver.RelAssociatedWith, records[1].Relation)
}

func TestNeo4jDriver_UnreachableIsUpstreamUnavailable(t *testing.T) {
	if os.Getenv("NEO4J_URI") == "" {
		t.Skip("NEO4J_URI not set")
	}
	d, err := driver.NewNeo4jDriver("bolt://127.0.0.1:1", "neo4j", "x", "")
	require.NoError(t, err)
	defer d.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.ErrorIs(t, d.VerifyConnectivity(ctx), driver.ErrUpstreamUnavailable)
}
