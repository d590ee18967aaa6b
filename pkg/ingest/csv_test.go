package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonographCSVRoundTrip(t *testing.T) {
	in := []Monograph{
		{Name: "ASPIRIN", LatinName: "Acidum acetylsalicylicum", Formula: "C9H8O4", DrugClass: "Giảm đau"},
		{Name: "CAFEIN", Properties: "nan"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMonographCSV(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(), "\ufeffTen_Hoat_Chat,Ten_Latin,"))

	out, err := ReadMonographCSV(&buf)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Acidum acetylsalicylicum", out[0].LatinName)
	assert.Equal(t, NoInfo, out[0].Storage)
	assert.Equal(t, NoInfo, out[1].Properties)
}

func TestReadMonographCSV_SkipsNamelessRows(t *testing.T) {
	csv := "Ten_Hoat_Chat,Tinh_Chat\n,bột\nGLUCOSE,tinh thể\n"
	out, err := ReadMonographCSV(strings.NewReader(csv), WithLogger(nil))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "GLUCOSE", out[0].Name)
	assert.Equal(t, "tinh thể", out[0].Properties)
}

func TestReadMonographCSV_MissingNameColumn(t *testing.T) {
	_, err := ReadMonographCSV(strings.NewReader("Tinh_Chat\nbột\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Line)
}

func TestReadMonographCSV_MalformedQuote(t *testing.T) {
	_, err := ReadMonographCSV(strings.NewReader("Ten_Hoat_Chat\nA\n\"B\n"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Positive(t, pe.Line)
}

func TestReadDiseaseCSV(t *testing.T) {
	csv := "tên_bệnh,mô_tả_bệnh,bệnh_đi_kèm,triệu_chứng\n" +
		"Ho gà,Bệnh truyền nhiễm,\"['Viêm phổi', 'Co giật']\",ho kéo dài\n" +
		"nan,x,,\n"
	out, err := ReadDiseaseCSV(strings.NewReader(csv), WithLogger(nil))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Ho gà", out[0].Name)
	assert.Equal(t, "['Viêm phổi', 'Co giật']", out[0].Associated)
	assert.Equal(t, "ho kéo dài", out[0].Symptom)
	assert.Empty(t, out[0].Cause)
}

func TestReadDiseaseCSV_Empty(t *testing.T) {
	out, err := ReadDiseaseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, out)
}
