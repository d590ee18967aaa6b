package ingest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDocx(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "duoc_dien.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}

func para(runs ...string) string {
	var sb strings.Builder
	sb.WriteString("<w:p>")
	for _, r := range runs {
		sb.WriteString(`<w:r><w:t xml:space="preserve">` + r + `</w:t></w:r>`)
	}
	sb.WriteString("</w:p>")
	return sb.String()
}

func TestReadDocxText(t *testing.T) {
	path := writeDocx(t,
		para("1.1. ", "Aspirin")+
			`<w:tbl><w:tr><w:tc>`+para("bảng bị bỏ qua")+`</w:tc></w:tr></w:tbl>`+
			para("Acidum", " acetylsalicylicum")+
			`<w:p><w:r><w:t>Tính chất:</w:t><w:tab/><w:t>Bột trắng.</w:t></w:r></w:p>`)

	text, err := ReadDocxText(path)
	require.NoError(t, err)
	assert.Equal(t, "1.1. Aspirin\nAcidum acetylsalicylicum\nTính chất:\tBột trắng.", text)
}

func TestParseDocx(t *testing.T) {
	path := writeDocx(t,
		para("1.1. Aspirin")+para("Acidum acetylsalicylicum")+para("Bảo quản: Tránh ánh sáng.")+
			para("1.2. Cafein")+para("Coffeinum"))

	got, err := ParseDocx(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ASPIRIN", got[0].Name)
	assert.Equal(t, "Tránh ánh sáng.", got[0].Storage)
	assert.Equal(t, "CAFEIN", got[1].Name)
}

func TestReadDocxText_NotDocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	_, err = zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = ReadDocxText(path)
	assert.ErrorIs(t, err, ErrNotDocx)
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, path, pe.Path)
}
