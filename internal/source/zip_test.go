package source

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestZIP(t *testing.T, files map[string][]byte) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "centreline.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return zipPath
}

func TestLoadCentreline_ZippedShapefile(t *testing.T) {
	shpPath := writeShapefile(t,
		[]shp.Field{shp.NumberField("road_id", 10), shp.FloatField("start_m", 12, 3), shp.FloatField("end_m", 12, 3)},
		[]shp.Shape{shp.NewPolyLine([][]shp.Point{{{X: 172.60, Y: -43.45}, {X: 172.61, Y: -43.45}}})},
		[][]any{{42, 0.0, 810.0}},
	)

	files := make(map[string][]byte)
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		data, err := os.ReadFile(strings.TrimSuffix(shpPath, ".shp") + ext)
		require.NoError(t, err)
		files["roads/centreline"+ext] = data
	}
	files["roads/readme.txt"] = []byte("not read")
	files["other/centreline.dbf"] = []byte("not read")
	zipPath := createTestZIP(t, files)

	segments, err := LoadCentreline(zipPath)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, int64(42), segments[0].RoadID)
	assert.Equal(t, 810.0, segments[0].EndM)
}

func TestReadCentrelineZIP_NoShapefile(t *testing.T) {
	zipPath := createTestZIP(t, map[string][]byte{"readme.txt": []byte("no data")})

	_, err := ReadCentrelineZIP(zipPath)
	assert.True(t, eris.Is(err, ErrUnsupportedFormat))
}

func TestReadCentrelineZIP_TwoShapefiles(t *testing.T) {
	zipPath := createTestZIP(t, map[string][]byte{
		"a.shp": []byte("x"),
		"b.shp": []byte("x"),
	})

	_, err := ReadCentrelineZIP(zipPath)
	assert.True(t, eris.Is(err, ErrUnsupportedFormat))
}

func TestReadCentrelineZIP_NotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))

	_, err := ReadCentrelineZIP(path)
	assert.Error(t, err)
}

func member(name string) *zip.File {
	return &zip.File{FileHeader: zip.FileHeader{Name: name}}
}

func TestShapefileEntries(t *testing.T) {
	members, err := shapefileEntries([]*zip.File{
		member("roads/"),
		member("roads/centreline.shp"),
		member("roads/centreline.SHX"),
		member("roads/centreline.dbf"),
		member("roads/centreline.prj"),
		member("roads/centreline.xml"),
		member("other/centreline.dbf"),
		member("readme.txt"),
	})
	require.NoError(t, err)

	var names []string
	for _, m := range members {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{
		"roads/centreline.shp",
		"roads/centreline.SHX",
		"roads/centreline.dbf",
		"roads/centreline.prj",
	}, names)
}

func TestShapefileEntries_RejectsEscapingPaths(t *testing.T) {
	for _, name := range []string{"../escape.shp", "/abs/escape.shp", "roads/../../escape.shp"} {
		_, err := shapefileEntries([]*zip.File{member(name)})
		assert.Error(t, err, name)
		assert.False(t, eris.Is(err, ErrUnsupportedFormat), name)
	}
}

func TestReadCentrelineZIP_EscapingMember(t *testing.T) {
	zipPath := createTestZIP(t, map[string][]byte{"../escape.shp": []byte("x")})

	_, err := ReadCentrelineZIP(zipPath)
	assert.Error(t, err)
}
