package source

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

func TestReadCentrelineCSV_WKT(t *testing.T) {
	data := `road_id,start_m,end_m,geometry
3664,1400.3,2500,"LINESTRING (172.60 -43.45, 172.61 -43.45)"
3664,2500,4130,"MULTILINESTRING ((172.61 -43.45, 172.62 -43.45), (172.62 -43.45, 172.63 -43.44))"
`
	segments, err := ReadCentrelineCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, int64(3664), segments[0].RoadID)
	assert.Equal(t, 1400.3, segments[0].StartM)
	assert.Equal(t, 2500.0, segments[0].EndM)
	assert.Equal(t, 2, segments[0].Geometry.NumCoords())
	assert.Equal(t, 4326, segments[0].Geometry.SRID())

	// The repeated joint vertex is dropped.
	assert.Equal(t, 3, segments[1].Geometry.NumCoords())
	assert.Equal(t, []float64{172.63, -43.44}, []float64(segments[1].Geometry.Coord(2)))
}

func TestReadCentrelineCSV_HexEWKB(t *testing.T) {
	ls := geom.NewLineStringFlat(geom.XY, []float64{172.6, -43.45, 172.7, -43.46}).SetSRID(4326)
	data, err := ewkb.Marshal(ls, ewkb.NDR)
	require.NoError(t, err)

	csvData := "ROAD_ID,Start_M,End_M,Geometry\n7,0,120," + strings.ToUpper(hex.EncodeToString(data)) + "\n"
	segments, err := ReadCentrelineCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, int64(7), segments[0].RoadID)
	assert.Equal(t, ls.FlatCoords(), segments[0].Geometry.FlatCoords())
}

func TestReadCentrelineCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		missing bool
	}{
		{"missing geometry column", "road_id,start_m,end_m\n1,0,10\n", true},
		{"missing bounds", "road_id,geometry\n1,LINESTRING (0 0, 1 1)\n", true},
		{"empty file", "", true},
		{"bad road id", "road_id,start_m,end_m,geometry\nabc,0,10,\"LINESTRING (0 0, 1 1)\"\n", false},
		{"bad start", "road_id,start_m,end_m,geometry\n1,x,10,\"LINESTRING (0 0, 1 1)\"\n", false},
		{"bad geometry", "road_id,start_m,end_m,geometry\n1,0,10,POINT (0 0)\n", false},
		{"empty geometry", "road_id,start_m,end_m,geometry\n1,0,10,\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCentrelineCSV(strings.NewReader(tt.data))
			require.Error(t, err)
			assert.Equal(t, tt.missing, eris.Is(err, ErrMissingColumn))
		})
	}
}

func TestReadRoadnamesCSV(t *testing.T) {
	data := `road_id,road_name,route_number,route_suffix,ref_station,direction,element_type,ramp_no
3664,SH1 MAIN,01,S,0333,D,RD,
3670,SH1 RAMP,01,S,0333,D,RP,2

`
	roadnames, err := ReadRoadnamesCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, roadnames, 2)

	assert.Equal(t, "01S", roadnames[0].Route())
	assert.Equal(t, "0333", roadnames[0].ReferenceStation)
	assert.False(t, roadnames[0].IsRamp())
	assert.True(t, roadnames[1].IsRamp())
	assert.Equal(t, "2", roadnames[1].RampNumber)
}

func TestReadRoadnamesCSV_OnlyRoadID(t *testing.T) {
	roadnames, err := ReadRoadnamesCSV(strings.NewReader("road_id\n12\n"))
	require.NoError(t, err)
	require.Len(t, roadnames, 1)
	assert.Equal(t, int64(12), roadnames[0].RoadID)
	assert.Empty(t, roadnames[0].Direction)

	_, err = ReadRoadnamesCSV(strings.NewReader("id,road_name\n12,x\n"))
	assert.True(t, eris.Is(err, ErrMissingColumn))
}

func TestReadRecordsCSV(t *testing.T) {
	data := "road_id,start_m,end_m,c_surface_id,Notes\n1,0,10,7,a\n1,10,20,7,b\n"
	table, err := ReadRecordsCSV(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"c_surface_id", "notes"}, table.Columns)
	require.Len(t, table.Records, 2)
	assert.Equal(t, "7", table.Records[1].Attrs["c_surface_id"])
	assert.Equal(t, "b", table.Records[1].Attrs["notes"])
	assert.Equal(t, 20.0, table.Records[1].EndM)

	_, err = ReadRecordsCSV(strings.NewReader("road_id,start_m\n1,0\n"))
	assert.True(t, eris.Is(err, ErrMissingColumn))
}

func TestReadRoadnamesXLSX(t *testing.T) {
	f := xlsx.NewFile()
	other, err := f.AddSheet("other")
	require.NoError(t, err)
	header := other.AddRow()
	header.AddCell().SetString("id")
	header.AddCell().SetString("name")
	sheet, err := f.AddSheet("roadnames")
	require.NoError(t, err)
	for _, rowData := range [][]string{
		{"road_id", "route_number", "route_suffix", "ref_station", "direction", "element_type", "ramp_no"},
		{"3664", "01", "S", "0333", "D", "RD", ""},
		{"3670", "01", "S", "0333", "D", "RP", "2"},
	} {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "roadnames.xlsx")
	require.NoError(t, f.Save(path))

	roadnames, err := LoadRoadnames(path, "roadnames")
	require.NoError(t, err)
	require.Len(t, roadnames, 2)
	assert.Equal(t, int64(3670), roadnames[1].RoadID)
	assert.Equal(t, "R2", roadnames[1].RampSuffix())

	_, err = LoadRoadnames(path, "missing")
	assert.Error(t, err)

	// The first sheet has no road_id column.
	_, err = LoadRoadnames(path, "")
	assert.True(t, eris.Is(err, ErrMissingColumn))
}

// writeShapefile writes a PolyLine shapefile with its dbf sidecar.
func writeShapefile(t *testing.T, fields []shp.Field, shapes []shp.Shape, attrs [][]any) string {
	t.Helper()
	base := filepath.Join(t.TempDir(), "centreline")
	w, err := shp.Create(base+".shp", shp.POLYLINE)
	require.NoError(t, err)
	require.NoError(t, w.SetFields(fields))
	for i, s := range shapes {
		require.Equal(t, int32(i), w.Write(s))
		for j, v := range attrs[i] {
			require.NoError(t, w.WriteAttribute(i, j, v))
		}
	}
	w.Close()

	// go-shp v0.1.1 names the attribute table "<base>dbf".
	require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	return base + ".shp"
}

func TestReadCentrelineShapefile(t *testing.T) {
	fields := []shp.Field{
		shp.NumberField("road_id", 10),
		shp.FloatField("start_m", 12, 3),
		shp.FloatField("end_m", 12, 3),
	}
	shapes := []shp.Shape{
		shp.NewPolyLine([][]shp.Point{{{X: 172.60, Y: -43.45}, {X: 172.61, Y: -43.45}}}),
		shp.NewPolyLine([][]shp.Point{
			{{X: 172.61, Y: -43.45}, {X: 172.62, Y: -43.45}},
			{{X: 172.62, Y: -43.45}, {X: 172.63, Y: -43.44}},
		}),
	}
	path := writeShapefile(t, fields, shapes, [][]any{
		{3664, 1400.3, 2500.0},
		{3664, 2500.0, 4130.0},
	})

	segments, err := LoadCentreline(path)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, int64(3664), segments[0].RoadID)
	assert.InDelta(t, 1400.3, segments[0].StartM, 1e-9)
	assert.Equal(t, 4130.0, segments[1].EndM)
	assert.Equal(t, 3, segments[1].Geometry.NumCoords())
	assert.Equal(t, 4326, segments[1].Geometry.SRID())
}

func TestReadCentrelineShapefile_MissingColumn(t *testing.T) {
	fields := []shp.Field{shp.NumberField("road_id", 10)}
	shapes := []shp.Shape{
		shp.NewPolyLine([][]shp.Point{{{X: 172.60, Y: -43.45}, {X: 172.61, Y: -43.45}}}),
	}
	path := writeShapefile(t, fields, shapes, [][]any{{1}})

	_, err := ReadCentrelineShapefile(path)
	assert.True(t, eris.Is(err, ErrMissingColumn))
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roads.gpkg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := LoadCentreline(path)
	assert.True(t, eris.Is(err, ErrUnsupportedFormat))
	_, err = LoadRoadnames(path, "")
	assert.True(t, eris.Is(err, ErrUnsupportedFormat))
	_, err = LoadRecords(path)
	assert.True(t, eris.Is(err, ErrUnsupportedFormat))
}

func TestLoadCentreline_CSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "centreline.csv")
	data := "road_id,start_m,end_m,geometry\n1,0,10,\"LINESTRING (172.6 -43.45, 172.7 -43.45)\"\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	segments, err := LoadCentreline(path)
	require.NoError(t, err)
	require.Len(t, segments, 1)

	_, err = LoadCentreline(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestParseGeometry(t *testing.T) {
	ls, err := ParseGeometry("  LINESTRING (1 2, 3 4)  ")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, ls.FlatCoords())

	_, err = ParseGeometry("0102")
	assert.Error(t, err)
	_, err = ParseGeometry("LINESTRING EMPTY")
	assert.Error(t, err)
}

func TestPolyLineToLineString_BadParts(t *testing.T) {
	points := []shp.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 4}}

	tests := []struct {
		name  string
		parts []int32
		num   int32
		want  []float64
	}{
		{"valid", []int32{0, 2}, 2, []float64{1, 1, 2, 2, 3, 3, 4, 4}},
		{"offset past points", []int32{0, 2, 9}, 3, []float64{1, 1, 2, 2}},
		{"backwards offsets", []int32{2, 1}, 2, []float64{2, 2, 3, 3, 4, 4}},
		{"negative offset", []int32{-3, 2}, 2, []float64{3, 3, 4, 4}},
		{"part count exceeds offsets", []int32{0}, 5, []float64{1, 1, 2, 2, 3, 3, 4, 4}},
		{"no usable part", []int32{4}, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pl := &shp.PolyLine{NumParts: tt.num, NumPoints: int32(len(points)), Parts: tt.parts, Points: points}
			ls := polyLineToLineString(pl)
			if tt.want == nil {
				assert.Nil(t, ls)
				return
			}
			require.NotNil(t, ls)
			assert.Equal(t, tt.want, ls.FlatCoords())
		})
	}
}
