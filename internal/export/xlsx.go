package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/chainage-cli/internal/chainage"
)

// MarkersSheet is the worksheet name used for marker workbooks.
const MarkersSheet = "chainage"

// WriteMarkersXLSX writes markers to a single-sheet workbook with lon and lat
// columns after the marker attributes.
func WriteMarkersXLSX(path string, markers []chainage.Marker) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(MarkersSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range append(append([]string{}, MarkerColumns...), "lon", "lat") {
		header.AddCell().SetString(c)
	}

	for _, m := range markers {
		row := sheet.AddRow()
		for _, v := range markerValues(m) {
			cell := row.AddCell()
			switch t := v.(type) {
			case int64:
				cell.SetInt64(t)
			case float64:
				cell.SetFloat(t)
			case bool:
				cell.SetBool(t)
			case string:
				cell.SetString(t)
			}
		}
		pt := markerPoint(m)
		row.AddCell().SetFloat(pt.X())
		row.AddCell().SetFloat(pt.Y())
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}
