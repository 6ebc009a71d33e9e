package source

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/chainage-cli/internal/centreline"
)

// shapefileParts are the members unpacked alongside a .shp.
var shapefileParts = []string{".shp", ".shx", ".dbf", ".prj", ".cpg"}

// ReadCentrelineZIP reads a zipped shapefile. The archive must hold exactly
// one .shp; only it and the sidecars sharing its stem are unpacked.
func ReadCentrelineZIP(zipPath string) ([]centreline.Segment, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrapf(err, "zip: open %s", zipPath)
	}
	defer func() { _ = r.Close() }()

	members, err := shapefileEntries(r.File)
	if err != nil {
		return nil, eris.Wrapf(err, "zip: %s", zipPath)
	}

	dir, err := os.MkdirTemp("", "centreline-*")
	if err != nil {
		return nil, eris.Wrap(err, "zip: create temp dir")
	}
	defer func() { _ = os.RemoveAll(dir) }()

	var shpPath string
	for _, f := range members {
		out, err := unpackEntry(f, dir)
		if err != nil {
			return nil, err
		}
		if ext(out) == ".shp" {
			shpPath = out
		}
	}

	zap.L().Debug("source: unpacked centreline archive",
		zap.String("archive", zipPath),
		zap.String("shapefile", filepath.Base(shpPath)),
		zap.Int("members", len(members)),
	)
	return ReadCentrelineShapefile(shpPath)
}

// shapefileEntries picks the single .shp of an archive and the sidecars that
// share its stem. Members whose names leave the archive root are rejected.
func shapefileEntries(files []*zip.File) ([]*zip.File, error) {
	stem := func(name string) string {
		return strings.TrimSuffix(name, path.Ext(name))
	}

	var stems []string
	for _, f := range files {
		if !f.FileInfo().IsDir() && ext(f.Name) == ".shp" {
			stems = append(stems, stem(f.Name))
		}
	}
	if len(stems) != 1 {
		return nil, eris.Wrapf(ErrUnsupportedFormat, "zip: archive holds %d shapefiles, want 1", len(stems))
	}

	var members []*zip.File
	for _, f := range files {
		if stem(f.Name) != stems[0] || !slices.Contains(shapefileParts, ext(f.Name)) {
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(f.Name)) {
			return nil, eris.Errorf("zip: illegal member path %q", f.Name)
		}
		members = append(members, f)
	}
	return members, nil
}

// unpackEntry writes a member into dir under its base name.
func unpackEntry(f *zip.File, dir string) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrapf(err, "zip: open member %s", f.Name)
	}
	defer func() { _ = rc.Close() }()

	out := filepath.Join(dir, path.Base(f.Name))
	w, err := os.Create(out)
	if err != nil {
		return "", eris.Wrapf(err, "zip: create %s", out)
	}
	if _, err := io.Copy(w, rc); err != nil {
		_ = w.Close()
		return "", eris.Wrapf(err, "zip: unpack %s", f.Name)
	}
	if err := w.Close(); err != nil {
		return "", eris.Wrapf(err, "zip: close %s", out)
	}
	return out, nil
}
