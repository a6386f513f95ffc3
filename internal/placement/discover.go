package placement

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"mrimark/internal/fileutil"
	"mrimark/internal/issues"
)

// Image extensions, longest first.
var imageExtensions = []string{".nii.gz", ".nii"}

// Gradient table extensions copied alongside diffusion series.
var gradientExtensions = []string{".bval", ".bvec"}

// Series is one converted image with its sidecar files.
type Series struct {
	Site    string
	Subject string
	// Base is the image path without its extension.
	Base     string
	ImageExt string
}

// Image returns the image file path.
func (s Series) Image() string { return s.Base + s.ImageExt }

// Sidecar returns the JSON sidecar path.
func (s Series) Sidecar() string { return s.Base + ".json" }

// Files returns every existing file of the series as extension→path, image
// and sidecar first.
func (s Series) Files() []SeriesFile {
	files := []SeriesFile{
		{Ext: s.ImageExt, Path: s.Image()},
		{Ext: ".json", Path: s.Sidecar()},
	}
	for _, ext := range gradientExtensions {
		if path := s.Base + ext; fileutil.Exists(path) {
			files = append(files, SeriesFile{Ext: ext, Path: path})
		}
	}
	return files
}

// SeriesFile is one file belonging to a series.
type SeriesFile struct {
	Ext  string
	Path string
}

// subjectDir is a subject directory that matched the subject pattern.
type subjectDir struct {
	site    string
	subject string
	path    string
}

// discoverSubjects lists <source>/<site>/<subject> directories whose names
// start with a match of pattern. The subject key is the matched prefix.
func discoverSubjects(source string, pattern *regexp.Regexp) ([]subjectDir, error) {
	sites, err := os.ReadDir(source)
	if err != nil {
		return nil, issues.Wrap(issues.ErrNotFound, stagePlace, "read source", source, err)
	}
	var out []subjectDir
	for _, site := range sites {
		if !site.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(source, site.Name()))
		if err != nil {
			return nil, issues.Wrap(issues.ErrIO, stagePlace, "read site", site.Name(), err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			loc := pattern.FindStringIndex(entry.Name())
			if loc == nil || loc[0] != 0 {
				continue
			}
			out = append(out, subjectDir{
				site:    site.Name(),
				subject: entry.Name()[:loc[1]],
				path:    filepath.Join(source, site.Name(), entry.Name()),
			})
		}
	}
	return out, nil
}

// discoverSeries walks a subject directory for image files, ignoring
// AppleDouble "._" files.
func discoverSeries(dir subjectDir) []Series {
	var found []Series
	_ = filepath.WalkDir(dir.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || strings.HasPrefix(d.Name(), "._") {
			return nil
		}
		for _, ext := range imageExtensions {
			if strings.HasSuffix(d.Name(), ext) {
				found = append(found, Series{
					Site:     dir.site,
					Subject:  dir.subject,
					Base:     strings.TrimSuffix(path, ext),
					ImageExt: ext,
				})
				break
			}
		}
		return nil
	})
	slices.SortFunc(found, func(a, b Series) int { return strings.Compare(a.Image(), b.Image()) })
	return found
}
