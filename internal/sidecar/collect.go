package sidecar

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"mrimark/internal/config"
	"mrimark/internal/issues"
	"mrimark/internal/logging"
	"mrimark/internal/table"
	"mrimark/internal/textutil"
)

const (
	stageCollect = "ingest"

	// MetadataSuffix ends every per-subject table name.
	MetadataSuffix = "_metadata.csv"
)

// ingestEncodings is the order sidecar bytes are tried in during ingestion.
var ingestEncodings = []string{textutil.UTF8, textutil.GBK}

// Collector builds per-subject metadata tables.
type Collector struct {
	naming       Naming
	includeDICOM bool
	logger       *slog.Logger
}

// SubjectResult describes one subject directory that produced a table.
type SubjectResult struct {
	Site    string
	Subject string
	Rows    int
	Path    string
}

// CollectResult summarizes a collection run.
type CollectResult struct {
	Subjects []SubjectResult
	Skipped  []string
	Issues   issues.List
}

// Rows returns the total number of rows written.
func (r CollectResult) Rows() int {
	total := 0
	for _, s := range r.Subjects {
		total += s.Rows
	}
	return total
}

// NewCollector builds a collector from the ingest settings.
func NewCollector(cfg config.Ingest, logger *slog.Logger) (*Collector, error) {
	naming, err := NewNaming(cfg.SubjectPattern, cfg.SplitChar)
	if err != nil {
		return nil, err
	}
	return &Collector{
		naming:       naming,
		includeDICOM: cfg.IncludeDICOM,
		logger:       logging.NewComponentLogger(logger, "ingest"),
	}, nil
}

// Collect walks <source>/<site>/<subject> directories and writes
// <dest>/<subject>_metadata.csv for every matching subject with at least one
// readable sidecar. Unreadable files are recorded as issues and skipped.
func (c *Collector) Collect(ctx context.Context, source, dest string) (CollectResult, error) {
	var result CollectResult
	subjects, err := c.subjects(source)
	if err != nil {
		return result, err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return result, issues.Wrap(issues.ErrIO, stageCollect, "create destination", dest, err)
	}

	sampler := logging.NewProgressSampler(10)
	for i, dir := range subjects {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		site := filepath.Base(filepath.Dir(dir))
		subject := filepath.Base(dir)
		logger := c.logger.With(logging.String("site", site), logging.String(logging.FieldPID, subject))

		if !c.naming.Matches(subject) {
			result.Skipped = append(result.Skipped, dir)
			logger.Debug("subject directory skipped; name does not match pattern")
			continue
		}
		id, err := c.naming.Identify(subject)
		if err != nil {
			result.Issues.Add(issues.Issue{Row: -1, PID: subject, Stage: stageCollect, Field: "subject", Value: subject, Err: err})
			logging.Warn(logger, "subject_unsplit", "subject name not split", logging.Error(err))
			continue
		}

		t, found := c.subjectTable(dir, id)
		result.Issues.Extend(found)
		for _, issue := range found {
			logging.Warn(logger, "sidecar_unreadable", "sidecar skipped",
				logging.String("file", issue.Value),
				logging.Error(issue.Err),
			)
		}
		if t.Len() == 0 {
			logger.Debug("no sidecars found")
			continue
		}

		path := filepath.Join(dest, subject+MetadataSuffix)
		if err := table.WriteFile(path, t); err != nil {
			return result, err
		}
		result.Subjects = append(result.Subjects, SubjectResult{Site: site, Subject: subject, Rows: t.Len(), Path: path})
		if sampler.ShouldLog(i+1, len(subjects)) {
			c.logger.Info("ingest progress",
				logging.Int("done", i+1),
				logging.Int("total", len(subjects)),
			)
		}
	}

	c.logger.Info("ingest complete",
		logging.Int("subjects", len(result.Subjects)),
		logging.Int("rows", result.Rows()),
		logging.Int("skipped", len(result.Skipped)),
		logging.Int("issues", result.Issues.Len()),
	)
	return result, nil
}

// subjects lists every <site>/<subject> directory under source in name
// order.
func (c *Collector) subjects(source string) ([]string, error) {
	sites, err := os.ReadDir(source)
	if err != nil {
		return nil, issues.Wrap(issues.ErrNotFound, stageCollect, "read source", source, err)
	}
	var dirs []string
	for _, site := range sites {
		if !site.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(source, site.Name()))
		if err != nil {
			return nil, issues.Wrap(issues.ErrIO, stageCollect, "read site", site.Name(), err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				dirs = append(dirs, filepath.Join(source, site.Name(), entry.Name()))
			}
		}
	}
	return dirs, nil
}

func (c *Collector) subjectTable(dir string, id Identity) (*table.Table, issues.List) {
	var found issues.List
	t := table.New()
	idNames, idValues := id.Columns()
	add := func(names []string, values map[string]string) {
		for _, name := range idNames {
			if _, ok := values[name]; !ok {
				names = append(names, name)
			}
			values[name] = idValues[name]
		}
		t.Append(values, names)
	}

	jsonFiles, dicomFiles := sidecarFiles(dir, c.includeDICOM)
	seenSeries := make(map[string]struct{})
	for _, path := range jsonFiles {
		names, values, err := readSidecarWith(path, ingestEncodings)
		if err != nil {
			found.Add(issues.Issue{Row: -1, PID: id.PID, Stage: stageCollect, Field: "sidecar", Value: path, Err: err})
			continue
		}
		if uid := values["SeriesInstanceUID"]; uid != "" {
			seenSeries[uid] = struct{}{}
		}
		add(names, values)
	}

	for _, path := range dicomFiles {
		names, values, err := readDICOMHeader(path)
		if err != nil {
			found.Add(issues.Issue{Row: -1, PID: id.PID, Stage: stageCollect, Field: "dicom", Value: path, Err: issues.Wrap(issues.ErrData, stageCollect, "read dicom", filepath.Base(path), err)})
			continue
		}
		uid := values["SeriesInstanceUID"]
		if _, ok := seenSeries[uid]; ok && uid != "" {
			continue
		}
		seenSeries[uid] = struct{}{}
		add(names, values)
	}
	return t, found
}

// sidecarFiles returns the JSON sidecars (and DICOM files when requested)
// below dir in lexical order, ignoring dot files.
func sidecarFiles(dir string, withDICOM bool) (jsonFiles, dicomFiles []string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".json":
			jsonFiles = append(jsonFiles, path)
		case ".dcm":
			if withDICOM {
				dicomFiles = append(dicomFiles, path)
			}
		}
		return nil
	})
	slices.Sort(jsonFiles)
	slices.Sort(dicomFiles)
	return jsonFiles, dicomFiles
}

func readSidecarWith(path string, encodings []string) ([]string, map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, issues.Wrap(issues.ErrIO, stageCollect, "read sidecar", filepath.Base(path), err)
	}
	var (
		names  []string
		values map[string]string
	)
	_, _, err = textutil.Decode(data, func(text []byte) error {
		var decodeErr error
		names, values, decodeErr = decodeObject(text)
		return decodeErr
	}, encodings...)
	if err != nil {
		return nil, nil, issues.Wrap(issues.ErrData, stageCollect, "decode sidecar", filepath.Base(path), err)
	}
	return names, values, nil
}

// ReadSidecar decodes a JSON sidecar trying encodings in order, and returns
// its members as strings in document order.
func ReadSidecar(path string, encodings ...string) ([]string, map[string]string, error) {
	if len(encodings) == 0 {
		encodings = textutil.SidecarEncodings
	}
	return readSidecarWith(path, encodings)
}
