// Package scanner discovers SAS programs under a set of paths and analyzes
// them concurrently.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/petrarca/sas-analyzer/internal/analyzer"
	"github.com/petrarca/sas-analyzer/internal/codestats"
	"github.com/petrarca/sas-analyzer/internal/git"
	"github.com/petrarca/sas-analyzer/internal/license"
	"github.com/petrarca/sas-analyzer/internal/lineage"
	"github.com/petrarca/sas-analyzer/internal/matchers"
	"github.com/petrarca/sas-analyzer/internal/metadata"
	"github.com/petrarca/sas-analyzer/internal/progress"
	"github.com/petrarca/sas-analyzer/internal/provider"
	"github.com/petrarca/sas-analyzer/internal/source"
	"github.com/petrarca/sas-analyzer/internal/spec"
	"github.com/petrarca/sas-analyzer/internal/types"
)

// Directories never descended into
var defaultIgnoredDirs = map[string]bool{
	".git": true,
	".svn": true,
	".hg":  true,
}

// Options configures a Scanner. Zero values select the defaults.
type Options struct {
	Excludes       []string // CLI exclude globs
	ConfigExcludes []string // excludes from .sas-analyzer.yml or the config file
	Jobs           int      // concurrent analyses, runtime.NumCPU() when <= 0
	Tables         *matchers.Set
	CodeStats      codestats.Analyzer
	Progress       *progress.Progress
	Logger         *slog.Logger
	Properties     map[string]interface{}
}

// Scanner discovers and analyzes SAS files
type Scanner struct {
	opts     Options
	lang     *LanguageDetector
	loader   *source.Loader
	licenses *license.LicenseDetector
	progress *progress.Progress
	logger   *slog.Logger
}

// FileReport is the outcome for one file. Error is set instead of Result
// when the file could not be read.
type FileReport struct {
	Path        string           `json:"path" yaml:"path"`
	Language    string           `json:"language" yaml:"language"`
	DetectedBy  string           `json:"detected_by" yaml:"detected_by"`
	Encoding    string           `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Fingerprint string           `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Size        int              `json:"size" yaml:"size"`
	Stats       *codestats.Stats `json:"code_stats,omitempty" yaml:"code_stats,omitempty"`
	Result      *analyzer.Result `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Lineage     []lineage.Edge   `json:"lineage,omitempty" yaml:"lineage,omitempty"`
	Error       string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the file could not be analyzed
func (r *FileReport) Failed() bool {
	return r.Error != ""
}

// Project is the result of a scan, files sorted by path
type Project struct {
	Metadata  *metadata.RunMetadata `json:"metadata" yaml:"metadata"`
	Files     []FileReport          `json:"files" yaml:"files"`
	CodeStats *codestats.CodeStats  `json:"code_stats,omitempty" yaml:"code_stats,omitempty"`
}

// candidate is a discovered file waiting for analysis
type candidate struct {
	provider   types.Provider
	path       string // provider relative
	display    string // path reported in FileReport
	detectedBy string // empty when the content decides
	remote     bool   // read through the source loader, provider unused
}

// New creates a scanner
func New(opts Options) *Scanner {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	if opts.CodeStats == nil {
		opts.CodeStats = codestats.NewAnalyzer(false)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	prog := opts.Progress
	if prog == nil {
		prog = progress.New(false, progress.NewNullHandler())
	}

	return &Scanner{
		opts:     opts,
		lang:     NewLanguageDetector(),
		loader:   source.NewLoader(),
		licenses: license.NewLicenseDetector(),
		progress: prog,
		logger:   logger,
	}
}

// Scan analyzes every SAS file below root
func (s *Scanner) Scan(ctx context.Context, root string) (*Project, error) {
	return s.ScanPaths(ctx, []string{root})
}

// ScanPaths analyzes files, directories and URLs. Directories are walked,
// files and URLs are analyzed directly regardless of their extension.
func (s *Scanner) ScanPaths(ctx context.Context, paths []string) (*Project, error) {
	start := time.Now()
	meta := metadata.New(paths, spec.Version)
	meta.SetProperties(s.opts.Properties)
	if len(paths) > 0 && !source.IsRemote(paths[0]) {
		meta.Git = git.GetGitInfo(paths[0])
	}
	meta.ProjectID = git.ProjectID(paths)

	var candidates []candidate
	var roots []string
	dirs := 0
	for _, p := range paths {
		if source.IsRemote(p) {
			candidates = append(candidates, candidate{path: p, display: p, detectedBy: DetectedByPath, remote: true})
			continue
		}

		parent := provider.NewFSProvider(filepath.Dir(p))
		isDir, err := parent.IsDir(filepath.Base(p))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", source.ErrUnavailable, p, err)
		}
		if !isDir {
			candidates = append(candidates, candidate{
				provider:   parent,
				path:       filepath.Base(p),
				display:    p,
				detectedBy: DetectedByPath,
			})
			continue
		}

		roots = append(roots, p)
		found, walked, err := s.discover(ctx, provider.NewFSProvider(p), p)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, found...)
		dirs += walked
	}

	meta.Licenses = s.licenses.DetectAll(roots)

	reports, err := s.analyzeAll(ctx, candidates)
	if err != nil {
		return nil, err
	}

	project := s.finish(meta, reports, start)
	s.progress.ScanComplete(len(project.Files), dirs, time.Since(start))
	return project, nil
}

// ScanProvider analyzes every SAS file reachable through p. Paths in the
// reports are provider relative.
func (s *Scanner) ScanProvider(ctx context.Context, p types.Provider) (*Project, error) {
	start := time.Now()
	meta := metadata.New([]string{p.GetBasePath()}, spec.Version)
	meta.SetProperties(s.opts.Properties)

	candidates, dirs, err := s.discover(ctx, p, "")
	if err != nil {
		return nil, err
	}
	reports, err := s.analyzeAll(ctx, candidates)
	if err != nil {
		return nil, err
	}

	project := s.finish(meta, reports, start)
	s.progress.ScanComplete(len(project.Files), dirs, time.Since(start))
	return project, nil
}

// ScanFile analyzes a single file or URL. Unlike directory scans a missing
// source is returned as an error wrapping source.ErrUnavailable.
func (s *Scanner) ScanFile(ctx context.Context, location string) (*FileReport, error) {
	file, err := s.loader.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	report := s.analyze(location, DetectedByPath, file)
	return report, nil
}

func (s *Scanner) finish(meta *metadata.RunMetadata, reports []FileReport, start time.Time) *Project {
	sort.SliceStable(reports, func(i, j int) bool { return reports[i].Path < reports[j].Path })

	failed, lines := 0, 0
	for _, r := range reports {
		if r.Failed() {
			failed++
			continue
		}
		lines += r.Result.Metrics.TotalLines
	}

	meta.SetDuration(time.Since(start))
	meta.SetCounts(len(reports), failed, lines)

	return &Project{
		Metadata:  meta,
		Files:     reports,
		CodeStats: s.opts.CodeStats.GetStats(),
	}
}

// discover walks p and returns the SAS candidates in walk order and the
// number of directories visited. prefix is joined to provider paths for
// display.
func (s *Scanner) discover(ctx context.Context, p types.Provider, prefix string) ([]candidate, int, error) {
	s.progress.ScanStart(p.GetBasePath(), append(append([]string{}, s.opts.Excludes...), s.opts.ConfigExcludes...))

	ignore := git.NewStackBasedLoader(p, s.progress, s.logger)
	ignore.InitializeWithTopLevelExcludes(s.opts.Excludes, s.opts.ConfigExcludes)

	w := &walker{scanner: s, provider: p, ignore: ignore, prefix: prefix}
	if err := w.walk(ctx, "."); err != nil {
		return nil, w.dirs, err
	}
	return w.found, w.dirs, nil
}

type walker struct {
	scanner  *Scanner
	provider types.Provider
	ignore   *git.StackBasedLoader
	prefix   string
	found    []candidate
	dirs     int
}

func (w *walker) walk(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := w.scanner
	w.dirs++
	s.progress.EnterDirectory(dir)
	defer s.progress.LeaveDirectory(dir)

	if w.ignore.LoadAndPushGitignore(dir) {
		defer w.ignore.PopGitignore(dir)
	}

	entries, err := w.provider.ListDir(dir)
	if err != nil {
		if dir == "." {
			return fmt.Errorf("%w: %s: %v", source.ErrUnavailable, w.provider.GetBasePath(), err)
		}
		s.logger.Warn("Failed to list directory", "path", dir, "error", err)
		return nil
	}

	for _, entry := range entries {
		rel := path.Clean(filepath.ToSlash(entry.Path))

		if entry.IsDir() && defaultIgnoredDirs[entry.Name] {
			continue
		}
		if excluded, reason := w.ignore.ShouldExclude(rel, entry.IsDir()); excluded {
			s.progress.Skipped(rel, reason)
			continue
		}

		if entry.IsDir() {
			if err := w.walk(ctx, entry.Path); err != nil {
				return err
			}
			continue
		}

		c := candidate{provider: w.provider, path: entry.Path, display: w.display(rel)}
		switch {
		case s.lang.ByName(entry.Name):
			c.detectedBy = DetectedByExtension
		case s.lang.NeedsContent(entry.Name):
			// decided once the content is read
		default:
			continue
		}
		w.found = append(w.found, c)
	}
	return nil
}

func (w *walker) display(rel string) string {
	if w.prefix == "" {
		return rel
	}
	return filepath.Join(w.prefix, filepath.FromSlash(rel))
}

// analyzeAll reads and analyzes candidates with at most Jobs concurrent
// workers. Each report lands at its candidate's index so the merged order
// does not depend on scheduling.
func (s *Scanner) analyzeAll(ctx context.Context, candidates []candidate) ([]FileReport, error) {
	slots := make([]*FileReport, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Jobs)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = s.process(gctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reports := make([]FileReport, 0, len(candidates))
	for _, r := range slots {
		if r != nil {
			reports = append(reports, *r)
		}
	}
	return reports, nil
}

// process reads one candidate. It returns nil for a content-sniffed file
// that turns out not to be SAS.
func (s *Scanner) process(ctx context.Context, c candidate) *FileReport {
	if c.remote {
		file, err := s.loader.Load(ctx, c.path)
		if err != nil {
			s.logger.Error("Failed to load file", "path", c.display, "error", err)
			s.progress.FileFailed(c.display, err)
			return &FileReport{Path: c.display, Language: SASLanguage, DetectedBy: c.detectedBy, Error: err.Error()}
		}
		s.progress.FileDiscovered(c.display, c.detectedBy)
		return s.analyze(c.display, c.detectedBy, file)
	}

	data, err := c.provider.ReadFile(c.path)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", source.ErrUnavailable, c.display, err)
		s.logger.Error("Failed to read file", "path", c.display, "error", err)
		s.progress.FileFailed(c.display, err)
		return &FileReport{Path: c.display, Language: SASLanguage, DetectedBy: c.detectedBy, Error: err.Error()}
	}

	detectedBy := c.detectedBy
	if detectedBy == "" {
		if !s.lang.ByContent(c.path, data) {
			return nil
		}
		detectedBy = DetectedByContent
	}
	s.progress.FileDiscovered(c.display, detectedBy)

	file, err := source.FromBytes(c.display, data)
	if err != nil {
		s.logger.Error("Failed to decode file", "path", c.display, "error", err)
		s.progress.FileFailed(c.display, err)
		return &FileReport{Path: c.display, Language: SASLanguage, DetectedBy: detectedBy, Error: err.Error()}
	}
	return s.analyze(c.display, detectedBy, file)
}

func (s *Scanner) analyze(display, detectedBy string, file *source.File) *FileReport {
	started := time.Now()

	opts := []analyzer.Option{
		analyzer.WithSource(display),
		analyzer.WithLogger(s.logger.With("file", display)),
	}
	if s.opts.Tables != nil {
		opts = append(opts, analyzer.WithTables(s.opts.Tables))
	}
	res := analyzer.Analyze(file.Lines, opts...)

	report := &FileReport{
		Path:        display,
		Language:    SASLanguage,
		DetectedBy:  detectedBy,
		Encoding:    file.Encoding,
		Fingerprint: file.Fingerprint,
		Size:        file.Size,
		Result:      res,
		Lineage:     lineage.Build(res),
	}
	if stats, ok := s.opts.CodeStats.ProcessFile(display, SASLanguage, file.Content); ok {
		report.Stats = &stats
	}

	s.progress.FileAnalyzed(display, len(file.Lines), len(res.Warnings), time.Since(started))
	return report
}
