package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrarca/sas-analyzer/internal/codestats"
	"github.com/petrarca/sas-analyzer/internal/lineage"
	"github.com/petrarca/sas-analyzer/internal/provider"
	"github.com/petrarca/sas-analyzer/internal/source"
)

const loadJob = `LIBNAME RAW '/data/raw';
DATA WORK.T1;
  SET RAW.SRC;
RUN;
PROC PRINT DATA=WORK.T1;
RUN;
`

const reportJob = `%MACRO REPORT(ds);
  PROC MEANS DATA=&ds;
  RUN;
%MEND REPORT;
%REPORT(WORK.T1);
`

func newProject() *provider.FakeProvider {
	p := provider.NewFakeProvider()
	p.AddFile("etl/load.sas", loadJob)
	p.AddFile("etl/report.SAS", reportJob)
	p.AddFile("etl/notes.txt", "not a program")
	p.AddFile("legacy/old.sas", "DATA OLD; RUN;")
	p.AddFile("etl/load_bak.sas", loadJob)
	p.AddFile("main.py", "print('hi')")
	return p
}

func paths(project *Project) []string {
	out := make([]string, len(project.Files))
	for i, f := range project.Files {
		out[i] = f.Path
	}
	return out
}

func TestScanProvider(t *testing.T) {
	s := New(Options{Jobs: 2})

	project, err := s.ScanProvider(context.Background(), newProject())
	require.NoError(t, err)

	assert.Equal(t, []string{"etl/load.sas", "etl/load_bak.sas", "etl/report.SAS", "legacy/old.sas"}, paths(project))
	assert.Equal(t, 4, project.Metadata.FileCount)
	assert.Equal(t, 0, project.Metadata.FailedCount)

	load := project.Files[0]
	assert.Equal(t, SASLanguage, load.Language)
	assert.Equal(t, DetectedByExtension, load.DetectedBy)
	assert.Equal(t, source.EncodingUTF8, load.Encoding)
	assert.NotEmpty(t, load.Fingerprint)
	require.NotNil(t, load.Result)
	assert.Equal(t, "etl/load.sas", load.Result.Source)
	assert.Equal(t, 6, load.Result.Metrics.TotalLines)
	assert.True(t, load.Result.DatasetsCreated.Has("WORK.T1"))
	assert.Contains(t, load.Lineage, lineage.Edge{
		Source: "RAW.SRC", Target: "WORK.T1", Kind: lineage.KindWrite, Line: 2, Origin: lineage.OriginData, Step: "DATA WORK.T1",
	})

	// identical content, identical fingerprint
	assert.Equal(t, load.Fingerprint, project.Files[1].Fingerprint)

	report := project.Files[2]
	assert.True(t, report.Result.MacrosDefined.Has("REPORT"))
	assert.Nil(t, report.Stats, "code stats are off by default")
}

func TestScanProviderExcludes(t *testing.T) {
	tests := []struct {
		name           string
		excludes       []string
		configExcludes []string
		gitignore      string
		want           []string
	}{
		{
			name:     "cli directory exclude",
			excludes: []string{"legacy"},
			want:     []string{"etl/load.sas", "etl/load_bak.sas", "etl/report.SAS"},
		},
		{
			name:           "config glob exclude",
			configExcludes: []string{"*_bak.sas"},
			want:           []string{"etl/load.sas", "etl/report.SAS", "legacy/old.sas"},
		},
		{
			name:      "gitignore with negation",
			gitignore: "*.sas\n!load.sas\n",
			want:      []string{"etl/load.sas", "etl/report.SAS"},
		},
		{
			name:     "anchored exclude",
			excludes: []string{"etl/report.SAS"},
			want:     []string{"etl/load.sas", "etl/load_bak.sas", "legacy/old.sas"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProject()
			if tt.gitignore != "" {
				p.AddFile(".gitignore", tt.gitignore)
			}

			s := New(Options{Excludes: tt.excludes, ConfigExcludes: tt.configExcludes})
			project, err := s.ScanProvider(context.Background(), p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, paths(project))
		})
	}
}

func TestScanDeterministicAcrossJobs(t *testing.T) {
	p := provider.NewFakeProvider()
	for i := 0; i < 40; i++ {
		name := filepath.ToSlash(filepath.Join("jobs", string(rune('a'+i%26))+string(rune('a'+i/26))+".sas"))
		p.AddFile(name, loadJob+reportJob)
	}

	sequential, err := New(Options{Jobs: 1}).ScanProvider(context.Background(), p)
	require.NoError(t, err)
	parallel, err := New(Options{Jobs: 8}).ScanProvider(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, sequential.Files, 40)
	assert.Equal(t, sequential.Files, parallel.Files)
	assert.Equal(t, sequential.Metadata.LineCount, parallel.Metadata.LineCount)
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).ScanProvider(ctx, newProject())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestScanUnreadableFile(t *testing.T) {
	p := &brokenProvider{FakeProvider: newProject(), broken: "etl/load.sas"}

	project, err := New(Options{}).ScanProvider(context.Background(), p)
	require.NoError(t, err)

	var failed *FileReport
	for i := range project.Files {
		if project.Files[i].Path == "etl/load.sas" {
			failed = &project.Files[i]
		}
	}
	require.NotNil(t, failed)
	assert.True(t, failed.Failed())
	assert.Nil(t, failed.Result)
	assert.Contains(t, failed.Error, source.ErrUnavailable.Error())
	assert.Equal(t, 1, project.Metadata.FailedCount)
}

type brokenProvider struct {
	*provider.FakeProvider
	broken string
}

func (p *brokenProvider) ReadFile(name string) ([]byte, error) {
	if name == p.broken {
		return nil, os.ErrPermission
	}
	return p.FakeProvider.ReadFile(name)
}

func TestScanPaths(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etl"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "etl", "load.sas"), []byte(loadJob), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "etl", "readme.md"), []byte("# jobs"), 0o644))
	single := filepath.Join(root, "adhoc.txt")
	require.NoError(t, os.WriteFile(single, []byte(reportJob), 0o644))

	s := New(Options{CodeStats: codestats.NewAnalyzer(true)})
	project, err := s.ScanPaths(context.Background(), []string{filepath.Join(root, "etl"), single})
	require.NoError(t, err)

	require.Len(t, project.Files, 2)
	assert.Equal(t, single, project.Files[0].Path)
	assert.Equal(t, DetectedByPath, project.Files[0].DetectedBy)
	assert.Equal(t, filepath.Join(root, "etl", "load.sas"), project.Files[1].Path)
	assert.Equal(t, DetectedByExtension, project.Files[1].DetectedBy)

	require.NotNil(t, project.Files[1].Stats)
	assert.Equal(t, 6, project.Files[1].Stats.Lines)
	require.NotNil(t, project.CodeStats)
	require.NotEmpty(t, project.CodeStats.ByLanguage)
	assert.Equal(t, SASLanguage, project.CodeStats.ByLanguage[0].Language)

	assert.Len(t, project.Metadata.Paths, 2)
	assert.Equal(t, 11, project.Metadata.LineCount)
}

func TestScanPathsMissing(t *testing.T) {
	_, err := New(Options{}).ScanPaths(context.Background(), []string{filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, source.ErrUnavailable))
}

func TestScanPathsURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "load.sas")
	require.NoError(t, os.WriteFile(path, []byte(loadJob), 0o644))
	url := "file://" + filepath.ToSlash(path)

	project, err := New(Options{}).ScanPaths(context.Background(), []string{url, url + ".missing"})
	require.NoError(t, err, "an unreachable URL fails only its own file")

	require.Len(t, project.Files, 2)
	assert.Equal(t, url, project.Files[0].Path)
	assert.Equal(t, DetectedByPath, project.Files[0].DetectedBy)
	assert.False(t, project.Files[0].Failed())
	assert.True(t, project.Files[1].Failed())
	assert.Contains(t, project.Files[1].Error, "source unavailable")

	assert.Equal(t, []string{url, url + ".missing"}, project.Metadata.Paths)
	assert.Nil(t, project.Metadata.Git)
}

func TestScanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "load.sas")
	require.NoError(t, os.WriteFile(path, []byte(loadJob), 0o644))

	s := New(Options{})
	report, err := s.ScanFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, report.Path)
	assert.False(t, report.Failed())
	assert.Len(t, report.Result.Blocks, 2)

	_, err = s.ScanFile(context.Background(), path+".missing")
	assert.True(t, errors.Is(err, source.ErrUnavailable))
}

func TestLanguageDetector(t *testing.T) {
	d := NewLanguageDetector()

	tests := []struct {
		name         string
		byName       bool
		needsContent bool
	}{
		{"load.sas", true, false},
		{"LOAD.SAS", true, false},
		{"main.py", false, false},
		{"notes.txt", false, false},
		{"Makefile", false, false},
		{".env", false, false},
		{"nightly_job", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.byName, d.ByName(tt.name))
			assert.Equal(t, tt.needsContent, d.NeedsContent(tt.name))
		})
	}

	assert.False(t, d.ByContent("nightly_job", nil))
	assert.False(t, d.ByContent("nightly_job", []byte{0x00, 0x01, 0x02, 0x00}))
	assert.Equal(t, SASLanguage, d.DetectLanguage("x.sas", nil))
	assert.Equal(t, "Python", d.DetectLanguage("main.py", []byte("print('hi')")))
}
