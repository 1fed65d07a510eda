package codestats

import (
	"os"
	"sync"

	"github.com/boyter/scc/v3/processor"
)

var initOnce sync.Once

// ProcessFile counts a file with scc and aggregates its stats. If content is
// empty the file is read from disk.
func (a *sccAnalyzer) ProcessFile(filename string, language string, content []byte) (Stats, bool) {
	if language == "" {
		return Stats{}, false
	}

	if len(content) == 0 {
		var err error
		content, err = os.ReadFile(filename)
		if err != nil || len(content) == 0 {
			return Stats{}, false
		}
	}

	// scc language definitions are global
	initOnce.Do(func() {
		processor.ProcessConstants()
	})

	sccLangs, _ := processor.DetectLanguage(filename)
	sccLang := ""
	if len(sccLangs) > 0 {
		sccLang = sccLangs[0]
	}

	filejob := &processor.FileJob{
		Filename: filename,
		Language: sccLang,
		Content:  content,
		Bytes:    int64(len(content)),
	}
	processor.CountStats(filejob)

	stats := Stats{
		Lines:      filejob.Lines,
		Code:       filejob.Code,
		Comments:   filejob.Comment,
		Blanks:     filejob.Blank,
		Complexity: filejob.Complexity,
		Files:      1,
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if sccLang == "" {
		a.unanalyzed.Lines += stats.Lines
		a.unanalyzed.Files++
		return Stats{Lines: stats.Lines, Files: 1}, true
	}

	a.total.add(stats)
	if _, ok := a.byLanguage[language]; !ok {
		a.byLanguage[language] = &Stats{}
	}
	a.byLanguage[language].add(stats)
	return stats, true
}
