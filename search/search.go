// Package search keeps a full-text index over the contents of the files
// included in the snapshot.
package search

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/lexandro/codesnap/index"
	"github.com/lexandro/codesnap/language"
)

// ReadFunc loads the content of an index path.
type ReadFunc func(path string) ([]byte, error)

// Index is an in-memory bleve index plus the raw content needed to report
// matching lines.
type Index struct {
	mu       sync.RWMutex
	bleve    bleve.Index
	contents map[string]string
}

type document struct {
	Content  string `json:"content"`
	Path     string `json:"path"`
	Language string `json:"language"`
}

// New creates an empty in-memory index.
func New() (*Index, error) {
	b, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}
	return &Index{bleve: b, contents: make(map[string]string)}, nil
}

func buildMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	contentField.Store = false
	contentField.IncludeInAll = true
	docMapping.AddFieldMappingsAt("content", contentField)

	pathField := bleve.NewTextFieldMapping()
	pathField.Store = true
	pathField.IncludeInAll = false
	docMapping.AddFieldMappingsAt("path", pathField)

	langField := bleve.NewKeywordFieldMapping()
	langField.Store = true
	langField.IncludeInAll = false
	docMapping.AddFieldMappingsAt("language", langField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Put adds or replaces the document for path.
func (ix *Index) Put(path string, content string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	doc := document{Content: content, Path: path, Language: language.Detect(path)}
	if err := ix.bleve.Index(path, doc); err != nil {
		return fmt.Errorf("indexing %s: %w", path, err)
	}
	ix.contents[path] = content
	return nil
}

// Remove drops path from the index.
func (ix *Index) Remove(path string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	delete(ix.contents, path)
	if err := ix.bleve.Delete(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// Apply brings the index in line with one scan's changes. Every path is
// attempted; the first error is returned.
func (ix *Index) Apply(changes index.Changes, read ReadFunc) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, p := range changes.Removed {
		keep(ix.Remove(p))
	}
	for _, list := range [][]string{changes.Added, changes.Modified} {
		for _, p := range list {
			data, err := read(p)
			if err != nil {
				keep(fmt.Errorf("reading %s: %w", p, err))
				continue
			}
			keep(ix.Put(p, string(data)))
		}
	}
	return firstErr
}

// Content returns the indexed content of path.
func (ix *Index) Content(path string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	content, ok := ix.contents[strings.ReplaceAll(path, "\\", "/")]
	return content, ok
}

// Count returns the number of indexed documents.
func (ix *Index) Count() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	count, _ := ix.bleve.DocCount()
	return count
}

// Close releases the bleve index.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.bleve.Close()
}

// Result is the set of matching lines within one file.
type Result struct {
	Path    string
	Matches []LineMatch
}

// LineMatch is one matching line with optional surrounding context.
type LineMatch struct {
	LineNumber    int
	LineText      string
	ContextBefore []string
	ContextAfter  []string
}

// Options configures a search.
type Options struct {
	Query        string
	FilePath     string // exact path; takes precedence over FileGlob
	FileGlob     string
	MaxResults   int
	ContextLines int
}

// Search runs a query and returns per-file line matches plus the total
// number of matching lines.
//
// Query syntax:
//   - plain words: match query
//   - "quoted text": phrase query
//   - /regex/: regexp query
func (ix *Index) Search(options Options) ([]Result, int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if options.MaxResults <= 0 {
		options.MaxResults = 50
	}
	if options.ContextLines < 0 {
		options.ContextLines = 0
	}

	matchLine, err := lineMatcher(options.Query)
	if err != nil {
		return nil, 0, err
	}

	request := bleve.NewSearchRequest(buildQuery(options.Query))
	// Fetch extra hits; some are dropped by the path filters below.
	request.Size = options.MaxResults * 5
	request.Fields = []string{"path", "language"}

	hits, err := ix.bleve.Search(request)
	if err != nil {
		return nil, 0, fmt.Errorf("searching index: %w", err)
	}

	filePath := strings.ReplaceAll(options.FilePath, "\\", "/")
	fileGlob := strings.ReplaceAll(options.FileGlob, "\\", "/")

	var results []Result
	total := 0
	for _, hit := range hits.Hits {
		p := hit.ID
		content, ok := ix.contents[p]
		if !ok {
			continue
		}

		if filePath != "" {
			if p != filePath {
				continue
			}
		} else if fileGlob != "" {
			matched, matchErr := doublestar.Match(fileGlob, p)
			if matchErr != nil || !matched {
				continue
			}
		}

		lines := findMatchingLines(content, matchLine, options.ContextLines)
		if len(lines) == 0 {
			continue
		}
		total += len(lines)
		results = append(results, Result{Path: p, Matches: lines})

		if len(results) >= options.MaxResults {
			break
		}
	}
	return results, total, nil
}

func buildQuery(q string) query.Query {
	q = strings.TrimSpace(q)
	if term, ok := delimited(q, "/"); ok {
		return bleve.NewRegexpQuery(term)
	}
	if term, ok := delimited(q, "\""); ok {
		return bleve.NewMatchPhraseQuery(term)
	}
	return bleve.NewMatchQuery(q)
}

// lineMatcher returns the predicate used to pick matching lines out of a
// hit's content. Regex queries match lines with the regex itself; other
// queries match case-insensitively on the raw term.
func lineMatcher(q string) (func(string) bool, error) {
	q = strings.TrimSpace(q)
	if term, ok := delimited(q, "/"); ok {
		re, err := regexp.Compile(term)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", term, err)
		}
		return re.MatchString, nil
	}
	if term, ok := delimited(q, "\""); ok {
		q = term
	}
	needle := strings.ToLower(q)
	return func(line string) bool {
		return strings.Contains(strings.ToLower(line), needle)
	}, nil
}

func delimited(q string, delim string) (string, bool) {
	if len(q) > 2 && strings.HasPrefix(q, delim) && strings.HasSuffix(q, delim) {
		return q[1 : len(q)-1], true
	}
	return "", false
}

func findMatchingLines(content string, match func(string) bool, contextLines int) []LineMatch {
	lines := strings.Split(content, "\n")

	var matches []LineMatch
	for i, line := range lines {
		if !match(line) {
			continue
		}
		m := LineMatch{LineNumber: i + 1, LineText: line}
		if contextLines > 0 {
			start := max(i-contextLines, 0)
			end := min(i+contextLines+1, len(lines))
			m.ContextBefore = append(m.ContextBefore, lines[start:i]...)
			m.ContextAfter = append(m.ContextAfter, lines[i+1:end]...)
		}
		matches = append(matches, m)
	}
	return matches
}
