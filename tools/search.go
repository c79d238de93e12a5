package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nucleus-go/assistant/permission"
)

// defaultSearchExcludePatterns mirrors the indexer's default exclusions so
// Search never walks into build artifacts or VCS metadata.
var defaultSearchExcludePatterns = []string{
	".git", "node_modules", "vendor", "target", "dist", "build",
	".idea", ".vscode", "__pycache__", ".DS_Store",
}

// searchMatch is one line-level search hit; the JSON encoding is what
// SearchTool.Execute returns as its Result.Content.
type searchMatch struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

// SearchTool walks a directory and scans text files line-by-line for a
// literal or regex query.
type SearchTool struct{}

// NewSearchTool constructs the Search plugin.
func NewSearchTool() *SearchTool {
	return &SearchTool{}
}

func (t *SearchTool) Name() string { return "search" }
func (t *SearchTool) Description() string {
	return "Search files under a directory for a query, line by line"
}

func (t *SearchTool) Schema() ParamSchema {
	return ParamSchema{
		Type:     "object",
		Required: []string{"query"},
		Properties: map[string]ParamProperty{
			"query":            {Type: "string", Description: "Text or regex pattern to search for"},
			"path":             {Type: "string", Description: "Root directory to search (default: current directory)"},
			"regex":            {Type: "boolean", Description: "Treat query as a regular expression"},
			"case_sensitive":   {Type: "boolean", Description: "Match case-sensitively"},
			"max_results":      {Type: "integer", Description: "Maximum number of matches to return"},
			"exclude_patterns": {Type: "array", Description: "Additional substrings that exclude a path"},
		},
	}
}

func (t *SearchTool) RequiredPermission() permission.Permission {
	return permission.Read
}

func (t *SearchTool) Execute(ctx context.Context, args map[string]interface{}) (Result, error) {
	query, ok := argString(args, "query")
	if !ok || query == "" {
		return Result{}, NewError(t.Name(), InvalidInput, "query is required", nil)
	}

	root := argStringDefault(args, "path", ".")
	useRegex := argBoolDefault(args, "regex", false)
	caseSensitive := argBoolDefault(args, "case_sensitive", false)
	maxResults := argIntDefault(args, "max_results", 100)
	excludePatterns := append(append([]string{}, defaultSearchExcludePatterns...), argStringSlice(args, "exclude_patterns")...)

	matcher, err := newLineMatcher(query, useRegex, caseSensitive)
	if err != nil {
		return Result{}, NewError(t.Name(), InvalidInput, "invalid query", err)
	}

	matches, err := walkAndSearch(root, excludePatterns, maxResults, matcher)
	if err != nil {
		return Result{}, NewError(t.Name(), ExecutionFailed, "search failed", err)
	}

	encoded, err := json.Marshal(matches)
	if err != nil {
		return Result{}, NewError(t.Name(), Other, "could not encode results", err)
	}

	return Result{
		Content:  string(encoded),
		Metadata: map[string]interface{}{"match_count": len(matches), "root": root},
	}, nil
}

type lineMatcher func(line string) bool

func newLineMatcher(query string, useRegex, caseSensitive bool) (lineMatcher, error) {
	if useRegex {
		pattern := query
		if !caseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		return re.MatchString, nil
	}

	needle := query
	if !caseSensitive {
		needle = strings.ToLower(needle)
	}
	return func(line string) bool {
		if !caseSensitive {
			line = strings.ToLower(line)
		}
		return strings.Contains(line, needle)
	}, nil
}

func isExcludedPath(path string, excludePatterns []string) bool {
	for _, component := range strings.Split(filepath.ToSlash(path), "/") {
		for _, pattern := range excludePatterns {
			if pattern != "" && strings.Contains(component, pattern) {
				return true
			}
		}
	}
	return false
}

func walkAndSearch(root string, excludePatterns []string, maxResults int, matches lineMatcher) ([]searchMatch, error) {
	var results []searchMatch

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if len(results) >= maxResults {
			return filepath.SkipAll
		}
		if isExcludedPath(path, excludePatterns) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		f, openErr := os.Open(path)
		if openErr != nil {
			return nil // skip unreadable files
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			if len(results) >= maxResults {
				break
			}
			line := scanner.Text()
			if matches(line) {
				results = append(results, searchMatch{File: path, Line: lineNo, Content: line})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
