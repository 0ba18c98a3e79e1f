package ingest

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// document is one lesson file after parsing, split into its H2 sections.
type document struct {
	ChapterID string
	Title     string
	Module    string
	Sections  []section
}

type section struct {
	Name string
	Text string
}

var (
	frontmatterRe = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
	mdxStmtRe     = regexp.MustCompile(`(?m)^(import|export)\s.*$`)
	h1Re          = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	moduleDirRe   = regexp.MustCompile(`^(\d+)-(.+)$`)
)

// parseDocument splits a lesson's markdown into sections keyed by H2
// heading. Text before the first H2 is kept as an "Overview" section.
func parseDocument(relPath, raw string) document {
	text := frontmatterRe.ReplaceAllString(raw, "")
	text = mdxStmtRe.ReplaceAllString(text, "")

	doc := document{
		ChapterID: chapterID(relPath),
		Module:    moduleName(relPath),
	}
	if m := h1Re.FindStringSubmatch(text); m != nil {
		doc.Title = strings.TrimSpace(m[1])
	}

	parts := strings.Split(text, "\n## ")
	preamble := strings.TrimSpace(stripHeadings(parts[0]))
	if preamble != "" {
		doc.Sections = append(doc.Sections, section{Name: "Overview", Text: preamble})
	}
	for _, part := range parts[1:] {
		name, body, _ := strings.Cut(part, "\n")
		doc.Sections = append(doc.Sections, section{
			Name: strings.TrimSpace(name),
			Text: strings.TrimSpace(body),
		})
	}
	return doc
}

// chapterID derives the stable chapter identifier from the file name,
// e.g. "01-foundations/02-humanoid-platforms.md" -> "02-humanoid-platforms".
func chapterID(relPath string) string {
	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// moduleName maps a numbered content directory to its module label,
// e.g. "01-introduction" -> "module-1-introduction". Files at the content
// root belong to no module.
func moduleName(relPath string) string {
	dir := filepath.Dir(relPath)
	if dir == "." {
		return ""
	}
	top := strings.Split(filepath.ToSlash(dir), "/")[0]
	m := moduleDirRe.FindStringSubmatch(top)
	if m == nil {
		return top
	}
	n, _ := strconv.Atoi(m[1])
	return "module-" + strconv.Itoa(n) + "-" + m[2]
}

// stripHeadings drops markdown heading lines so the preamble carries only
// prose.
func stripHeadings(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
