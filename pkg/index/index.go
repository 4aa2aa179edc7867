// Package index builds an in-memory snapshot of a markdown vault: per
// document it extracts frontmatter fields, inline fields, tags, links
// and the task tree, and serves the lookups the query pipeline needs
// (tag, folder-prefix and link-graph resolution).
//
// A Snapshot is immutable once built. Callers observing filesystem
// changes rebuild and swap the whole snapshot rather than patching it.
package index

import (
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/noteql/noteql/pkg/value"
)

// Document is one indexed markdown file.
type Document struct {
	Path    string
	Name    string // file name without extension
	Folder  string
	Tags    []string // expanded: #a/b yields #a and #a/b
	ETags   []string // exact tags as written
	Aliases []string
	Links   []string // outgoing link targets, as written
	Tasks   value.Array
	Fields  value.Object // custom frontmatter and inline fields

	Size  int64
	CTime value.Value
	MTime value.Value
	Day   value.Value // date parsed from the file name, null otherwise
}

// Snapshot is a point-in-time view of a vault, satisfying the query
// engine's Index and Resolver interfaces.
type Snapshot struct {
	docs   map[string]*Document
	byName map[string][]string // lowercased basename -> paths
	byTag  map[string][]string
	paths  []string
}

// Load walks a filesystem rooted at a vault directory and indexes every
// markdown file. Unreadable or unparsable files are skipped with a log
// line; one broken note must not take the vault down.
func Load(fsys fs.FS, logger *slog.Logger) (*Snapshot, error) {
	if logger == nil {
		logger = slog.Default()
	}

	snap := &Snapshot{
		docs:   map[string]*Document{},
		byName: map[string][]string{},
		byTag:  map[string][]string{},
	}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(p), ".md") {
			return nil
		}

		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			logger.Warn("skipping unreadable file", "path", p, "error", err)
			return nil
		}

		doc := parseDocument(p, raw, logger)
		if info, err := d.Info(); err == nil {
			doc.Size = info.Size()
			doc.MTime = value.NewDate(info.ModTime())
			doc.CTime = value.NewDate(info.ModTime())
		}
		snap.add(doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(snap.paths)
	logger.Debug("vault indexed", "documents", len(snap.paths))
	return snap, nil
}

func (s *Snapshot) add(doc *Document) {
	s.docs[doc.Path] = doc
	s.paths = append(s.paths, doc.Path)

	base := strings.ToLower(strings.TrimSuffix(path.Base(doc.Path), ".md"))
	s.byName[base] = append(s.byName[base], doc.Path)

	for _, tag := range doc.Tags {
		s.byTag[tag] = append(s.byTag[tag], doc.Path)
	}
}

// Paths returns every indexed document path.
func (s *Snapshot) Paths() []string {
	return s.paths
}

// PathsWithTag returns documents carrying the tag. Subtags were
// expanded at indexing time, so #a matches documents tagged #a/b.
func (s *Snapshot) PathsWithTag(tag string) []string {
	return s.byTag[tag]
}

// PathsUnderPrefix returns documents whose path starts with the folder
// prefix. The empty prefix selects the whole vault.
func (s *Snapshot) PathsUnderPrefix(prefix string) []string {
	if prefix == "" {
		return s.paths
	}
	prefix = strings.TrimSuffix(prefix, "/")
	var out []string
	for _, p := range s.paths {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			out = append(out, p)
		}
	}
	return out
}

// OutgoingLinks returns the normalized outgoing link targets of a
// document.
func (s *Snapshot) OutgoingLinks(p string) []string {
	doc, ok := s.docs[s.Normalize(p)]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(doc.Links))
	for _, link := range doc.Links {
		out = append(out, s.Normalize(link))
	}
	return out
}

// DocumentFields returns a document's full field namespace: its custom
// fields at the top level plus the "file" metadata object.
func (s *Snapshot) DocumentFields(p string) (value.Object, bool) {
	doc, ok := s.docs[s.Normalize(p)]
	if !ok {
		return nil, false
	}

	fields := make(value.Object, len(doc.Fields)+1)
	for k, v := range doc.Fields {
		fields[k] = v
	}
	fields["file"] = s.fileObject(doc)
	return fields, true
}

func (s *Snapshot) fileObject(doc *Document) value.Object {
	tags := make(value.Array, len(doc.Tags))
	for i, t := range doc.Tags {
		tags[i] = value.String(t)
	}
	etags := make(value.Array, len(doc.ETags))
	for i, t := range doc.ETags {
		etags[i] = value.String(t)
	}
	aliases := make(value.Array, len(doc.Aliases))
	for i, a := range doc.Aliases {
		aliases[i] = value.String(a)
	}
	outlinks := make(value.Array, 0, len(doc.Links))
	for _, link := range doc.Links {
		outlinks = append(outlinks, value.FileLink(s.Normalize(link)))
	}

	return value.Object{
		"path":     value.String(doc.Path),
		"name":     value.String(doc.Name),
		"folder":   value.String(doc.Folder),
		"ext":      value.String("md"),
		"link":     value.FileLink(doc.Path),
		"size":     value.Number(doc.Size),
		"ctime":    orNull(doc.CTime),
		"mtime":    orNull(doc.MTime),
		"day":      orNull(doc.Day),
		"tags":     tags,
		"etags":    etags,
		"aliases":  aliases,
		"outlinks": outlinks,
		"tasks":    doc.Tasks,
	}
}

func orNull(v value.Value) value.Value {
	if v == nil {
		return value.NullValue
	}
	return v
}

// Resolver interface

// Resolve returns the field namespace of the document a link path
// points to.
func (s *Snapshot) Resolve(p string) (value.Object, bool) {
	return s.DocumentFields(p)
}

// Exists reports whether a path resolves to an indexed document.
func (s *Snapshot) Exists(p string) bool {
	_, ok := s.docs[s.Normalize(p)]
	return ok
}

// Normalize canonicalizes a link target: exact paths win, then the
// same path with ".md" appended, then a unique basename match anywhere
// in the vault. Unresolvable targets pass through unchanged.
func (s *Snapshot) Normalize(p string) string {
	p = strings.TrimSpace(p)
	if _, ok := s.docs[p]; ok {
		return p
	}
	if _, ok := s.docs[p+".md"]; ok {
		return p + ".md"
	}
	base := strings.ToLower(strings.TrimSuffix(path.Base(p), ".md"))
	if candidates := s.byName[base]; len(candidates) == 1 {
		return candidates[0]
	}
	return p
}
