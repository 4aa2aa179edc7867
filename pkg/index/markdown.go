package index

import (
	"bytes"
	"log/slog"
	"path"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noteql/noteql/pkg/value"
)

var (
	inlineFieldPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 _-]*?)::\s*(.*)$`)
	tagPattern         = regexp.MustCompile(`#[\pL\d/_-]+`)
	linkPattern        = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)
	taskPattern        = regexp.MustCompile(`^(\s*)[-*+] \[(.)\]\s*(.*)$`)
	annotationPattern  = regexp.MustCompile(`\[([A-Za-z][A-Za-z0-9_-]*)::\s*([^\]]*)\]`)
)

// parseDocument extracts the indexable content of one markdown file.
func parseDocument(p string, raw []byte, logger *slog.Logger) *Document {
	doc := &Document{
		Path:   p,
		Name:   strings.TrimSuffix(path.Base(p), ".md"),
		Folder: folderOf(p),
		Fields: value.Object{},
	}

	if d, ok := value.ParseDate(doc.Name); ok {
		doc.Day = d
	}

	front, body := splitFrontmatter(raw)
	if front != nil {
		parseFrontmatter(doc, front, logger)
	}
	parseBody(doc, body)

	doc.Tags = expandTags(doc.ETags)
	return doc
}

func folderOf(p string) string {
	dir := path.Dir(p)
	if dir == "." {
		return ""
	}
	return dir
}

// splitFrontmatter separates a leading "---" YAML block from the body.
func splitFrontmatter(raw []byte) ([]byte, []byte) {
	if !bytes.HasPrefix(raw, []byte("---\n")) && !bytes.HasPrefix(raw, []byte("---\r\n")) {
		return nil, raw
	}
	rest := raw[bytes.IndexByte(raw, '\n')+1:]
	for _, marker := range []string{"\n---\n", "\n---\r\n"} {
		if end := bytes.Index(rest, []byte(marker)); end >= 0 {
			return rest[:end], rest[end+len(marker):]
		}
	}
	if bytes.HasSuffix(rest, []byte("\n---")) {
		return rest[:len(rest)-4], nil
	}
	return nil, raw
}

// parseFrontmatter decodes the YAML block into document fields. The
// tags and aliases keys feed the document metadata; everything else
// becomes a custom field.
func parseFrontmatter(doc *Document, front []byte, logger *slog.Logger) {
	var data map[string]any
	if err := yaml.Unmarshal(front, &data); err != nil {
		logger.Warn("skipping malformed frontmatter", "path", doc.Path, "error", err)
		return
	}

	for key, raw := range data {
		switch strings.ToLower(key) {
		case "tags", "tag":
			for _, tag := range stringList(raw) {
				doc.ETags = append(doc.ETags, normalizeTag(tag))
			}
		case "aliases", "alias":
			doc.Aliases = append(doc.Aliases, stringList(raw)...)
		default:
			v, err := value.FromAny(raw)
			if err != nil {
				logger.Warn("skipping unrecognized frontmatter value", "path", doc.Path, "key", key, "error", err)
				continue
			}
			setField(doc.Fields, key, upgradeDates(v))
		}
	}
}

// upgradeDates converts string values that fully parse as dates into
// Date values, recursively through arrays.
func upgradeDates(v value.Value) value.Value {
	switch t := v.(type) {
	case value.String:
		if d, ok := value.ParseDate(string(t)); ok {
			return d
		}
	case value.Array:
		out := make(value.Array, len(t))
		for i, el := range t {
			out[i] = upgradeDates(el)
		}
		return out
	}
	return v
}

func stringList(raw any) []string {
	switch t := raw.(type) {
	case string:
		parts := strings.Split(t, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	case []any:
		var out []string
		for _, el := range t {
			if s, ok := el.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	default:
		return nil
	}
}

func normalizeTag(tag string) string {
	if !strings.HasPrefix(tag, "#") {
		return "#" + tag
	}
	return tag
}

// expandTags registers every prefix of a nested tag: #a/b/c also
// matches queries for #a and #a/b.
func expandTags(etags []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, tag := range etags {
		body := strings.TrimPrefix(tag, "#")
		parts := strings.Split(body, "/")
		for i := range parts {
			expanded := "#" + strings.Join(parts[:i+1], "/")
			if !seen[expanded] {
				seen[expanded] = true
				out = append(out, expanded)
			}
		}
	}
	return out
}

// parseBody scans the markdown body for inline fields, tags, links and
// the task tree.
func parseBody(doc *Document, body []byte) {
	lines := strings.Split(string(body), "\n")
	var taskStack []*taskFrame

	for lineNo, line := range lines {
		for _, m := range tagPattern.FindAllString(line, -1) {
			doc.ETags = appendUnique(doc.ETags, m)
		}
		for _, m := range linkPattern.FindAllStringSubmatch(line, -1) {
			doc.Links = append(doc.Links, linkTarget(m[1]))
		}

		if m := taskPattern.FindStringSubmatch(line); m != nil {
			taskStack = pushTask(doc, taskStack, len(m[1]), m[2] != " ", m[3], lineNo)
			continue
		}

		if m := inlineFieldPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			setField(doc.Fields, m[1], parseFieldValue(m[2]))
		}
	}

	flushTasks(doc, taskStack, 0)
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

// linkTarget strips the display and subsection parts off a raw link
// body.
func linkTarget(raw string) string {
	if pipe := strings.IndexByte(raw, '|'); pipe >= 0 {
		raw = raw[:pipe]
	}
	if hash := strings.IndexByte(raw, '#'); hash >= 0 {
		raw = raw[:hash]
	}
	if caret := strings.IndexByte(raw, '^'); caret >= 0 {
		raw = raw[:caret]
	}
	return strings.TrimSpace(raw)
}

// setField stores a field under its written key and, when different,
// its lowercased form, so WHERE clauses match regardless of casing.
func setField(fields value.Object, key string, v value.Value) {
	key = strings.TrimSpace(key)
	fields[key] = v
	if lower := strings.ToLower(strings.ReplaceAll(key, " ", "-")); lower != key {
		fields[lower] = v
	}
}

// parseFieldValue interprets an inline field's text: booleans, numbers,
// dates, links and comma-separated lists of those; everything else is a
// string.
func parseFieldValue(text string) value.Value {
	text = strings.TrimSpace(text)
	if text == "" {
		return value.NullValue
	}

	switch strings.ToLower(text) {
	case "true":
		return value.Boolean(true)
	case "false":
		return value.Boolean(false)
	case "null":
		return value.NullValue
	}

	if n, err := strconv.ParseFloat(text, 64); err == nil {
		return value.Number(n)
	}
	if d, ok := value.ParseDate(text); ok {
		return d
	}
	if m := linkPattern.FindStringSubmatch(text); m != nil && m[0] == text {
		return value.FileLink(linkTarget(m[1]))
	}

	// Comma-separated lists of simple values become arrays; a single
	// scalar stays scalar.
	if strings.Contains(text, ",") {
		parts := strings.Split(text, ",")
		out := make(value.Array, 0, len(parts))
		allSimple := true
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" || strings.Contains(part, " ") {
				allSimple = false
				break
			}
			out = append(out, parseScalar(part))
		}
		if allSimple && len(out) > 1 {
			return out
		}
	}

	return value.String(text)
}

func parseScalar(text string) value.Value {
	if n, err := strconv.ParseFloat(text, 64); err == nil {
		return value.Number(n)
	}
	if d, ok := value.ParseDate(text); ok {
		return d
	}
	return value.String(text)
}

// taskFrame tracks one open task while scanning for nested subtasks.
type taskFrame struct {
	task   *value.Task
	indent int
}

// pushTask adds a parsed task line to the tree, closing deeper frames
// first. Returns the updated open-frame stack.
func pushTask(doc *Document, stack []*taskFrame, indent int, completed bool, text string, line int) []*taskFrame {
	task := &value.Task{
		Text:      strings.TrimSpace(annotationPattern.ReplaceAllString(text, "")),
		Path:      doc.Path,
		Line:      line,
		Completed: completed,
	}
	parseAnnotations(task, text)

	stack = closeFrames(doc, stack, indent)
	if len(stack) > 0 {
		parent := stack[len(stack)-1]
		parent.task.Children = append(parent.task.Children, task)
	}
	return append(stack, &taskFrame{task: task, indent: indent})
}

// closeFrames pops every frame at or below the given indent, computing
// the fully-completed flag bottom-up as frames close.
func closeFrames(doc *Document, stack []*taskFrame, indent int) []*taskFrame {
	for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		finalizeTask(frame.task)
		if len(stack) == 0 {
			doc.Tasks = append(doc.Tasks, frame.task)
		}
	}
	return stack
}

// flushTasks closes all remaining open frames at end of document.
func flushTasks(doc *Document, stack []*taskFrame, _ int) {
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		finalizeTask(frame.task)
		if len(stack) == 0 {
			doc.Tasks = append(doc.Tasks, frame.task)
		}
	}
}

// finalizeTask computes the fully-completed aggregate over a task's
// now-complete subtree.
func finalizeTask(t *value.Task) {
	t.FullyCompleted = t.Completed
	for _, child := range t.Children {
		if !child.FullyCompleted {
			t.FullyCompleted = false
		}
	}
}

// parseAnnotations extracts [key:: value] markers from a task line.
// The created/due/completion keys become typed date fields; everything
// else lands in the annotation map.
func parseAnnotations(task *value.Task, text string) {
	for _, m := range annotationPattern.FindAllStringSubmatch(text, -1) {
		key := strings.ToLower(m[1])
		raw := strings.TrimSpace(m[2])

		if d, ok := value.ParseDate(raw); ok {
			switch key {
			case "created":
				task.Created = &d
				continue
			case "due":
				task.Due = &d
				continue
			case "completion", "completed":
				task.Completion = &d
				continue
			}
		}

		if task.Annotations == nil {
			task.Annotations = map[string]value.Value{}
		}
		task.Annotations[key] = parseFieldValue(raw)
	}
}
