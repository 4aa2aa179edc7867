package value

import "strings"

// LinkSub identifies which part of a document a link points at.
type LinkSub uint8

const (
	// LinkFile targets the document itself.
	LinkFile LinkSub = iota
	// LinkHeader targets a header within the document.
	LinkHeader
	// LinkBlock targets a block by its block identifier.
	LinkBlock
)

func (s LinkSub) String() string {
	switch s {
	case LinkHeader:
		return "header"
	case LinkBlock:
		return "block"
	default:
		return "file"
	}
}

// Link identifies a target document, optionally narrowed to a header or
// block, plus presentation attributes. Links are immutable value
// objects; the With* methods return modified copies.
//
// Equality and ordering are defined purely by (path, sub-kind, sub-id).
// Display text and the embed flag never participate.
type Link struct {
	Path    string
	Sub     LinkSub
	SubID   string // header text or block id; empty for LinkFile
	Display string
	Embed   bool
}

func (l Link) Kind() Kind   { return KindLink }
func (l Link) Truthy() bool { return true }

// FileLink creates a link to a document.
func FileLink(path string) Link { return Link{Path: path} }

// HeaderLink creates a link to a header inside a document.
func HeaderLink(path, header string) Link {
	return Link{Path: path, Sub: LinkHeader, SubID: header}
}

// BlockLink creates a link to a block inside a document.
func BlockLink(path, block string) Link {
	return Link{Path: path, Sub: LinkBlock, SubID: block}
}

// WithDisplay returns a copy of the link with the given display text.
func (l Link) WithDisplay(display string) Link {
	l.Display = display
	return l
}

// WithEmbed returns a copy of the link with the embed flag set.
func (l Link) WithEmbed(embed bool) Link {
	l.Embed = embed
	return l
}

// ToFile strips any header or block subsection, yielding a plain link
// to the containing document.
func (l Link) ToFile() Link {
	l.Sub = LinkFile
	l.SubID = ""
	return l
}

// Equal reports target equality. normalize, when non-nil, canonicalises
// paths before comparison (e.g. resolving short names against a vault).
func (l Link) Equal(other Link, normalize func(string) string) bool {
	return l.compare(other, normalize) == 0
}

func (l Link) compare(other Link, normalize func(string) string) int {
	lp, op := l.Path, other.Path
	if normalize != nil {
		lp, op = normalize(lp), normalize(op)
	}
	if c := strings.Compare(lp, op); c != 0 {
		return c
	}
	if l.Sub != other.Sub {
		if l.Sub < other.Sub {
			return -1
		}
		return 1
	}
	return strings.Compare(l.SubID, other.SubID)
}

// Markdown renders the link in wiki-link syntax, including subsection,
// display text and embed prefix.
func (l Link) Markdown() string {
	var sb strings.Builder
	if l.Embed {
		sb.WriteByte('!')
	}
	sb.WriteString("[[")
	sb.WriteString(l.Path)
	switch l.Sub {
	case LinkHeader:
		sb.WriteByte('#')
		sb.WriteString(l.SubID)
	case LinkBlock:
		sb.WriteByte('^')
		sb.WriteString(l.SubID)
	}
	if l.Display != "" {
		sb.WriteByte('|')
		sb.WriteString(l.Display)
	}
	sb.WriteString("]]")
	return sb.String()
}
