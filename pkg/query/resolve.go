package query

import (
	"github.com/noteql/noteql/pkg/types"
)

// pathSet is a set of document paths.
type pathSet map[string]struct{}

func setOf(paths []string) pathSet {
	s := make(pathSet, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

// ResolveSource reduces a source expression to the set of document
// paths it selects. origin is the path of the document the query runs
// from; a link source with an empty target resolves against it.
// Unresolvable link targets are a hard error, not an empty set.
func ResolveSource(src *types.SourceNode, idx Index, origin string) (map[string]struct{}, error) {
	switch src.Type {
	case types.SourceEmpty:
		return pathSet{}, nil

	case types.SourceTag:
		return setOf(idx.PathsWithTag(src.Name)), nil

	case types.SourceFolder:
		return setOf(idx.PathsUnderPrefix(src.Name)), nil

	case types.SourceLink:
		return resolveLinkSource(src, idx, origin)

	case types.SourceBinaryOp:
		left, err := ResolveSource(src.LHS, idx, origin)
		if err != nil {
			return nil, err
		}
		right, err := ResolveSource(src.RHS, idx, origin)
		if err != nil {
			return nil, err
		}
		switch src.Op {
		case "&":
			out := pathSet{}
			for p := range left {
				if _, ok := right[p]; ok {
					out[p] = struct{}{}
				}
			}
			return out, nil
		case "|":
			out := make(pathSet, len(left)+len(right))
			for p := range left {
				out[p] = struct{}{}
			}
			for p := range right {
				out[p] = struct{}{}
			}
			return out, nil
		default:
			return nil, types.NewError(types.ErrBadSourceOp, "Unknown source operator: "+src.Op, src.Position)
		}

	case types.SourceNegate:
		inner, err := ResolveSource(src.Child, idx, origin)
		if err != nil {
			return nil, err
		}
		// Complement against the indexed universe; a full scan.
		out := pathSet{}
		for _, p := range idx.Paths() {
			if _, ok := inner[p]; !ok {
				out[p] = struct{}{}
			}
		}
		return out, nil

	default:
		return nil, types.NewError(types.ErrBadSourceOp, "Unknown source type: "+string(src.Type), src.Position)
	}
}

func resolveLinkSource(src *types.SourceNode, idx Index, origin string) (pathSet, error) {
	target := src.Name
	if target == "" {
		target = origin
	}
	target = idx.Normalize(target)
	if !idx.Exists(target) {
		return nil, types.NewError(types.ErrUnresolvedLink, "Unresolvable link target: "+src.Name, src.Position)
	}

	switch src.Direction {
	case types.LinkOutgoing:
		return setOf(idx.OutgoingLinks(target)), nil

	case types.LinkIncoming:
		// Full scan over the snapshot; incoming links are not indexed.
		out := pathSet{}
		for _, p := range idx.Paths() {
			for _, link := range idx.OutgoingLinks(p) {
				if idx.Normalize(link) == target {
					out[p] = struct{}{}
					break
				}
			}
		}
		return out, nil

	default:
		return nil, types.NewError(types.ErrBadSourceOp,
			"Unknown link direction: "+string(src.Direction), src.Position)
	}
}
