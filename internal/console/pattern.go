package console

import "strings"

// Visit evaluates a pattern against the descriptor table and delivers
// every match to fn in table order. A pattern with no wildcard matches
// by full path or bare name and visits at most one descriptor; "*"
// visits direct children of the prefix; "**" visits all descendants.
// A leading family alias is expanded first. Unknown names simply yield
// zero visits.
func (r *Registry) Visit(pattern string, fn func(*Descriptor)) {
	pattern = r.expandAlias(pattern)

	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		if d, err := r.Find(pattern); err == nil {
			fn(d)
		}
		return
	}

	prefix := strings.TrimSuffix(pattern[:star], ".")
	recursive := star+1 < len(pattern) && pattern[star+1] == '*'

	for i := range r.params {
		d := &r.params[i]
		if matchPath(d.FullPath, prefix, recursive) {
			fn(d)
		}
	}
}

// matchPath reports whether a full path falls under prefix. An empty
// prefix matches everything. A shallow match requires the remainder
// past the prefix boundary to contain no further separator, so only
// direct children qualify.
func matchPath(path, prefix string, recursive bool) bool {
	if prefix == "" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	rest = strings.TrimPrefix(rest, ".")
	if recursive {
		return true
	}
	return !strings.Contains(rest, ".")
}
