// Package completion provides shell completion suggestions for propshrink.
package completion

import (
	"context"
	"sort"
	"strings"

	"github.com/nomagicln/propshrink/pkg/codegen"
	"github.com/nomagicln/propshrink/pkg/gens"
	"github.com/nomagicln/propshrink/pkg/history"
)

// RecordLister lists recorded failures.
type RecordLister interface {
	List(ctx context.Context, limit int) ([]*history.Record, error)
}

// Provider provides completion suggestions for commands and arguments.
type Provider struct {
	records func() (RecordLister, func(), error)
}

// NewProvider creates a new completion provider. open is called lazily and
// returns the history together with a function releasing it.
func NewProvider(open func() (RecordLister, func(), error)) *Provider {
	return &Provider{records: open}
}

// recordLimit bounds how many recent records are offered.
const recordLimit = 50

// CompleteRecordIDs returns ids of recent records starting with prefix,
// each followed by a tab and the record name for shells that show
// descriptions.
func (p *Provider) CompleteRecordIDs(ctx context.Context, prefix string) []string {
	if p.records == nil {
		return nil
	}
	lister, release, err := p.records()
	if err != nil {
		return nil
	}
	defer release()

	records, err := lister.List(ctx, recordLimit)
	if err != nil {
		return nil
	}

	var matches []string
	for _, r := range records {
		if matchesPrefix(r.ID, prefix) {
			matches = append(matches, r.ID+"\t"+r.Name)
		}
	}
	return matches
}

// CompleteGenerators returns generator specs starting with prefix. A
// prefix already inside a slice or map spec completes its element spec.
func (p *Provider) CompleteGenerators(prefix string) []string {
	outer, inner := splitGeneratorPrefix(prefix)

	names := make(map[string]bool)
	for _, n := range gens.Names() {
		name := n[0]
		if strings.Contains(name, "<spec>") {
			continue
		}
		if i := strings.IndexByte(name, '('); i >= 0 {
			name = name[:i+1]
		}
		if matchesPrefix(name, inner) {
			names[outer+name] = true
		}
	}
	if outer == "" {
		for _, container := range []string{"[]", "map["} {
			if matchesPrefix(container, inner) {
				names[container] = true
			}
		}
	}
	return sortedKeys(names)
}

// splitGeneratorPrefix separates the container part of a partially typed
// spec ("[]", "map[int]") from the element still being typed.
func splitGeneratorPrefix(prefix string) (outer, inner string) {
	rest := prefix
	for {
		switch {
		case strings.HasPrefix(rest, "[]"):
			outer += "[]"
			rest = rest[2:]
			continue
		case strings.HasPrefix(rest, "map[") && strings.Contains(rest, "]"):
			end := strings.IndexByte(rest, ']') + 1
			outer += rest[:end]
			rest = rest[end:]
			continue
		}
		return outer, rest
	}
}

// CompleteFormats returns export formats starting with prefix.
func (p *Provider) CompleteFormats(prefix string) []string {
	var matches []string
	for _, f := range codegen.ListFormats() {
		if matchesPrefix(f, prefix) {
			matches = append(matches, f)
		}
	}
	return matches
}

// CompleteValues filters a fixed set of flag values by prefix.
func (p *Provider) CompleteValues(values []string, prefix string) []string {
	var matches []string
	for _, v := range values {
		if matchesPrefix(v, prefix) {
			matches = append(matches, v)
		}
	}
	return matches
}

func matchesPrefix(s, prefix string) bool {
	return prefix == "" || strings.HasPrefix(s, prefix)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
