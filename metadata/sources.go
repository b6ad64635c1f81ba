package metadata

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/opencontainers/go-digest"
)

// Source records provenance information attached to resolved metadata.
type Source interface {
	SourceKind() string
}

// RepositorySource records the repository that produced the metadata.
// It is used to route artifact requests back to the same repository.
type RepositorySource struct {
	RepositoryID   string
	RepositoryName string
}

func (RepositorySource) SourceKind() string { return "repository" }

func (s RepositorySource) String() string {
	return fmt.Sprintf("repository %s (%s)", s.RepositoryName, s.RepositoryID)
}

// DescriptorHashSource records the hash of the descriptor the metadata was built from.
// Cached artifacts of changing components are only valid as long as the hash matches.
type DescriptorHashSource struct {
	Hash     digest.Digest
	Changing bool
}

func (DescriptorHashSource) SourceKind() string { return "descriptor-hash" }

// Sources is an ordered, immutable collection of sources.
type Sources struct {
	items []Source
}

// NewSources creates a collection from the given sources.
func NewSources(sources ...Source) Sources {
	var s Sources
	for _, src := range sources {
		s = s.With(src)
	}
	return s
}

// With returns a new collection containing source, replacing a source of the same type.
func (s Sources) With(source Source) Sources {
	items := make([]Source, 0, len(s.items)+1)
	replaced := false
	for _, existing := range s.items {
		if reflect.TypeOf(existing) == reflect.TypeOf(source) {
			items = append(items, source)
			replaced = true
			continue
		}
		items = append(items, existing)
	}
	if !replaced {
		items = append(items, source)
	}
	return Sources{items: items}
}

// All returns the sources in order.
func (s Sources) All() []Source {
	return slices.Clone(s.items)
}

// Len returns the number of sources.
func (s Sources) Len() int {
	return len(s.items)
}

func (s Sources) clone() Sources {
	return Sources{items: slices.Clone(s.items)}
}

// Find returns the first source of type T.
func Find[T Source](s Sources) (T, bool) {
	for _, src := range s.items {
		if t, ok := src.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}
