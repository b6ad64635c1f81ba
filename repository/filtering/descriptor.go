package filtering

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/repository"
)

// ContentDescriptor describes the content of a repository with include and exclude patterns
// of the form group[:name[:version]]. Every part is a glob pattern, omitted parts match
// anything. Exclusions take precedence over inclusions. Without inclusions everything
// not excluded is allowed.
type ContentDescriptor struct {
	includes []pattern
	excludes []pattern
}

var _ repository.ContentFilter = (*ContentDescriptor)(nil)

type pattern struct {
	raw                  string
	group, name, version glob.Glob
}

func compilePattern(raw string) (pattern, error) {
	parts := strings.Split(raw, ":")
	if len(parts) > 3 || parts[0] == "" {
		return pattern{}, fmt.Errorf("invalid content pattern %q, expected group[:name[:version]]", raw)
	}
	p := pattern{raw: raw}
	targets := []*glob.Glob{&p.group, &p.name, &p.version}
	for i, part := range parts {
		g, err := glob.Compile(part)
		if err != nil {
			return pattern{}, fmt.Errorf("invalid content pattern %q: %w", raw, err)
		}
		*targets[i] = g
	}
	return p, nil
}

func (p pattern) matchesModule(m coordinate.Module) bool {
	return p.group.Match(m.Group) && (p.name == nil || p.name.Match(m.Name))
}

func (p pattern) matchesComponent(id coordinate.Component) bool {
	return p.matchesModule(id.Module) && (p.version == nil || p.version.Match(id.Version))
}

// NewContentDescriptor compiles the given include and exclude patterns.
func NewContentDescriptor(includes, excludes []string) (*ContentDescriptor, error) {
	d := &ContentDescriptor{}
	for _, raw := range includes {
		p, err := compilePattern(raw)
		if err != nil {
			return nil, err
		}
		d.includes = append(d.includes, p)
	}
	for _, raw := range excludes {
		p, err := compilePattern(raw)
		if err != nil {
			return nil, err
		}
		d.excludes = append(d.excludes, p)
	}
	return d, nil
}

// AllowsModule reports whether any version of the module may be served. Version specific
// exclusions do not block the module as a whole.
func (d *ContentDescriptor) AllowsModule(m coordinate.Module) bool {
	for _, p := range d.excludes {
		if p.version == nil && p.matchesModule(m) {
			return false
		}
	}
	if len(d.includes) == 0 {
		return true
	}
	for _, p := range d.includes {
		if p.matchesModule(m) {
			return true
		}
	}
	return false
}

// AllowsComponent reports whether the component version may be served.
func (d *ContentDescriptor) AllowsComponent(id coordinate.Component) bool {
	for _, p := range d.excludes {
		if p.matchesComponent(id) {
			return false
		}
	}
	if len(d.includes) == 0 {
		return true
	}
	for _, p := range d.includes {
		if p.matchesComponent(id) {
			return true
		}
	}
	return false
}

func (d *ContentDescriptor) String() string {
	raws := func(ps []pattern) []string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.raw)
		}
		return out
	}
	return fmt.Sprintf("include %v exclude %v", raws(d.includes), raws(d.excludes))
}
