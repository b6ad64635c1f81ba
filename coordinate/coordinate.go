// Package coordinate contains the value types identifying modules, component versions
// and artifacts during resolution.
package coordinate

import (
	"fmt"
	"strings"
)

// Module identifies a module independent of its version.
type Module struct {
	Group string `json:"group"`
	Name  string `json:"name"`
}

// NewModule creates a module identifier.
func NewModule(group, name string) Module {
	return Module{Group: group, Name: name}
}

func (m Module) String() string {
	return m.Group + ":" + m.Name
}

// ParseModule parses a "group:name" notation.
func ParseModule(s string) (Module, error) {
	group, name, ok := strings.Cut(s, ":")
	if !ok || group == "" || name == "" || strings.Contains(name, ":") {
		return Module{}, fmt.Errorf("invalid module notation %q, expected group:name", s)
	}
	return Module{Group: group, Name: name}, nil
}

// Component identifies a concrete version of a module.
type Component struct {
	Module  Module `json:"module"`
	Version string `json:"version"`
}

// NewComponent creates a component identifier.
func NewComponent(group, name, version string) Component {
	return Component{Module: NewModule(group, name), Version: version}
}

func (c Component) String() string {
	return c.Module.String() + ":" + c.Version
}

// ParseComponent parses a "group:name:version" notation.
func ParseComponent(s string) (Component, error) {
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return Component{}, fmt.Errorf("invalid component notation %q, expected group:name:version", s)
	}
	module, err := ParseModule(s[:idx])
	if err != nil {
		return Component{}, fmt.Errorf("invalid component notation %q: %w", s, err)
	}
	if s[idx+1:] == "" {
		return Component{}, fmt.Errorf("invalid component notation %q: empty version", s)
	}
	return Component{Module: module, Version: s[idx+1:]}, nil
}

// Selector is a requested dependency: a module together with a version constraint
// that still needs to be resolved to a concrete component.
type Selector struct {
	Module  Module `json:"module"`
	Version string `json:"version"`
}

func (s Selector) String() string {
	if s.Version == "" {
		return s.Module.String()
	}
	return s.Module.String() + ":" + s.Version
}

// ParseSelector parses "group:name:constraint". The constraint may contain
// characters such as ',' or '+' but no ':'.
func ParseSelector(s string) (Selector, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Selector{}, fmt.Errorf("invalid selector notation %q, expected group:name:version", s)
	}
	return Selector{Module: NewModule(parts[0], parts[1]), Version: parts[2]}, nil
}

// Artifact identifies a single file belonging to a component.
type Artifact struct {
	Component  Component `json:"component"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Extension  string    `json:"extension,omitempty"`
	Classifier string    `json:"classifier,omitempty"`
}

// FileName is the conventional file name of the artifact.
func (a Artifact) FileName() string {
	var sb strings.Builder
	sb.WriteString(a.Name)
	sb.WriteString("-")
	sb.WriteString(a.Component.Version)
	if a.Classifier != "" {
		sb.WriteString("-")
		sb.WriteString(a.Classifier)
	}
	ext := a.Extension
	if ext == "" {
		ext = a.Type
	}
	if ext != "" {
		sb.WriteString(".")
		sb.WriteString(ext)
	}
	return sb.String()
}

func (a Artifact) String() string {
	return fmt.Sprintf("%s (%s)", a.FileName(), a.Component)
}
