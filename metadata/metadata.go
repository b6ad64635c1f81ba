// Package metadata contains resolved component metadata together with the module
// sources recording where it came from.
package metadata

import (
	"maps"
	"slices"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/version"
)

// Dependency declared by a component.
type Dependency struct {
	Selector coordinate.Selector `json:"selector"`
	// DynamicConstraintVersion is the originally declared dynamic constraint of an Ivy
	// dependency that was pinned when the descriptor was published.
	DynamicConstraintVersion string `json:"dynamicConstraintVersion,omitempty"`
}

// Artifact declared by a component.
type Artifact struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Extension  string `json:"extension,omitempty"`
	Classifier string `json:"classifier,omitempty"`
	// Digest of the artifact content, if published with the descriptor.
	Digest string `json:"digest,omitempty"`
}

// IvyDescriptor carries the Ivy specific parts of a descriptor.
type IvyDescriptor struct {
	Branch    string            `json:"branch,omitempty"`
	ExtraInfo map[string]string `json:"extraInfo,omitempty"`
}

// Metadata is the resolved metadata of a single component version.
// It is treated as immutable once handed out; derived values are created with the
// With* methods.
type Metadata struct {
	ID           coordinate.Component `json:"id"`
	Status       string               `json:"status,omitempty"`
	StatusScheme []string             `json:"statusScheme,omitempty"`
	// Changing marks a component whose content may change without a version change.
	Changing bool `json:"changing,omitempty"`
	// Missing marks metadata synthesized for a component without a descriptor.
	Missing      bool              `json:"missing,omitempty"`
	Dependencies []Dependency      `json:"dependencies,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	Artifacts    []Artifact        `json:"artifacts,omitempty"`
	Ivy          *IvyDescriptor    `json:"ivy,omitempty"`

	Sources Sources `json:"-"`
}

var _ version.MetadataView = (*Metadata)(nil)

func (m *Metadata) ComponentVersion() string { return m.ID.Version }
func (m *Metadata) ComponentStatus() string  { return m.Status }

func (m *Metadata) ComponentStatusScheme() []string {
	if len(m.StatusScheme) == 0 {
		return version.DefaultStatusScheme
	}
	return m.StatusScheme
}

// Clone creates a deep copy.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	c := *m
	c.StatusScheme = slices.Clone(m.StatusScheme)
	c.Dependencies = slices.Clone(m.Dependencies)
	c.Attributes = maps.Clone(m.Attributes)
	c.Artifacts = slices.Clone(m.Artifacts)
	if m.Ivy != nil {
		ivy := *m.Ivy
		ivy.ExtraInfo = maps.Clone(m.Ivy.ExtraInfo)
		c.Ivy = &ivy
	}
	c.Sources = m.Sources.clone()
	return &c
}

// WithSources returns a copy with the given sources.
func (m *Metadata) WithSources(sources Sources) *Metadata {
	c := m.Clone()
	c.Sources = sources
	return c
}

// WithSource returns a copy with the given source added, replacing a source of the same kind.
func (m *Metadata) WithSource(source Source) *Metadata {
	return m.WithSources(m.Sources.With(source))
}

// WithChanging returns a copy flagged as changing.
func (m *Metadata) WithChanging() *Metadata {
	c := m.Clone()
	c.Changing = true
	return c
}

// ArtifactID builds the identifier of one of the component's artifacts.
func (m *Metadata) ArtifactID(a Artifact) coordinate.Artifact {
	return coordinate.Artifact{
		Component:  m.ID,
		Name:       a.Name,
		Type:       a.Type,
		Extension:  a.Extension,
		Classifier: a.Classifier,
	}
}

// ArtifactsOfType returns the declared artifacts with the given type.
func (m *Metadata) ArtifactsOfType(artifactType string) []Artifact {
	var result []Artifact
	for _, a := range m.Artifacts {
		if a.Type == artifactType {
			result = append(result, a)
		}
	}
	return result
}

// ComponentArtifact is an artifact of a resolved component, as handed to repositories
// to fetch its content.
type ComponentArtifact struct {
	ID coordinate.Artifact `json:"id"`
	// Digest of the expected content, empty if unknown.
	Digest string `json:"digest,omitempty"`
}

// ComponentArtifacts returns the declared artifacts of the given type as component artifacts.
// An empty type returns all artifacts.
func (m *Metadata) ComponentArtifacts(artifactType string) []ComponentArtifact {
	result := make([]ComponentArtifact, 0, len(m.Artifacts))
	for _, a := range m.Artifacts {
		if artifactType != "" && a.Type != artifactType {
			continue
		}
		result = append(result, ComponentArtifact{ID: m.ArtifactID(a), Digest: a.Digest})
	}
	return result
}

// FindArtifact returns the declared artifact matching the given identifier.
func (m *Metadata) FindArtifact(id coordinate.Artifact) (Artifact, bool) {
	for _, a := range m.Artifacts {
		if m.ArtifactID(a) == id {
			return a, true
		}
	}
	return Artifact{}, false
}
