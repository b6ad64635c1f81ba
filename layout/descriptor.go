package layout

import (
	"fmt"

	"sigs.k8s.io/yaml"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
)

const (
	// VersionsFileName lists the versions of a module.
	VersionsFileName = "versions.yaml"
	// DescriptorFileName describes a component version.
	DescriptorFileName = "descriptor.yaml"
	// DefaultArtifactType is the type of the artifact assumed for components
	// that do not declare artifacts.
	DefaultArtifactType = "jar"
)

// VersionList is the content of a versions file.
type VersionList struct {
	Versions []string `json:"versions"`
}

// Descriptor is the content of a descriptor file.
type Descriptor struct {
	Status       string                  `json:"status,omitempty"`
	StatusScheme []string                `json:"statusScheme,omitempty"`
	Changing     bool                    `json:"changing,omitempty"`
	Dependencies []DependencyDescriptor  `json:"dependencies,omitempty"`
	Attributes   map[string]string       `json:"attributes,omitempty"`
	Artifacts    []metadata.Artifact     `json:"artifacts,omitempty"`
	Ivy          *metadata.IvyDescriptor `json:"ivy,omitempty"`
}

// DependencyDescriptor declares a dependency in group:name:version notation.
type DependencyDescriptor struct {
	Component                string `json:"component"`
	DynamicConstraintVersion string `json:"dynamicConstraintVersion,omitempty"`
}

// DecodeVersionList decodes a versions file.
func DecodeVersionList(data []byte) ([]string, error) {
	var list VersionList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("unable to decode version list: %w", err)
	}
	if list.Versions == nil {
		return []string{}, nil
	}
	return list.Versions, nil
}

// DecodeDescriptor decodes the descriptor of the component id.
func DecodeDescriptor(id coordinate.Component, data []byte) (*metadata.Metadata, error) {
	var desc Descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("unable to decode descriptor of %s: %w", id, err)
	}

	m := &metadata.Metadata{
		ID:           id,
		Status:       desc.Status,
		StatusScheme: desc.StatusScheme,
		Changing:     desc.Changing,
		Attributes:   desc.Attributes,
		Artifacts:    desc.Artifacts,
		Ivy:          desc.Ivy,
	}
	for i, dep := range desc.Dependencies {
		selector, err := coordinate.ParseSelector(dep.Component)
		if err != nil {
			return nil, fmt.Errorf("invalid dependency %d of %s: %w", i, id, err)
		}
		m.Dependencies = append(m.Dependencies, metadata.Dependency{
			Selector:                 selector,
			DynamicConstraintVersion: dep.DynamicConstraintVersion,
		})
	}
	if len(m.Artifacts) == 0 {
		m.Artifacts = []metadata.Artifact{defaultArtifact(id)}
	}
	return m, nil
}

func defaultArtifact(id coordinate.Component) metadata.Artifact {
	return metadata.Artifact{Name: id.Module.Name, Type: DefaultArtifactType}
}
