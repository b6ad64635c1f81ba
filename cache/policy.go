package cache

import (
	"time"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
)

// Forever is a TTL that never expires.
const Forever time.Duration = -1

// Expiry is the verdict of a Policy for a cache entry.
type Expiry struct {
	// MustCheck means the entry is stale and the remote repository has to be asked.
	MustCheck bool
	// KeepFor is the remaining time the entry may still be used, Forever if unbounded.
	KeepFor time.Duration
}

// Policy decides whether cached entries may still be used. It receives the age of the
// entry and, for artifacts, whether the entry belongs to a changing component and whether
// the descriptor it was cached for still matches the current one.
type Policy interface {
	VersionListExpiry(module coordinate.Module, versions []string, age time.Duration) Expiry
	ModuleExpiry(id coordinate.Component, age time.Duration) Expiry
	ChangingModuleExpiry(id coordinate.Component, age time.Duration) Expiry
	MissingModuleExpiry(id coordinate.Component, age time.Duration) Expiry
	ArtifactExpiry(id coordinate.Artifact, file string, age time.Duration, changing, hashMatch bool) Expiry
	ModuleArtifactsExpiry(id coordinate.Component, artifacts []metadata.ComponentArtifact, age time.Duration, changing, hashMatch bool) Expiry
}

// DefaultPolicy is a TTL based Policy.
type DefaultPolicy struct {
	// DynamicVersionsTTL bounds the age of version listings.
	DynamicVersionsTTL time.Duration
	// ChangingModulesTTL bounds the age of changing components and their artifacts.
	ChangingModulesTTL time.Duration
	// MissingModulesTTL bounds the age of negative entries.
	MissingModulesTTL time.Duration
	// ModulesTTL bounds the age of regular components and their artifacts.
	ModulesTTL time.Duration
	// Offline accepts every cache entry regardless of its age.
	Offline bool
	// Refresh only accepts entries verified within the current session.
	Refresh bool
}

var _ Policy = (*DefaultPolicy)(nil)

const day = 24 * time.Hour

// NewDefaultPolicy creates a policy checking dynamic versions, changing components and
// missing components once a day, and keeping everything else forever.
func NewDefaultPolicy() *DefaultPolicy {
	return &DefaultPolicy{
		DynamicVersionsTTL: day,
		ChangingModulesTTL: day,
		MissingModulesTTL:  day,
		ModulesTTL:         Forever,
	}
}

func (p *DefaultPolicy) expiry(age, ttl time.Duration) Expiry {
	switch {
	case p.Offline:
		return Expiry{KeepFor: Forever}
	case p.Refresh:
		ttl = 0
	}
	if ttl == Forever {
		return Expiry{KeepFor: Forever}
	}
	if age > ttl {
		return Expiry{MustCheck: true}
	}
	return Expiry{KeepFor: ttl - age}
}

func (p *DefaultPolicy) VersionListExpiry(_ coordinate.Module, _ []string, age time.Duration) Expiry {
	return p.expiry(age, p.DynamicVersionsTTL)
}

func (p *DefaultPolicy) ModuleExpiry(_ coordinate.Component, age time.Duration) Expiry {
	return p.expiry(age, p.ModulesTTL)
}

func (p *DefaultPolicy) ChangingModuleExpiry(_ coordinate.Component, age time.Duration) Expiry {
	return p.expiry(age, p.ChangingModulesTTL)
}

func (p *DefaultPolicy) MissingModuleExpiry(_ coordinate.Component, age time.Duration) Expiry {
	return p.expiry(age, p.MissingModulesTTL)
}

func (p *DefaultPolicy) ArtifactExpiry(_ coordinate.Artifact, file string, age time.Duration, changing, hashMatch bool) Expiry {
	if !hashMatch && !p.Offline {
		return Expiry{MustCheck: true}
	}
	switch {
	case file == "":
		return p.expiry(age, p.MissingModulesTTL)
	case changing:
		return p.expiry(age, p.ChangingModulesTTL)
	default:
		return p.expiry(age, p.ModulesTTL)
	}
}

func (p *DefaultPolicy) ModuleArtifactsExpiry(_ coordinate.Component, _ []metadata.ComponentArtifact, age time.Duration, changing, hashMatch bool) Expiry {
	if !hashMatch && !p.Offline {
		return Expiry{MustCheck: true}
	}
	if changing {
		return p.expiry(age, p.ChangingModulesTTL)
	}
	return p.expiry(age, p.ModulesTTL)
}
