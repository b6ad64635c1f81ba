package repository

import "ocm.software/open-component-model/resolution/coordinate"

// ContentFilter decides for which modules a repository is consulted.
type ContentFilter interface {
	AllowsModule(module coordinate.Module) bool
	AllowsComponent(id coordinate.Component) bool
}

// Filtered is implemented by repositories restricted by a content filter.
type Filtered interface {
	ContentFilter() ContentFilter
}

// ContentFilterOf returns the content filter of repo or of any repository it wraps.
func ContentFilterOf(repo Repository) (ContentFilter, bool) {
	f, ok := Find[Filtered](repo)
	if !ok {
		return nil, false
	}
	return f.ContentFilter(), true
}
