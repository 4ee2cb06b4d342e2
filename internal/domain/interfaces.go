package domain

import "context"

// MediaSource is the platform media library boundary.
// Implemented by mediasource/localfs.
type MediaSource interface {
	// RequestPermission asks for access and returns the resulting status
	RequestPermission(ctx context.Context) (PermissionStatus, error)

	// PermissionStatus reports the current access state without prompting
	PermissionStatus(ctx context.Context) (PermissionStatus, error)

	// ListAlbums enumerates albums, optionally including system-curated ones
	ListAlbums(ctx context.Context, includeSmart bool) ([]Album, error)

	// GetAssets returns one page of items for the query
	GetAssets(ctx context.Context, q AssetQuery) (AssetPage, error)

	// ResolveLocalURI returns a locally readable locator, or "" for items
	// that are not yet downloaded
	ResolveLocalURI(ctx context.Context, itemID string) (string, error)

	// DeleteAssets permanently removes items; false when any removal failed
	DeleteAssets(ctx context.Context, ids []string) (bool, error)
}
