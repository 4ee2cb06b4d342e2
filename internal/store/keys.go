package store

// Logical record keys
const (
	// KeyTrash holds the trash staging collection
	KeyTrash = "picky_trash"

	// KeyFavorites holds the favorites collection
	KeyFavorites = "picky_favorites"

	// KeySwipeHistory holds the action ledger
	KeySwipeHistory = "picky_swipe_history"

	// KeyCurrentSession holds the active triage session
	KeyCurrentSession = "picky_current_session"

	// KeyAlbumProgress holds browsing positions per album
	KeyAlbumProgress = "picky_album_progress"

	// KeyStatistics holds the cumulative counters
	KeyStatistics = "picky_statistics"
)

// AllKeys returns every logical key owned by the application.
func AllKeys() []string {
	return []string{KeyTrash, KeyFavorites, KeySwipeHistory, KeyCurrentSession, KeyAlbumProgress, KeyStatistics}
}
