// Package triage commits swipe decisions to the trash, favorites, ledger and
// statistics, and reverses the most recent one on undo.
package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/picky/internal/collection"
	"github.com/mmcdole/picky/internal/domain"
	"github.com/mmcdole/picky/internal/i18n"
	"github.com/mmcdole/picky/internal/ledger"
	"github.com/mmcdole/picky/internal/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Result is the outcome of a user-facing operation
type Result struct {
	Success       bool
	Message       string // Localized
	UndoAvailable bool
	Outcome       domain.Outcome
	Err           error // Set when Success is false
}

// UndoResult reports what an undo reversed
type UndoResult struct {
	Result
	Undone domain.LedgerEntry // Valid when Success
}

// TrashInfo summarizes the trash staging area
type TrashInfo struct {
	Count     int
	SizeBytes int64
	SizeLabel string // e.g. "2,0 MB"
}

// Options configures a Service
type Options struct {
	DeleteFiles bool // EmptyTrash removes the files through the media source
	Language    language.Tag
	Now         func() time.Time
}

// Service dispatches swipe outcomes. Calls are serialized so the ledger's
// most recent entry is always the last completed dispatch.
type Service struct {
	source    domain.MediaSource
	trash     *collection.Trash
	favorites *collection.Favorites
	ledger    *ledger.Ledger
	stats     *stats.Aggregator
	logger    *slog.Logger

	deleteFiles bool
	lang        language.Tag
	printer     *message.Printer
	now         func() time.Time

	mu sync.Mutex
}

// NewService wires the dispatcher to its collaborators
func NewService(
	source domain.MediaSource,
	trash *collection.Trash,
	favorites *collection.Favorites,
	ledger *ledger.Ledger,
	aggregator *stats.Aggregator,
	opts Options,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Language == language.Und {
		opts.Language = i18n.DefaultLanguage
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		source:      source,
		trash:       trash,
		favorites:   favorites,
		ledger:      ledger,
		stats:       aggregator,
		logger:      logger,
		deleteFiles: opts.DeleteFiles,
		lang:        opts.Language,
		printer:     i18n.Printer(opts.Language),
		now:         opts.Now,
	}
}

func (s *Service) fail(key string, err error, args ...any) Result {
	return Result{Message: s.printer.Sprintf(key, args...), Err: err}
}

// Execute commits one decision on item.
//
// Staging into trash or favorites is fatal on failure and nothing else is
// written. The ledger entry and the statistics update are best-effort.
func (s *Service) Execute(ctx context.Context, item domain.MediaItem, outcome domain.Outcome) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	okKey, failKey, known := messagesFor(outcome)
	if !known {
		return s.fail(i18n.MsgUnknownAction, fmt.Errorf("%w: %d", domain.ErrUnknownOutcome, int(outcome)))
	}
	if err := ctx.Err(); err != nil {
		return s.fail(failKey, fmt.Errorf("%w: %w", domain.ErrActionFailed, err))
	}

	record := domain.NewStoredAsset(item, s.now())

	if set := s.collectionFor(outcome); set != nil {
		if _, err := set.Add(record); err != nil {
			s.logger.Error("failed to stage item", "error", err, "id", item.ID, "outcome", outcome)
			return s.fail(failKey, fmt.Errorf("%w: %w", domain.ErrActionFailed, err))
		}
	}

	if _, err := s.ledger.Record(item.ID, outcome); err != nil {
		s.logger.Error("failed to record swipe", "error", err, "id", item.ID, "outcome", outcome)
	}
	if _, err := s.stats.Accumulate(domain.DeltaFor(outcome, item)); err != nil {
		s.logger.Error("failed to update statistics", "error", err, "outcome", outcome)
	}

	s.logger.Debug("swipe committed", "id", item.ID, "outcome", outcome)
	return Result{
		Success:       true,
		Message:       s.printer.Sprintf(okKey),
		UndoAvailable: true,
		Outcome:       outcome,
	}
}

// Undo reverses the most recent active decision. Statistics are not reversed.
// When nothing is eligible the result fails with ErrNothingToUndo and no
// state changes.
func (s *Service) Undo(ctx context.Context) UndoResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return UndoResult{Result: s.fail(i18n.MsgUndoFailed, err)}
	}

	target, ok, err := s.ledger.Peek()
	if err != nil {
		s.logger.Error("failed to read swipe history", "error", err)
		return UndoResult{Result: s.fail(i18n.MsgUndoFailed, err)}
	}
	if !ok {
		return UndoResult{Result: s.fail(i18n.MsgNothingToUndo, domain.ErrNothingToUndo)}
	}

	set := s.collectionFor(target.Outcome)
	var removed *domain.StoredAsset
	if set != nil {
		entry, found, err := set.Get(target.AssetID)
		if err == nil && found {
			_, err = set.Remove(target.AssetID)
			removed = &entry
		}
		if err != nil {
			s.logger.Error("failed to reverse swipe", "error", err, "id", target.AssetID)
			return UndoResult{Result: s.fail(i18n.MsgUndoFailed, err)}
		}
	}

	undone, err := s.ledger.Undo()
	if err != nil {
		s.logger.Error("failed to mark swipe undone", "error", err, "id", target.AssetID)
		if removed != nil {
			if _, rerr := set.Add(*removed); rerr != nil {
				s.logger.Error("failed to restore entry after undo failure", "error", rerr, "id", removed.ID)
			}
		}
		return UndoResult{Result: s.fail(i18n.MsgUndoFailed, err)}
	}

	s.logger.Debug("swipe undone", "id", undone.AssetID, "outcome", undone.Outcome)
	return UndoResult{
		Result: Result{
			Success:       true,
			Message:       s.printer.Sprintf(i18n.MsgUndone),
			UndoAvailable: s.ledger.UndoAvailable(),
			Outcome:       undone.Outcome,
		},
		Undone: undone,
	}
}

// messagesFor returns the success and failure message keys for outcome
func messagesFor(outcome domain.Outcome) (okKey, failKey string, known bool) {
	switch outcome {
	case domain.OutcomeKeep:
		return i18n.MsgKept, i18n.MsgKeepFailed, true
	case domain.OutcomeTrash:
		return i18n.MsgTrashed, i18n.MsgTrashFailed, true
	case domain.OutcomeFavorite:
		return i18n.MsgFavorited, i18n.MsgFavoriteFailed, true
	default:
		return "", "", false
	}
}

func (s *Service) collectionFor(outcome domain.Outcome) *collection.Set {
	switch outcome {
	case domain.OutcomeTrash:
		return s.trash.Set
	case domain.OutcomeFavorite:
		return s.favorites.Set
	default:
		return nil
	}
}

// UndoAvailable reports whether Undo would reverse something
func (s *Service) UndoAvailable() bool {
	return s.ledger.UndoAvailable()
}

// TrashInfo returns the staged count and size. Read failures yield zeros.
func (s *Service) TrashInfo() TrashInfo {
	count, err := s.trash.Count()
	if err != nil {
		s.logger.Error("failed to read trash", "error", err)
		count = 0
	}
	size, err := s.trash.TotalSize()
	if err != nil {
		s.logger.Error("failed to read trash size", "error", err)
		size = 0
	}
	return TrashInfo{Count: count, SizeBytes: size, SizeLabel: stats.FormatMB(size, s.lang)}
}

// StorageSaved returns the space the staged trash would free
func (s *Service) StorageSaved() (int64, string) {
	info := s.TrashInfo()
	return info.SizeBytes, info.SizeLabel
}

func (s *Service) FavoritesCount() int {
	n, err := s.favorites.Count()
	if err != nil {
		s.logger.Error("failed to read favorites", "error", err)
		return 0
	}
	return n
}

// Trash lists the staged items, most recent first
func (s *Service) Trash() ([]domain.StoredAsset, error) {
	return s.trash.List()
}

// Favorites lists the favorited items, most recent first
func (s *Service) Favorites() ([]domain.StoredAsset, error) {
	return s.favorites.List()
}

// Statistics returns the cumulative counters
func (s *Service) Statistics() (domain.Statistics, error) {
	return s.stats.Read()
}

// SessionStats counts today's active decisions
func (s *Service) SessionStats() domain.SessionStats {
	st, err := s.ledger.SessionStats(ledger.StartOfDay(s.now()))
	if err != nil {
		s.logger.Error("failed to compute session stats", "error", err)
		return domain.SessionStats{}
	}
	return st
}

// EmptyTrash irreversibly clears the trash. With DeleteFiles the staged items
// are removed from the media source first; if that fails the trash is kept.
func (s *Service) EmptyTrash(ctx context.Context) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.trash.List()
	if err != nil {
		s.logger.Error("failed to read trash", "error", err)
		return s.fail(i18n.MsgEmptyTrashFailed, err)
	}
	if len(entries) == 0 {
		return Result{Success: true, Message: s.printer.Sprintf(i18n.MsgTrashAlreadyEmpty)}
	}

	if s.deleteFiles {
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		ok, err := s.source.DeleteAssets(ctx, ids)
		if err == nil && !ok {
			err = errors.New("media source reported a partial delete")
		}
		if err != nil {
			s.logger.Error("failed to delete trashed files", "error", err, "count", len(ids))
			return s.fail(i18n.MsgDeleteFilesFailed, fmt.Errorf("%w: %w", domain.ErrActionFailed, err))
		}
	}

	if err := s.trash.Empty(); err != nil {
		s.logger.Error("failed to empty trash", "error", err)
		return s.fail(i18n.MsgEmptyTrashFailed, err)
	}

	s.logger.Info("trash emptied", "count", len(entries), "deleteFiles", s.deleteFiles)
	return Result{Success: true, Message: s.printer.Sprintf(i18n.MsgTrashEmptied)}
}

// RestoreFromTrash takes one item back out of the trash
func (s *Service) RestoreFromTrash(id string) Result {
	return s.unstage(s.trash.Set, id, i18n.MsgRestored, i18n.MsgRestoreFailed)
}

// RemoveFavorite drops one item from favorites
func (s *Service) RemoveFavorite(id string) Result {
	return s.unstage(s.favorites.Set, id, i18n.MsgFavoriteRemoved, i18n.MsgRestoreFailed)
}

func (s *Service) unstage(set *collection.Set, id, okKey, failKey string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, found, err := set.Get(id)
	if err == nil && !found {
		err = fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err == nil {
		_, err = set.Remove(id)
	}
	if err != nil {
		s.logger.Error("failed to remove staged item", "error", err, "id", id)
		return s.fail(failKey, err)
	}
	return Result{Success: true, Message: s.printer.Sprintf(okKey, entry.Filename)}
}
