// Package i18n holds the user-facing message catalog.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys
const (
	MsgKept              = "Photo kept"
	MsgTrashed           = "Photo moved to trash"
	MsgFavorited         = "Photo added to favorites"
	MsgKeepFailed        = "Could not keep the photo"
	MsgTrashFailed       = "Could not move the photo to trash"
	MsgFavoriteFailed    = "Could not add the photo to favorites"
	MsgUnknownAction     = "Unknown action"
	MsgUndone            = "Action undone"
	MsgNothingToUndo     = "Nothing to undo"
	MsgUndoFailed        = "Could not undo the action"
	MsgTrashEmptied      = "Trash emptied"
	MsgTrashAlreadyEmpty = "Trash is already empty"
	MsgEmptyTrashFailed  = "Could not empty the trash"
	MsgDeleteFilesFailed = "Could not delete some files"
	MsgRestored          = "%s restored from trash"
	MsgRestoreFailed     = "Could not restore the item"
	MsgFavoriteRemoved   = "%s removed from favorites"
	MsgLoadFailed        = "Error loading media"
	MsgPermissionDenied  = "Access to the media library was denied"
	MsgAlbumSwitchFailed = "Could not load the new album"
	MsgCleanupComplete   = "Cleanup complete! %d processed: %d deleted, %d kept, %d favorites"
	MsgMilestone         = "%d processed!"
	MsgSizeMB            = "%v MB"
	MsgAllMedia          = "All photos"
)

var italian = map[string]string{
	MsgKept:              "Foto mantenuta",
	MsgTrashed:           "Foto spostata nel cestino",
	MsgFavorited:         "Foto aggiunta ai preferiti",
	MsgKeepFailed:        "Errore nel mantenere la foto",
	MsgTrashFailed:       "Errore nello spostare la foto nel cestino",
	MsgFavoriteFailed:    "Errore nell'aggiungere la foto ai preferiti",
	MsgUnknownAction:     "Azione non riconosciuta",
	MsgUndone:            "Azione annullata",
	MsgNothingToUndo:     "Nessuna azione da annullare",
	MsgUndoFailed:        "Errore nell'annullare l'azione",
	MsgTrashEmptied:      "Cestino svuotato",
	MsgTrashAlreadyEmpty: "Il cestino è già vuoto",
	MsgEmptyTrashFailed:  "Errore nello svuotare il cestino",
	MsgDeleteFilesFailed: "Impossibile eliminare alcuni file",
	MsgRestored:          "%s è stato ripristinato dal cestino",
	MsgRestoreFailed:     "Impossibile ripristinare l'elemento",
	MsgFavoriteRemoved:   "%s rimosso dai preferiti",
	MsgLoadFailed:        "Errore nel caricamento dei media",
	MsgPermissionDenied:  "Accesso alla libreria negato",
	MsgAlbumSwitchFailed: "Impossibile caricare il nuovo album",
	MsgCleanupComplete:   "Pulizia completata! %d processati: %d eliminati, %d mantenuti, %d preferiti",
	MsgMilestone:         "%d processati!",
	MsgSizeMB:            "%v MB",
	MsgAllMedia:          "Tutte le foto",
}

func init() {
	for key, msg := range italian {
		if err := message.SetString(language.Italian, key, msg); err != nil {
			panic(err)
		}
	}
}

// DefaultLanguage is used when the configured language is unknown
var DefaultLanguage = language.Italian

// Parse resolves a configured language code ("it", "en", ...)
func Parse(code string) language.Tag {
	tag, err := language.Parse(code)
	if err != nil {
		return DefaultLanguage
	}
	matcher := language.NewMatcher([]language.Tag{language.Italian, language.English})
	_, idx, _ := matcher.Match(tag)
	if idx == 1 {
		return language.English
	}
	return language.Italian
}

// Printer returns a localized printer for lang
func Printer(lang language.Tag) *message.Printer {
	return message.NewPrinter(lang)
}
