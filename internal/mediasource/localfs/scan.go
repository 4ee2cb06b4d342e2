package localfs

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mmcdole/picky/internal/domain"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// placeholderSuffix marks cloud-synced files that are not downloaded yet.
// The placeholder for IMG_1.jpg is .IMG_1.jpg.icloud.
const placeholderSuffix = ".icloud"

var photoExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".heic": true,
	".heif": true, ".webp": true, ".tif": true, ".tiff": true, ".bmp": true, ".dng": true,
}

var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".m4v": true, ".avi": true, ".mkv": true,
	".3gp": true, ".webm": true,
}

// entry is one scanned media file
type entry struct {
	item domain.MediaItem
	dir  string // Absolute directory holding the file
	root string // Library root the file was found under
}

// kindFromExt classifies by file extension
func kindFromExt(name string) (domain.MediaKind, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case photoExts[ext]:
		return domain.MediaKindPhoto, true
	case videoExts[ext]:
		return domain.MediaKindVideo, true
	default:
		return 0, false
	}
}

// detectKind sniffs the file content, falling back to the extension when the
// content is not recognized as an image or a video.
func detectKind(path string) (domain.MediaKind, bool) {
	if mt, err := mimetype.DetectFile(path); err == nil {
		for m := mt; m != nil; m = m.Parent() {
			switch {
			case strings.HasPrefix(m.String(), "image/"):
				return domain.MediaKindPhoto, true
			case strings.HasPrefix(m.String(), "video/"):
				return domain.MediaKindVideo, true
			}
		}
	}
	return kindFromExt(path)
}

// placeholderName returns the real filename behind a cloud placeholder
func placeholderName(name string) (string, bool) {
	if !strings.HasPrefix(name, ".") || !strings.HasSuffix(name, placeholderSuffix) {
		return "", false
	}
	original := strings.TrimSuffix(strings.TrimPrefix(name, "."), placeholderSuffix)
	if original == "" {
		return "", false
	}
	return original, true
}

// scanRoot walks root and returns every media file below it. Hidden
// directories are skipped; unreadable entries are ignored.
func scanRoot(root string) ([]entry, error) {
	var out []entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if e, ok := scanFile(root, path, info); ok {
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

func scanFile(root, path string, info fs.FileInfo) (entry, bool) {
	name := info.Name()
	dir := filepath.Dir(path)

	if original, ok := placeholderName(name); ok {
		kind, ok := kindFromExt(original)
		if !ok {
			return entry{}, false
		}
		return entry{
			item: domain.MediaItem{
				ID:         path,
				Filename:   original,
				URI:        fileURI(filepath.Join(dir, original)),
				Kind:       kind,
				CreatedAt:  info.ModTime(),
				ModifiedAt: info.ModTime(),
				RemoteOnly: true,
				AlbumID:    dir,
			},
			dir:  dir,
			root: root,
		}, true
	}
	if strings.HasPrefix(name, ".") {
		return entry{}, false
	}

	kind, ok := detectKind(path)
	if !ok {
		return entry{}, false
	}
	item := domain.MediaItem{
		ID:         path,
		Filename:   name,
		URI:        fileURI(path),
		Kind:       kind,
		CreatedAt:  info.ModTime(),
		ModifiedAt: info.ModTime(),
		FileSize:   info.Size(),
		AlbumID:    dir,
	}
	if kind == domain.MediaKindPhoto {
		readImageMetadata(path, &item)
	}
	return entry{item: item, dir: dir, root: root}, true
}

// readImageMetadata fills capture time and dimensions from EXIF, falling back
// to the image header for dimensions. Missing metadata is not an error.
func readImageMetadata(path string, item *domain.MediaItem) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	if x, err := exif.Decode(f); err == nil {
		if tm, err := x.DateTime(); err == nil && !tm.IsZero() {
			item.CreatedAt = tm
		}
		item.Width = exifInt(x, exif.PixelXDimension, exif.ImageWidth)
		item.Height = exifInt(x, exif.PixelYDimension, exif.ImageLength)
	}
	if item.Width > 0 && item.Height > 0 {
		return
	}

	if _, err := f.Seek(0, 0); err != nil {
		return
	}
	if cfg, _, err := image.DecodeConfig(f); err == nil {
		item.Width, item.Height = cfg.Width, cfg.Height
	}
}

func exifInt(x *exif.Exif, fields ...exif.FieldName) int {
	for _, field := range fields {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		if v, err := tag.Int(0); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

func fileURI(path string) string {
	return "file://" + filepath.ToSlash(path)
}

func isScreenshot(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "screenshot") || strings.Contains(lower, "schermata")
}

// timestamp returns the field used to order entries
func timestamp(e entry, by domain.SortField) time.Time {
	if by == domain.SortByModified {
		return e.item.ModifiedAt
	}
	return e.item.CreatedAt
}
