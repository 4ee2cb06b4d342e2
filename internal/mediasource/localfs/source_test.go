package localfs

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/picky/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// mp4Bytes is a bare ftyp box, enough for content sniffing
func mp4Bytes() []byte {
	return []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2',
		0x00, 0x00, 0x00, 0x00, 'm', 'p', '4', '2', 'i', 's', 'o', 'm',
	}
}

func writeFile(t *testing.T, path string, data []byte, mod time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

// newLibrary builds:
//
//	root/a.jpg               (oldest)
//	root/Screenshot_1.png
//	root/Trip/b.jpg
//	root/Trip/clip.mp4
//	root/Trip/.c.jpg.icloud  (newest, remote only)
//	root/notes.txt           (ignored)
//	root/.hidden/x.jpg       (ignored)
func newLibrary(t *testing.T) (*Source, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jpg"), jpegBytes(t, 40, 30), base)
	writeFile(t, filepath.Join(root, "Screenshot_1.png"), pngBytes(t, 10, 20), base.Add(1*time.Hour))
	writeFile(t, filepath.Join(root, "Trip", "b.jpg"), jpegBytes(t, 8, 8), base.Add(2*time.Hour))
	writeFile(t, filepath.Join(root, "Trip", "clip.mp4"), mp4Bytes(), base.Add(3*time.Hour))
	writeFile(t, filepath.Join(root, "Trip", ".c.jpg.icloud"), []byte("placeholder"), base.Add(4*time.Hour))
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("hello"), base)
	writeFile(t, filepath.Join(root, ".hidden", "x.jpg"), jpegBytes(t, 4, 4), base)

	src, err := New([]string{root}, nil)
	require.NoError(t, err)
	return src, root
}

func allQuery() domain.AssetQuery {
	return domain.AssetQuery{
		PageSize:      100,
		IncludePhotos: true,
		IncludeVideos: true,
		SortBy:        domain.SortByCreated,
		Descending:    true,
	}
}

func filenames(items []domain.MediaItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Filename
	}
	return out
}

func TestPermission(t *testing.T) {
	ctx := context.Background()

	t.Run("no roots", func(t *testing.T) {
		src, err := New(nil, nil)
		require.NoError(t, err)
		st, err := src.PermissionStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PermissionUndetermined, st)
	})

	t.Run("missing root is created on request", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "Pictures")
		src, err := New([]string{root}, nil)
		require.NoError(t, err)

		st, err := src.PermissionStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PermissionUndetermined, st)

		_, err = src.GetAssets(ctx, allQuery())
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)

		st, err = src.RequestPermission(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PermissionGranted, st)
		assert.DirExists(t, root)
	})

	t.Run("root is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not-a-dir")
		writeFile(t, file, []byte("x"), base)
		src, err := New([]string{file}, nil)
		require.NoError(t, err)

		st, err := src.PermissionStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PermissionDenied, st)
	})

	t.Run("unreadable root", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("permission bits are not enforced for root")
		}
		root := t.TempDir()
		require.NoError(t, os.Chmod(root, 0))
		t.Cleanup(func() { _ = os.Chmod(root, 0755) })

		src, err := New([]string{root}, nil)
		require.NoError(t, err)
		st, err := src.PermissionStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PermissionDenied, st)
	})
}

func TestGetAssets_All(t *testing.T) {
	src, root := newLibrary(t)

	page, err := src.GetAssets(context.Background(), allQuery())
	require.NoError(t, err)

	assert.Equal(t, []string{"c.jpg", "clip.mp4", "b.jpg", "Screenshot_1.png", "a.jpg"}, filenames(page.Items))
	assert.Equal(t, 5, page.TotalCount)
	assert.False(t, page.HasMore)

	byName := make(map[string]domain.MediaItem)
	for _, it := range page.Items {
		byName[it.Filename] = it
	}

	a := byName["a.jpg"]
	assert.Equal(t, filepath.Join(root, "a.jpg"), a.ID)
	assert.Equal(t, domain.MediaKindPhoto, a.Kind)
	assert.Equal(t, "40x30", a.Dimensions())
	assert.Greater(t, a.FileSize, int64(0))
	assert.Equal(t, root, a.AlbumID)
	assert.True(t, a.CreatedAt.Equal(base))

	assert.Equal(t, "10x20", byName["Screenshot_1.png"].Dimensions())
	assert.Equal(t, domain.MediaKindVideo, byName["clip.mp4"].Kind)

	c := byName["c.jpg"]
	assert.True(t, c.RemoteOnly)
	assert.Zero(t, c.FileSize)
}

func TestGetAssets_Paging(t *testing.T) {
	src, _ := newLibrary(t)
	ctx := context.Background()

	q := allQuery()
	q.PageSize = 2
	q.Descending = false

	var got []string
	for {
		page, err := src.GetAssets(ctx, q)
		require.NoError(t, err)
		got = append(got, filenames(page.Items)...)
		if !page.HasMore {
			break
		}
		assert.NotEmpty(t, page.NextCursor)
		q.Cursor = page.NextCursor
	}
	assert.Equal(t, []string{"a.jpg", "Screenshot_1.png", "b.jpg", "clip.mp4", "c.jpg"}, got)

	q.Cursor = "%%%"
	_, err := src.GetAssets(ctx, q)
	assert.Error(t, err)
}

func TestGetAssets_Filters(t *testing.T) {
	src, root := newLibrary(t)
	ctx := context.Background()

	q := allQuery()
	q.IncludeVideos = false
	page, err := src.GetAssets(ctx, q)
	require.NoError(t, err)
	assert.NotContains(t, filenames(page.Items), "clip.mp4")

	q = allQuery()
	q.AlbumID = filepath.Join(root, "Trip")
	page, err = src.GetAssets(ctx, q)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b.jpg", "clip.mp4", "c.jpg"}, filenames(page.Items))

	q.AlbumID = AlbumVideos
	page, err = src.GetAssets(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"clip.mp4"}, filenames(page.Items))

	q.AlbumID = AlbumScreenshots
	page, err = src.GetAssets(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Screenshot_1.png"}, filenames(page.Items))
}

func TestListAlbums(t *testing.T) {
	src, root := newLibrary(t)
	ctx := context.Background()

	albums, err := src.ListAlbums(ctx, false)
	require.NoError(t, err)
	require.Len(t, albums, 2)
	assert.Equal(t, root, albums[0].ID)
	assert.Equal(t, 2, albums[0].AssetCount)
	assert.Equal(t, "Trip", albums[1].Title)
	assert.Equal(t, 3, albums[1].AssetCount)
	assert.False(t, albums[1].Smart)

	albums, err = src.ListAlbums(ctx, true)
	require.NoError(t, err)
	smart := make(map[string]int)
	for _, a := range albums {
		if a.Smart {
			smart[a.Title] = a.AssetCount
		}
	}
	assert.Equal(t, map[string]int{"Recents": 5, "Videos": 1, "Screenshots": 1}, smart)
}

func TestResolveLocalURI(t *testing.T) {
	src, root := newLibrary(t)
	ctx := context.Background()

	uri, err := src.ResolveLocalURI(ctx, filepath.Join(root, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.ToSlash(filepath.Join(root, "a.jpg")), uri)

	uri, err = src.ResolveLocalURI(ctx, filepath.Join(root, "Trip", ".c.jpg.icloud"))
	require.NoError(t, err)
	assert.Empty(t, uri)

	_, err = src.ResolveLocalURI(ctx, filepath.Join(root, "gone.jpg"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = src.ResolveLocalURI(ctx, "/etc/passwd")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteAssets(t *testing.T) {
	src, root := newLibrary(t)
	ctx := context.Background()
	a := filepath.Join(root, "a.jpg")
	b := filepath.Join(root, "Trip", "b.jpg")

	ok, err := src.DeleteAssets(ctx, []string{a, b})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoFileExists(t, a)
	assert.NoFileExists(t, b)

	outside := filepath.Join(t.TempDir(), "keep.jpg")
	writeFile(t, outside, []byte("x"), base)
	ok, err = src.DeleteAssets(ctx, []string{outside})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.FileExists(t, outside)

	page, err := src.GetAssets(ctx, allQuery())
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
}

func TestCursorRoundTrip(t *testing.T) {
	want := pagePos{served: 42, at: base.Add(1500 * time.Nanosecond), id: "/lib/odd|name.jpg"}
	got, err := decodeCursor(encodeCursor(want))
	require.NoError(t, err)
	assert.Equal(t, want.served, got.served)
	assert.True(t, want.at.Equal(got.at))
	assert.Equal(t, want.id, got.id)

	got, err = decodeCursor("")
	require.NoError(t, err)
	assert.Zero(t, got.served)

	_, err = decodeCursor(base64.RawURLEncoding.EncodeToString([]byte("offset:3")))
	assert.Error(t, err)
}

// sixPhotos writes p0.jpg..p5.jpg one minute apart, oldest first
func sixPhotos(t *testing.T) (*Source, string) {
	t.Helper()
	root := t.TempDir()
	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("p%d.jpg", i)
		writeFile(t, filepath.Join(root, name), jpegBytes(t, 4, 4), base.Add(time.Duration(i)*time.Minute))
	}
	src, err := New([]string{root}, nil)
	require.NoError(t, err)
	return src, root
}

func pageQuery() domain.AssetQuery {
	q := allQuery()
	q.PageSize = 2
	q.Descending = false
	return q
}

// drain follows cursors from q until the last page
func drain(t *testing.T, src *Source, q domain.AssetQuery) ([]string, int) {
	t.Helper()
	var (
		got   []string
		total int
	)
	for {
		page, err := src.GetAssets(context.Background(), q)
		require.NoError(t, err)
		got = append(got, filenames(page.Items)...)
		total = page.TotalCount
		if !page.HasMore {
			return got, total
		}
		q.Cursor = page.NextCursor
	}
}

func TestGetAssets_ResumesAfterLibraryChanges(t *testing.T) {
	ctx := context.Background()

	t.Run("served items deleted", func(t *testing.T) {
		src, root := sixPhotos(t)
		q := pageQuery()

		first, err := src.GetAssets(ctx, q)
		require.NoError(t, err)
		require.Equal(t, []string{"p0.jpg", "p1.jpg"}, filenames(first.Items))

		ok, err := src.DeleteAssets(ctx, []string{filepath.Join(root, "p0.jpg"), filepath.Join(root, "p1.jpg")})
		require.NoError(t, err)
		require.True(t, ok)

		q.Cursor = first.NextCursor
		rest, total := drain(t, src, q)
		assert.Equal(t, []string{"p2.jpg", "p3.jpg", "p4.jpg", "p5.jpg"}, rest)
		assert.Equal(t, 6, total)
	})

	t.Run("file added before the cursor", func(t *testing.T) {
		src, root := sixPhotos(t)
		q := pageQuery()

		first, err := src.GetAssets(ctx, q)
		require.NoError(t, err)
		require.Equal(t, []string{"p0.jpg", "p1.jpg"}, filenames(first.Items))

		writeFile(t, filepath.Join(root, "early.jpg"), jpegBytes(t, 4, 4), base.Add(-time.Hour))
		src.Invalidate()

		q.Cursor = first.NextCursor
		rest, total := drain(t, src, q)
		assert.Equal(t, []string{"p2.jpg", "p3.jpg", "p4.jpg", "p5.jpg"}, rest)
		assert.Equal(t, 6, total)
	})

	t.Run("unseen item deleted", func(t *testing.T) {
		src, root := sixPhotos(t)
		q := pageQuery()

		first, err := src.GetAssets(ctx, q)
		require.NoError(t, err)

		_, err = src.DeleteAssets(ctx, []string{filepath.Join(root, "p3.jpg")})
		require.NoError(t, err)

		q.Cursor = first.NextCursor
		rest, total := drain(t, src, q)
		assert.Equal(t, []string{"p2.jpg", "p4.jpg", "p5.jpg"}, rest)
		assert.Equal(t, 5, total)
	})
}

func TestWatch(t *testing.T) {
	src, root := newLibrary(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	require.NoError(t, src.Watch(ctx, 20*time.Millisecond, func() { calls.Add(1) }))

	writeFile(t, filepath.Join(root, "Trip", "new.jpg"), jpegBytes(t, 2, 2), time.Now())
	writeFile(t, filepath.Join(root, "Trip", "new2.jpg"), jpegBytes(t, 2, 2), time.Now())

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	page, err := src.GetAssets(context.Background(), allQuery())
	require.NoError(t, err)
	assert.Equal(t, 7, page.TotalCount)
}
