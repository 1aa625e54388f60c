// Package library manages local book storage: per-book directories holding an
// info file, a chapter index snapshot and cached chapter content, plus a
// sqlite record table for listing.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/Breeze-mi/Novel-crawler/base"
	"github.com/Breeze-mi/Novel-crawler/chapter_index"
)

// DefaultDatabaseName is the book record database file name under the
// library root.
const DefaultDatabaseName = "library.db"

const infoFileName = "info.json"

// Cached content of a single chapter, stored as one JSON file per chapter
// under the book's chapter directory.
type CachedChapter struct {
	Index      int      `json:"index"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Content    string   `json:"content"`
	Paragraphs []string `json:"paragraphs"`
}

// BookID derives a stable directory-safe identifier from a book's chapter
// index URL.
func BookID(indexURL string) string {
	hasher := fnv.New64a()
	hasher.Write([]byte(indexURL))
	return fmt.Sprintf("%d", hasher.Sum64())
}

// BookDir returns the directory a book with given index URL is stored under.
func BookDir(libraryRoot string, indexURL string) string {
	return filepath.Join(libraryRoot, "book_"+BookID(indexURL))
}

// InfoFilePath returns path of the book info file under a book directory.
func InfoFilePath(bookDir string) string {
	return filepath.Join(bookDir, infoFileName)
}

// CreateBook sets up directory layout for a new book and writes its info file
// and chapter index snapshot. An existing book with the same index URL gets
// its index replaced while the read position is kept.
func CreateBook(libraryRoot string, title string, indexURL string, entries []chapter_index.ChapterEntry) (*base.BookInfo, error) {
	bookDir := BookDir(libraryRoot, indexURL)
	infoPath := InfoFilePath(bookDir)

	info, err := base.ReadBookInfo(infoPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}

		info = &base.BookInfo{
			RootDir:    bookDir,
			ChapterDir: filepath.Join(bookDir, "chapters"),
			EpubDir:    filepath.Join(bookDir, "epub"),
			IndexFile:  filepath.Join(bookDir, "index.json"),
		}
	}

	info.Title = base.GetStrOr(title, info.Title)
	info.Title = base.GetStrOr(info.Title, "在线书 "+BookID(indexURL))
	info.IndexURL = indexURL

	if err := os.MkdirAll(info.ChapterDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chapter directory %s: %s", info.ChapterDir, err)
	}
	if err := os.MkdirAll(info.EpubDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create epub directory %s: %s", info.EpubDir, err)
	}

	if err := ReplaceIndex(info, entries); err != nil {
		return nil, err
	}

	if err := base.SaveBookInfo(info, infoPath); err != nil {
		return nil, err
	}

	return info, nil
}

// ReplaceIndex writes a new chapter index snapshot for a book and moves the
// recorded read position into the new chapter range.
func ReplaceIndex(info *base.BookInfo, entries []chapter_index.ChapterEntry) error {
	info.LastRead = ClampReadPosition(info.LastRead, len(entries))

	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("JSON conversion failed: %s", err)
	}

	err = os.WriteFile(info.IndexFile, data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write index file %s: %s", info.IndexFile, err)
	}

	return nil
}

// LoadIndex reads a book's chapter index snapshot.
func LoadIndex(info *base.BookInfo) ([]chapter_index.ChapterEntry, error) {
	data, err := os.ReadFile(info.IndexFile)
	if err != nil {
		return nil, fmt.Errorf("can't read index file %s: %s", info.IndexFile, err)
	}

	entries := []chapter_index.ChapterEntry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unable to parse index data in %s: %s", info.IndexFile, err)
	}

	return entries, nil
}

// ClampReadPosition maps a stored 1-based read position into a new chapter
// count. Positions outside the new range reset to 0 (unset).
func ClampReadPosition(lastRead int, chapterCnt int) int {
	if lastRead < 1 || lastRead > chapterCnt {
		return 0
	}
	return lastRead
}

// ChapterCachePath returns file path for a chapter's cached content. Names
// are zero padded so they list in chapter order.
func ChapterCachePath(chapterDir string, index int) string {
	return filepath.Join(chapterDir, fmt.Sprintf("%04d.json", index))
}

// LoadCachedChapter reads cached content of a chapter. Returns os.ErrNotExist
// wrapped error when the chapter has not been downloaded yet.
func LoadCachedChapter(chapterDir string, index int) (*CachedChapter, error) {
	cachePath := ChapterCachePath(chapterDir, index)

	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, fmt.Errorf("can't read chapter cache %s: %w", cachePath, err)
	}

	chapter := &CachedChapter{}
	if err := json.Unmarshal(data, chapter); err != nil {
		return nil, fmt.Errorf("unable to parse chapter cache %s: %s", cachePath, err)
	}

	return chapter, nil
}

// SaveCachedChapter writes chapter content to its cache file.
func SaveCachedChapter(chapterDir string, chapter *CachedChapter) error {
	data, err := json.MarshalIndent(chapter, "", "    ")
	if err != nil {
		return fmt.Errorf("JSON conversion failed: %s", err)
	}

	cachePath := ChapterCachePath(chapterDir, chapter.Index)
	err = os.WriteFile(cachePath, data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write chapter cache %s: %s", cachePath, err)
	}

	return nil
}

// IsChapterCached reports whether a chapter's cache file exists.
func IsChapterCached(chapterDir string, index int) bool {
	_, err := os.Stat(ChapterCachePath(chapterDir, index))
	return err == nil
}
