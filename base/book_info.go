package base

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Represents infomation about a single book in local storage.
type BookInfo struct {
	Title string `json:"title"` // Book title

	IndexURL string `json:"index_url"` // URL of book's chapter index page

	RootDir    string `json:"root_dir"`    // root directory of book
	ChapterDir string `json:"chapter_dir"` // directory for cached chapter JSON files
	EpubDir    string `json:"epub_dir"`    // directory for writing epub file to

	IndexFile string `json:"index_file"` // JSON snapshot of extracted chapter list

	LastRead int `json:"last_read"` // 1-based index of last read chapter, 0 when unset
}

// Generates book info struct from JSON file.
func ReadBookInfo(infoPath string) (*BookInfo, error) {
	data, err := os.ReadFile(infoPath)
	if err != nil {
		return nil, fmt.Errorf("can't read info file %s: %w", infoPath, err)
	}

	info := &BookInfo{}
	if err := json.Unmarshal(data, info); err != nil {
		return nil, fmt.Errorf("unable to parse info data in %s: %s", infoPath, err)
	}

	info.RootDir = GetStrOr(info.RootDir, filepath.Dir(infoPath))
	info.ChapterDir = ResolveRelativePath(GetStrOr(info.ChapterDir, "chapters"), info.RootDir)
	info.EpubDir = ResolveRelativePath(GetStrOr(info.EpubDir, "epub"), info.RootDir)
	info.IndexFile = ResolveRelativePath(GetStrOr(info.IndexFile, "index.json"), info.RootDir)

	return info, nil
}

// Save book info struct to file.
func SaveBookInfo(info *BookInfo, infoPath string) error {
	data, err := json.MarshalIndent(info, "", "    ")
	if err != nil {
		return fmt.Errorf("JSON conversion failed: %s", err)
	}

	err = os.WriteFile(infoPath, data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write info file %s: %s", infoPath, err)
	}

	return nil
}
