package data_model

import "gorm.io/gorm"

// One row per registered book, keyed by the chapter index URL.
type BookRecord struct {
	gorm.Model

	IndexURL string `gorm:"uniqueIndex"`
	Title    string
	BookID   string
	RootDir  string

	ChapterCnt int
	LastRead   int
}
