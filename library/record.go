package library

import (
	"errors"
	"fmt"

	"github.com/Breeze-mi/Novel-crawler/base"
	"github.com/Breeze-mi/Novel-crawler/database/data_model"
	"gorm.io/gorm"
)

// RegisterBook stores or refreshes the database record for a book, keyed by
// its chapter index URL.
func RegisterBook(db *gorm.DB, info *base.BookInfo, chapterCnt int) error {
	record := data_model.BookRecord{}

	result := db.Where("index_url = ?", info.IndexURL).First(&record)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up book record: %s", result.Error)
	}

	record.IndexURL = info.IndexURL
	record.Title = info.Title
	record.BookID = BookID(info.IndexURL)
	record.RootDir = info.RootDir
	record.ChapterCnt = chapterCnt
	record.LastRead = info.LastRead

	result = db.Save(&record)
	if result.Error != nil {
		return fmt.Errorf("failed to save book record: %s", result.Error)
	}

	return nil
}
