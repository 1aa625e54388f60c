package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Breeze-mi/Novel-crawler/database"
	"github.com/Breeze-mi/Novel-crawler/database/data_model"
	"github.com/charmbracelet/log"
	"github.com/jeandeaual/go-locale"
	"github.com/urfave/cli/v3"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

func Cmd() *cli.Command {
	cmd := &cli.Command{
		Name:  "library",
		Usage: "manage downloaded books",
		Commands: []*cli.Command{
			subCmdList(),
			subCmdRemove(),
		},
	}

	return cmd
}

type recordList []data_model.BookRecord

func (r recordList) Len() int {
	return len(r)
}

func (r recordList) Swap(i, j int) {
	r[i], r[j] = r[j], r[i]
}

func (r recordList) Bytes(i int) []byte {
	return []byte(r[i].Title)
}

// Resolves sorting language from flag value, falling back to system locale
// then Simplified Chinese.
func sortLanguage(localeFlag string) language.Tag {
	langTag := language.SimplifiedChinese

	if localeFlag != "" {
		if parsedTag, err := language.Parse(localeFlag); err == nil {
			langTag = parsedTag
		} else {
			log.Warnf("invalid locale, fallback to %s: %s", langTag, err)
		}
	} else if lang, err := locale.GetLocale(); err == nil {
		if parsedTag, err := language.Parse(lang); err == nil {
			langTag = parsedTag
		}
	}

	return langTag
}

func subCmdList() *cli.Command {
	cmd := &cli.Command{
		Name:  "list",
		Usage: "list books registered in the library",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "library root directory",
				Value:   "./",
			},
			&cli.StringFlag{
				Name:    "locale",
				Aliases: []string{"l"},
				Usage:   "IETF BCP 47 language tag to be used as sorting language",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "print storage detail of each book",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			dbPath := filepath.Join(cmd.String("root"), DefaultDatabaseName)
			db, err := database.Open(dbPath)
			if err != nil {
				return err
			}
			defer database.Close(db)

			records := []data_model.BookRecord{}
			result := db.Find(&records)
			if result.Error != nil {
				return fmt.Errorf("failed to read book records: %s", result.Error)
			}

			langTag := sortLanguage(cmd.String("locale"))
			collate.New(langTag).Sort(recordList(records))

			isVerbose := cmd.Bool("verbose")
			for index, record := range records {
				fmt.Printf("%d. %s (%d chapters)\n", index+1, record.Title, record.ChapterCnt)

				if isVerbose {
					fmt.Println("  index URL:", record.IndexURL)
					fmt.Println("  book id  :", record.BookID)
					fmt.Println("  root     :", record.RootDir)
					fmt.Println("  last read:", record.LastRead)
				}
			}

			return nil
		},
	}

	return cmd
}

func subCmdRemove() *cli.Command {
	var indexURL string

	cmd := &cli.Command{
		Name:  "remove",
		Usage: "remove a book and its cached chapters from the library",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "library root directory",
				Value:   "./",
			},
			&cli.BoolFlag{
				Name:  "keep-files",
				Usage: "only drop the database record, leave files on disk",
			},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "url",
				UsageText:   "<index-url>",
				Destination: &indexURL,
				Min:         1,
				Max:         1,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			libraryRoot := cmd.String("root")

			dbPath := filepath.Join(libraryRoot, DefaultDatabaseName)
			db, err := database.Open(dbPath)
			if err != nil {
				return err
			}
			defer database.Close(db)

			record := data_model.BookRecord{}
			result := db.Where("index_url = ?", indexURL).First(&record)
			if result.Error != nil {
				return fmt.Errorf("no book found for %s: %s", indexURL, result.Error)
			}

			result = db.Unscoped().Delete(&record)
			if result.Error != nil {
				return fmt.Errorf("failed to delete book record: %s", result.Error)
			}

			if !cmd.Bool("keep-files") {
				bookDir := BookDir(libraryRoot, indexURL)
				if err := os.RemoveAll(bookDir); err != nil {
					return fmt.Errorf("failed to remove book directory %s: %s", bookDir, err)
				}
			}

			log.Infof("removed book %q", record.Title)

			return nil
		},
	}

	return cmd
}
