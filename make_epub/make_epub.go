// Package make_epub bundles cached chapter content of a book into an ePub
// file.
package make_epub

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Breeze-mi/Novel-crawler/base"
	"github.com/Breeze-mi/Novel-crawler/library"
	"github.com/charmbracelet/log"
	"github.com/go-shiori/go-epub"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	var indexURL string

	cmd := &cli.Command{
		Name:  "epub",
		Usage: "bundle cached chapters of a book into an ePub file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "library root directory",
				Value:   "./",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output directory to save epub file to",
			},
			&cli.StringFlag{
				Name:    "author",
				Aliases: []string{"a"},
				Usage:   "author name written into epub metadata",
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
			bookDir := library.BookDir(cmd.String("root"), indexURL)
			info, err := base.ReadBookInfo(library.InfoFilePath(bookDir))
			if err != nil {
				return fmt.Errorf("book is not in the library, run the index command first: %s", err)
			}

			outputDir := base.GetStrOr(cmd.String("output"), info.EpubDir)

			return cmdMain(info, outputDir, cmd.String("author"))
		},
	}

	return cmd
}

func cmdMain(info *base.BookInfo, outputDir string, author string) error {
	chapters, err := loadCachedChapters(info.ChapterDir)
	if err != nil {
		return err
	}

	if len(chapters) == 0 {
		return fmt.Errorf("no cached chapter found under %s, run the download command first", info.ChapterDir)
	}

	err = os.MkdirAll(outputDir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create output directory %s: %s", outputDir, err)
	}

	outputName := filepath.Join(outputDir, base.InvalidPathCharReplace(info.Title)+".epub")

	err = makeEpub(info.Title, author, outputName, chapters)
	if err != nil {
		return fmt.Errorf("failed to make epub %s: %s", outputName, err)
	}

	log.Infof("epub saved (%d chapters): %s", len(chapters), outputName)

	return nil
}

// Loads all cached chapter files under given directory, ordered by chapter
// index.
func loadCachedChapters(chapterDir string) ([]*library.CachedChapter, error) {
	entryList, err := os.ReadDir(chapterDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read chapter directory %s: %s", chapterDir, err)
	}

	names := []string{}
	for _, child := range entryList {
		if !child.IsDir() && filepath.Ext(child.Name()) == ".json" {
			names = append(names, child.Name())
		}
	}
	sort.Strings(names)

	chapters := []*library.CachedChapter{}
	for _, name := range names {
		var index int
		if _, err := fmt.Sscanf(name, "%d.json", &index); err != nil {
			continue
		}

		chapter, err := library.LoadCachedChapter(chapterDir, index)
		if err != nil {
			log.Warnf("skip broken chapter cache %s: %s", name, err)
			continue
		}

		chapters = append(chapters, chapter)
	}

	return chapters, nil
}

func makeEpub(title string, author string, outputName string, chapters []*library.CachedChapter) error {
	book, err := epub.NewEpub(title)
	if err != nil {
		return err
	}

	if author != "" {
		book.SetAuthor(author)
	}

	for _, chapter := range chapters {
		sectionName := chapter.Title
		if sectionName == "" {
			sectionName = fmt.Sprintf("第%d章", chapter.Index)
		}

		_, err = book.AddSection(chapterBody(sectionName, chapter), sectionName, "", "")
		if err != nil {
			log.Warnf("failed to add chapter %q: %s", sectionName, err)
		}
	}

	return book.Write(outputName)
}

// Renders one chapter as XHTML body content.
func chapterBody(sectionName string, chapter *library.CachedChapter) string {
	builder := strings.Builder{}

	builder.WriteString("<h1>")
	builder.WriteString(html.EscapeString(sectionName))
	builder.WriteString("</h1>\n")

	paragraphs := chapter.Paragraphs
	if len(paragraphs) == 0 && chapter.Content != "" {
		paragraphs = strings.Split(chapter.Content, "\n\n")
	}

	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		builder.WriteString("<p>")
		builder.WriteString(html.EscapeString(paragraph))
		builder.WriteString("</p>\n")
	}

	return builder.String()
}
