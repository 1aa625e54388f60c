// Package book_index implements the index command. It fetches a book detail
// page, extracts the chapter directory and registers the book in the local
// library.
package book_index

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Breeze-mi/Novel-crawler/chapter_index"
	"github.com/Breeze-mi/Novel-crawler/chapter_text"
	"github.com/Breeze-mi/Novel-crawler/database"
	"github.com/Breeze-mi/Novel-crawler/library"
	"github.com/Breeze-mi/Novel-crawler/network"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

type options struct {
	targetURL   string
	libraryRoot string
	timeout     time.Duration
	retryCnt    int
	printOnly   bool
	noLocate    bool
}

func Cmd() *cli.Command {
	var targetURL string

	cmd := &cli.Command{
		Name:    "index",
		Aliases: []string{"idx"},
		Usage:   "extract chapter directory of a book and add it to the library",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "library root directory",
				Value:   "./",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "request timeout for index pages",
				Value: network.DefaultTimeout,
			},
			&cli.IntFlag{
				Name:  "retry",
				Usage: "retry count for failed requests",
				Value: network.DefaultRetryCnt,
			},
			&cli.BoolFlag{
				Name:  "print",
				Usage: "print chapter list JSON to stdout instead of writing the library",
			},
			&cli.BoolFlag{
				Name:  "no-locate",
				Usage: "skip detection of a fuller alternate directory page",
			},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "url",
				UsageText:   "<book-page-url>",
				Destination: &targetURL,
				Min:         1,
				Max:         1,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdMain(ctx, options{
				targetURL:   targetURL,
				libraryRoot: cmd.String("root"),
				timeout:     cmd.Duration("timeout"),
				retryCnt:    int(cmd.Int("retry")),
				printOnly:   cmd.Bool("print"),
				noLocate:    cmd.Bool("no-locate"),
			})
		},
	}

	return cmd
}

func cmdMain(ctx context.Context, opts options) error {
	fetcher := network.NewFetcher(opts.timeout, opts.retryCnt)

	pageURL := opts.targetURL
	pageHTML, err := fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %s", pageURL, err)
	}

	if !opts.noLocate {
		if fullURL := chapter_index.LocateFullIndexURL(pageURL, pageHTML); fullURL != "" && fullURL != pageURL {
			log.Infof("found fuller directory page: %s", fullURL)

			if fullHTML, err := fetcher.Fetch(ctx, fullURL); err == nil {
				pageURL = fullURL
				pageHTML = fullHTML
			} else {
				log.Warnf("failed to fetch %s, fallback to original page: %s", fullURL, err)
			}
		}
	}

	extractor := &chapter_index.Extractor{
		Fetcher: fetcher,
		OnBatch: func(_ []chapter_index.ChapterEntry, done, total int) {
			log.Infof("chapter list: %d/%d", done, total)
		},
	}

	entries := extractor.Extract(ctx, pageHTML, pageURL)
	if len(entries) == 0 {
		return fmt.Errorf("no chapter found on %s", pageURL)
	}

	if opts.printOnly {
		data, err := json.MarshalIndent(entries, "", "    ")
		if err != nil {
			return fmt.Errorf("JSON conversion failed: %s", err)
		}

		fmt.Println(string(data))

		return nil
	}

	title := chapter_text.ExtractBookTitle(pageHTML)

	info, err := library.CreateBook(opts.libraryRoot, title, pageURL, entries)
	if err != nil {
		return err
	}

	db, err := database.Open(filepath.Join(opts.libraryRoot, library.DefaultDatabaseName))
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := library.RegisterBook(db, info, len(entries)); err != nil {
		return err
	}

	log.Infof("added book %q with %d chapters", info.Title, len(entries))

	return nil
}
