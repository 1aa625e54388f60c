// Package book_dl implements the download command. Chapter pages of a
// registered book are fetched through an async colly collector and cached as
// per-chapter JSON files.
package book_dl

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Breeze-mi/Novel-crawler/base"
	"github.com/Breeze-mi/Novel-crawler/chapter_index"
	"github.com/Breeze-mi/Novel-crawler/chapter_text"
	"github.com/Breeze-mi/Novel-crawler/library"
	"github.com/Breeze-mi/Novel-crawler/network"
	"github.com/gocolly/colly/v2"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

type options struct {
	indexURL    string
	libraryRoot string

	delay    time.Duration
	jobCnt   int
	timeout  time.Duration
	retryCnt int
}

type ctxGlobal struct {
	collector *colly.Collector
	info      *base.BookInfo
	bar       *progressbar.ProgressBar
}

func Cmd() *cli.Command {
	var indexURL string

	cmd := &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "download chapter content of a book already added to the library",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "library root directory",
				Value:   "./",
			},
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "delay between chapter page requests",
				Value: 200 * time.Millisecond,
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "max parallel chapter requests",
				Value:   4,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "request timeout for chapter pages",
				Value: network.DefaultTimeout,
			},
			&cli.IntFlag{
				Name:  "retry",
				Usage: "retry count for failed requests",
				Value: network.DefaultRetryCnt,
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
			return cmdMain(options{
				indexURL:    indexURL,
				libraryRoot: cmd.String("root"),
				delay:       cmd.Duration("delay"),
				jobCnt:      int(cmd.Int("jobs")),
				timeout:     cmd.Duration("timeout"),
				retryCnt:    int(cmd.Int("retry")),
			})
		},
	}

	return cmd
}

func cmdMain(opts options) error {
	bookDir := library.BookDir(opts.libraryRoot, opts.indexURL)
	info, err := base.ReadBookInfo(library.InfoFilePath(bookDir))
	if err != nil {
		return fmt.Errorf("book is not in the library, run the index command first: %s", err)
	}

	entries, err := library.LoadIndex(info)
	if err != nil {
		return err
	}

	pending := []chapter_index.ChapterEntry{}
	for _, entry := range entries {
		if library.IsChapterCached(info.ChapterDir, entry.Index) {
			continue
		}
		pending = append(pending, entry)
	}

	if len(pending) == 0 {
		fmt.Printf("all %d chapters of %q are already cached\n", len(entries), info.Title)
		return nil
	}

	collector, _ := makeCollector(info, opts, len(pending))

	for _, entry := range pending {
		visitChapterPage(collector, entry, opts.retryCnt)
	}

	collector.Wait()
	fmt.Println()

	return nil
}

// Returns collector used for chapter downloading.
func makeCollector(info *base.BookInfo, opts options, totalCnt int) (*colly.Collector, *ctxGlobal) {
	c := colly.NewCollector(
		colly.UserAgent(network.DefaultUserAgent),
		colly.Async(true),
	)
	c.SetRequestTimeout(opts.timeout)

	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       opts.delay,
		Parallelism: opts.jobCnt,
	})

	bar := progressbar.NewOptions64(
		int64(totalCnt),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(5),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)

	global := &ctxGlobal{
		collector: c,
		info:      info,
		bar:       bar,
	}

	c.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("global", global)
	})
	c.OnResponse(func(r *colly.Response) {
		if data, err := network.DecompressResponseBody(r); err == nil {
			r.Body = data
		} else {
			bar.Describe(err.Error())
		}

		onChapterPage(r)
	})
	c.OnError(func(r *colly.Response, err error) {
		if _, retryErr := network.RetryRequest(r.Request); retryErr == nil {
			return
		}

		bar.Describe(fmt.Sprintf("give up requesting %s: %s", r.Request.URL, err))
		bar.Add(1)
	})

	return c, global
}

// visitChapterPage sends request for one chapter page with download state
// stored in request context.
func visitChapterPage(collector *colly.Collector, entry chapter_index.ChapterEntry, retryCnt int) {
	newCtx := colly.NewContext()
	newCtx.Put("entry", &entry)
	newCtx.Put("maxRetryCnt", retryCnt)

	collector.Request("GET", entry.URL, nil, newCtx, nil)
}

// onChapterPage handles chapter page fetched by colly collector.
func onChapterPage(r *colly.Response) {
	global, ok := r.Ctx.GetAny("global").(*ctxGlobal)
	if !ok {
		return
	}

	entry, ok := r.Ctx.GetAny("entry").(*chapter_index.ChapterEntry)
	if !ok {
		return
	}

	defer global.bar.Add(1)

	pageText := network.DecodeResponseText(r)

	content := chapter_text.Extract(pageText, entry.URL)
	if content.Title == "" {
		content.Title = entry.Title
	}

	chapter := &library.CachedChapter{
		Index:      entry.Index,
		Title:      content.Title,
		URL:        entry.URL,
		Content:    content.Content,
		Paragraphs: content.Paragraphs,
	}

	if err := library.SaveCachedChapter(global.info.ChapterDir, chapter); err != nil {
		global.bar.Describe(err.Error())
		return
	}

	global.bar.Describe(fmt.Sprintf("saved: %s", content.Title))
}
