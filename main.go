package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Breeze-mi/Novel-crawler/book_dl"
	"github.com/Breeze-mi/Novel-crawler/book_index"
	"github.com/Breeze-mi/Novel-crawler/library"
	"github.com/Breeze-mi/Novel-crawler/make_epub"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:    "novel-crawler",
		Usage:   "helper program for scraping chapter directory and content of online novels",
		Version: "0.1.0",
		Commands: []*cli.Command{
			book_index.Cmd(),
			book_dl.Cmd(),
			library.Cmd(),
			make_epub.Cmd(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
