// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Command docextract extracts text from local documents and formats
// provider request templates.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set via ldflags during build
var Version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "docextract",
		Usage:   "extract text from documents and format request templates",
		Version: Version,
		// --set values may contain commas
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "debug, info, warn or error",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "extract the text of a PDF, DOCX, HTML or text file",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "declared MIME type, e.g. application/pdf"},
					&cli.StringFlag{Name: "name", Usage: "declared file name (defaults to FILE)"},
					&cli.IntFlag{Name: "pdf-workers", Value: 1, Usage: "PDF pages extracted in parallel"},
					&cli.BoolFlag{Name: "json", Usage: "print the full result as JSON"},
				},
				Action: ExtractAction,
			},
			{
				Name:  "format",
				Usage: "substitute {placeholders} in a JSON or YAML template",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Required: true, Usage: "template file"},
					&cli.StringSliceFlag{Name: "set", Aliases: []string{"s"}, Usage: "substitution `KEY=VALUE`, repeatable"},
					&cli.BoolFlag{Name: "list", Usage: "only list the placeholders the template uses"},
				},
				Action: FormatAction,
			},
		},
	}
}
