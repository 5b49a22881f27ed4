// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/leseb/docingest/pkg/extraction"
	"github.com/leseb/docingest/pkg/observability/logging"
	"github.com/leseb/docingest/pkg/template"
)

// ExtractAction runs the extraction pipeline over a local file. "-" reads
// standard input.
func ExtractAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("missing FILE argument")
	}

	content, err := readInput(c, path)
	if err != nil {
		return err
	}

	name := c.String("name")
	if name == "" && path != "-" {
		name = filepath.Base(path)
	}

	logger := logging.New(logging.Config{Level: c.String("log-level"), Output: c.App.ErrWriter})
	pipeline := extraction.New(
		extraction.WithLogger(logger.Logger),
		extraction.WithPDFExtractor(extraction.NewPDFExtractor(
			extraction.WithPageWorkers(c.Int("pdf-workers")),
		)),
	)

	res := pipeline.Extract(c.Context, extraction.Request{
		Content: content,
		Name:    name,
		Type:    c.String("type"),
	})

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintln(c.App.Writer, res.Text)
	fmt.Fprintf(c.App.ErrWriter, "method=%s readable=%t\n", res.Method, res.IsReadable)
	if res.Method == extraction.MethodFailed || res.Method == extraction.MethodError {
		return cli.Exit("", 2)
	}
	return nil
}

// FormatAction substitutes --set values into a template file and prints
// the result as JSON.
func FormatAction(c *cli.Context) error {
	data, err := readInput(c, c.String("template"))
	if err != nil {
		return err
	}

	tmpl, err := template.Parse(data)
	if err != nil {
		return err
	}

	if c.Bool("list") {
		for _, key := range template.Placeholders(tmpl) {
			fmt.Fprintln(c.App.Writer, key)
		}
		return nil
	}

	values, err := parseValues(c.StringSlice("set"))
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(template.Format(tmpl, values), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}

// parseValues turns KEY=VALUE pairs into substitution values. Only the first
// "=" splits; values are kept as strings.
func parseValues(pairs []string) (template.Values, error) {
	values := make(template.Values, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want KEY=VALUE", pair)
		}
		values[key] = value
	}
	return values, nil
}

func readInput(c *cli.Context, path string) ([]byte, error) {
	if path == "-" {
		var r io.Reader = os.Stdin
		if c.App.Reader != nil {
			r = c.App.Reader
		}
		return io.ReadAll(r)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
