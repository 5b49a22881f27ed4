// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/leseb/docingest/pkg/extraction"
)

const readable = "The quarterly report describes revenue growth across every region, " +
	"with particular strength in the northern markets and steady retail demand."

func runApp(t *testing.T, args ...string) (string, string, int, error) {
	t.Helper()

	exitCode := 0
	prev := cli.OsExiter
	cli.OsExiter = func(code int) { exitCode = code }
	t.Cleanup(func() { cli.OsExiter = prev })

	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr

	err := app.Run(append([]string{"docextract"}, args...))
	return stdout.String(), stderr.String(), exitCode, err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseValues(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{name: "empty", want: map[string]any{}},
		{name: "pairs", pairs: []string{"model=gpt-4o", "prompt=a=b, c"}, want: map[string]any{"model": "gpt-4o", "prompt": "a=b, c"}},
		{name: "empty value", pairs: []string{"instructions="}, want: map[string]any{"instructions": ""}},
		{name: "missing equals", pairs: []string{"model"}, wantErr: true},
		{name: "empty key", pairs: []string{"=x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseValues(tt.pairs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseValues() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestExtractCommand(t *testing.T) {
	path := writeFile(t, "notes.txt", readable)

	stdout, stderr, code, err := runApp(t, "extract", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d", code)
	}
	if strings.TrimSpace(stdout) != readable {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stderr, "method=text readable=true") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestExtractCommandJSON(t *testing.T) {
	path := writeFile(t, "notes.md", readable)

	stdout, _, _, err := runApp(t, "extract", "--json", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var res extraction.Result
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("decode: %v (%s)", err, stdout)
	}
	if res.Method != extraction.MethodText || !res.IsReadable || res.Text != readable {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestExtractCommandFailure(t *testing.T) {
	path := writeFile(t, "blob.bin", "\x00\x01\x02\x03")

	stdout, _, code, _ := runApp(t, "extract", path)
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if strings.TrimSpace(stdout) != extraction.FailedPlaceholder {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestExtractCommandMissingFile(t *testing.T) {
	if _, _, _, err := runApp(t, "extract"); err == nil {
		t.Error("expected error without FILE")
	}
	if _, _, _, err := runApp(t, "extract", filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFormatCommand(t *testing.T) {
	path := writeFile(t, "body.json", `{"model": "{model}", "messages": [{"role": "user", "content": "{prompt}"}], "max_tokens": 64}`)

	stdout, _, _, err := runApp(t, "format", "--template", path, "--set", "model=gpt-4o", "--set", "prompt=Hi, there")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(stdout)); err != nil {
		t.Fatalf("compact: %v (%s)", err, stdout)
	}
	want := `{"model":"gpt-4o","messages":[{"role":"user","content":"Hi, there"}],"max_tokens":64}`
	if compact.String() != want {
		t.Errorf("got %s, want %s", compact.String(), want)
	}
}

func TestFormatCommandList(t *testing.T) {
	path := writeFile(t, "body.yaml", "model: \"{model}\"\ninput: \"{instructions} {prompt} {model}\"\n")

	stdout, _, _, err := runApp(t, "format", "-t", path, "--list")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.Fields(stdout); strings.Join(got, ",") != "model,instructions,prompt" {
		t.Errorf("placeholders = %v", got)
	}
}

func TestFormatCommandErrors(t *testing.T) {
	path := writeFile(t, "body.json", `{"a": "{b}"}`)

	if _, _, _, err := runApp(t, "format", "--template", path, "--set", "novalue"); err == nil {
		t.Error("expected error for malformed --set")
	}
	if _, _, _, err := runApp(t, "format", "--template", writeFile(t, "bad.json", "{")); err == nil {
		t.Error("expected error for malformed template")
	}
}
