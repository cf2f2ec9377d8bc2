// Package main contains Mage build targets for clue-search developer tooling.
package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the CLI expects.
var projectDirs = []string{
	"cache",
	".secrets",
}

// Init creates the cache and secrets directories.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized. Put the provider key in .secrets/bing-api-key.")
	return nil
}

const (
	binDir  = "bin"
	binName = "clue-search"
	cmdPkg  = "./cmd/clue-search"
)

// Build compiles the CLI binary into bin/, stamping the version from
// CLUE_SEARCH_VERSION when set.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version := os.Getenv("CLUE_SEARCH_VERSION")
	if version == "" {
		version = "dev"
	}
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Stats prints non-blank Go lines per package, split into production and
// test code, and the word count of the top-level Markdown documents.
func Stats() error {
	pkgs, err := goLineCounts(".")
	if err != nil {
		return err
	}
	dirs := make([]string, 0, len(pkgs))
	for dir := range pkgs {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	var prod, test int
	fmt.Printf("%-28s %8s %8s\n", "package", "prod", "test")
	for _, dir := range dirs {
		c := pkgs[dir]
		fmt.Printf("%-28s %8d %8d\n", dir, c.prod, c.test)
		prod += c.prod
		test += c.test
	}
	fmt.Printf("%-28s %8d %8d\n", "total", prod, test)

	words, err := markdownWords(".")
	if err != nil {
		return err
	}
	fmt.Printf("Words (Markdown docs): %d\n", words)
	return nil
}

type lineCount struct {
	prod, test int
}

// goLineCounts walks root and counts non-blank lines of .go files per
// directory. Hidden directories and anything starting with "_" are
// skipped, as the go tool does.
func goLineCounts(root string) (map[string]lineCount, error) {
	out := make(map[string]lineCount)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := nonBlankLines(data)

		dir, _ := filepath.Rel(root, filepath.Dir(path))
		c := out[dir]
		if strings.HasSuffix(path, "_test.go") {
			c.test += n
		} else {
			c.prod += n
		}
		out[dir] = c
		return nil
	})
	return out, err
}

// markdownWords counts whitespace-separated words in the .md files directly
// under root.
func markdownWords(root string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(root, "*.md"))
	if err != nil {
		return 0, err
	}
	total := 0
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", path, err)
		}
		total += len(bytes.Fields(data))
	}
	return total, nil
}

func nonBlankLines(data []byte) int {
	n := 0
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n
}
