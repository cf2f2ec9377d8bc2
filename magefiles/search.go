package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search builds the CLI and runs one question whose clues come from the
// CLUES environment variable (space separated).
func Search() error {
	mg.Deps(Init, Build)
	clues := strings.Fields(os.Getenv("CLUES"))
	if len(clues) == 0 {
		return fmt.Errorf("set CLUES, e.g. CLUES=\"Paris France\" mage search")
	}
	args := append([]string{"search"}, clues...)
	return sh.RunV(filepath.Join(binDir, binName), args...)
}
