package main

import (
	"os"

	"github.com/magefile/mage/sh"
)

// Test runs the unit tests. Postgres cache tests also run when
// CLUE_SEARCH_TEST_PG_DSN is set.
func Test() error {
	args := []string{"test", "-race", "./..."}
	if os.Getenv("VERBOSE") != "" {
		args = append(args, "-v")
	}
	return sh.RunV("go", args...)
}

// Vet runs go vet over every package.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}
