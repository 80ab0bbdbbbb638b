//go:build mage

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Stats prints Go lines of code per top-level directory as one JSON line.
func Stats() error {
	prod := map[string]int{}
	test := map[string]int{}

	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			switch path {
			case "vendor", ".git", binaryDir, "magefiles", "_examples":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		count, countErr := countLines(path)
		if countErr != nil {
			return nil
		}
		top := strings.SplitN(filepath.ToSlash(path), "/", 2)[0]
		if strings.HasSuffix(path, "_test.go") {
			test[top] += count
		} else {
			prod[top] += count
		}
		return nil
	})
	if err != nil {
		return err
	}

	var prodTotal, testTotal int
	for _, n := range prod {
		prodTotal += n
	}
	for _, n := range test {
		testTotal += n
	}

	line, err := json.Marshal(map[string]any{
		"go_loc_prod": prodTotal,
		"go_loc_test": testTotal,
		"go_loc":      prodTotal + testTotal,
		"prod_by_dir": prod,
		"test_by_dir": test,
	})
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
