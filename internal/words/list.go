package words

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadList reads one word per line from the provided file path. An empty
// path falls back to the built-in common table.
func LoadList(path string) ([]string, error) {
	if path == "" {
		return Common, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var list []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		list = append(list, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return list, nil
}
