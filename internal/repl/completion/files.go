package completion

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GetFileCompletions returns filesystem paths starting with prefix, resolved
// relative to pwd. The typed prefix ("./", "../", "~/" or an absolute
// directory) is kept on every result and directories end with "/".
func GetFileCompletions(prefix, pwd string) []string {
	dirPart, filePart := "", prefix
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		dirPart, filePart = prefix[:i+1], prefix[i+1:]
	}

	searchDir := dirPart
	switch {
	case dirPart == "":
		searchDir = pwd
	case strings.HasPrefix(dirPart, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return []string{}
		}
		searchDir = filepath.Join(home, dirPart[2:])
	case !filepath.IsAbs(dirPart):
		searchDir = filepath.Join(pwd, dirPart)
	}

	entries, err := os.ReadDir(searchDir)
	if err != nil {
		return []string{}
	}

	completions := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, filePart) {
			continue
		}

		completion := dirPart + name
		if isDir(filepath.Join(searchDir, name), entry) {
			completion += "/"
		}
		completions = append(completions, completion)
	}

	sort.Strings(completions)
	return completions
}

func isDir(path string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
