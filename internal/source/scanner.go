package source

import (
	"os"
	"path/filepath"
	"strings"
)

// logExtensions are the file types the game client and users save session
// logs as.
var logExtensions = map[string]bool{
	".txt": true,
	".log": true,
}

// ScanDir walks dir and discovers all session log exports. Logs in a
// subdirectory are attributed to a character named after that directory.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsLogFile(path) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished between readdir and stat
		}

		df := DiscoveredFile{
			Path:    path,
			Name:    strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
			ModTime: fi.ModTime(),
			Size:    fi.Size(),
		}
		rel, _ := filepath.Rel(dir, path)
		if parts := strings.Split(rel, string(filepath.Separator)); len(parts) >= 2 {
			df.Character = parts[0]
		}

		files = append(files, df)
		return nil
	})

	return files, err
}

// IsLogFile reports whether path looks like a session log export.
func IsLogFile(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return logExtensions[strings.ToLower(filepath.Ext(name))]
}

// Stat describes a single file the way ScanDir would.
func Stat(path string) (DiscoveredFile, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return DiscoveredFile{}, err
	}
	name := filepath.Base(path)
	return DiscoveredFile{
		Path:    path,
		Name:    strings.TrimSuffix(name, filepath.Ext(name)),
		ModTime: fi.ModTime(),
		Size:    fi.Size(),
	}, nil
}

// CountCharacters returns the number of unique characters in a set of discovered files.
func CountCharacters(files []DiscoveredFile) int {
	seen := make(map[string]struct{})
	for _, f := range files {
		seen[f.Character] = struct{}{}
	}
	return len(seen)
}
