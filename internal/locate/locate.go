package locate

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"unicode"
)

// Suggestion is one candidate save directory for a game.
type Suggestion struct {
	Path   string `json:"path"`
	Source string `json:"source"`
}

type searchBase struct {
	path  string
	depth int
}

// FindSaveLocations scans the well-known save directories of the host OS for
// folders whose name matches a variant of the game name. It is a bounded
// filesystem search, not a database lookup.
func FindSaveLocations(gameName string) ([]Suggestion, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	variants := NameVariants(gameName)

	var suggestions []Suggestion
	for _, base := range searchBases(home) {
		if _, err := os.Stat(base.path); err != nil {
			continue
		}
		searchDir(base.path, variants, base.depth, &suggestions)
	}

	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].Path < suggestions[j].Path
	})
	suggestions = dedup(suggestions)

	return suggestions, nil
}

func searchBases(home string) []searchBase {
	switch runtime.GOOS {
	case "darwin":
		return []searchBase{
			{filepath.Join(home, "Library", "Application Support"), 2},
			{filepath.Join(home, "Library", "Application Support", "unity3d"), 2},
			{filepath.Join(home, "Library", "Containers"), 2},
			{filepath.Join(home, "Documents"), 1},
		}
	case "windows":
		return []searchBase{
			{filepath.Join(home, "AppData", "Roaming"), 2},
			{filepath.Join(home, "AppData", "Local"), 2},
			{filepath.Join(home, "AppData", "LocalLow"), 2},
			{filepath.Join(home, "Documents", "My Games"), 2},
			{filepath.Join(home, "Documents"), 1},
			{filepath.Join(home, "Saved Games"), 2},
		}
	default:
		return []searchBase{
			{filepath.Join(home, ".local", "share"), 2},
			{filepath.Join(home, ".config"), 2},
			{home, 1},
		}
	}
}

// NameVariants generates the folder-name spellings a game is commonly
// installed under: as-is, stripped of punctuation, space-collapsed,
// underscored, lowercased, and dot-prefixed for hidden unix folders.
func NameVariants(gameName string) []string {
	name := strings.TrimSpace(gameName)
	if name == "" {
		return nil
	}

	var variants []string
	add := func(v string) {
		for _, existing := range variants {
			if existing == v {
				return
			}
		}
		variants = append(variants, v)
	}

	add(name)

	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			return r
		}
		return -1
	}, name)
	if clean != "" {
		add(clean)
	}

	add(strings.ReplaceAll(name, " ", ""))
	add(strings.ReplaceAll(name, " ", "_"))

	lower := strings.ToLower(name)
	add(lower)

	lowerNoSpaces := strings.ReplaceAll(lower, " ", "")
	add(lowerNoSpaces)
	add("." + lowerNoSpaces)

	return variants
}

func searchDir(base string, variants []string, depth int, suggestions *[]Suggestion) {
	if depth == 0 {
		return
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(base, entry.Name())
		folder := strings.ToLower(entry.Name())

		for _, variant := range variants {
			v := strings.ToLower(variant)
			if strings.Contains(folder, v) || strings.Contains(v, folder) {
				*suggestions = append(*suggestions, Suggestion{
					Path:   path,
					Source: "filesystem_search",
				})
				break
			}
		}

		if depth > 1 {
			searchDir(path, variants, depth-1, suggestions)
		}
	}
}

func dedup(suggestions []Suggestion) []Suggestion {
	out := suggestions[:0]
	var last string
	for _, s := range suggestions {
		if s.Path == last {
			continue
		}
		out = append(out, s)
		last = s.Path
	}

	return out
}
