package citations

import (
	"encoding/json"
	"os"
)

// LoadLinkIndex reads the path→hyperlink index from a JSON file.
// A missing or malformed file yields an empty index: citations then stay
// valid but unlinked, which is preferable to failing the whole request.
func LoadLinkIndex(path string) map[string]string {
	index := map[string]string{}
	if path == "" {
		return index
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return index
	}
	if err := json.Unmarshal(data, &index); err != nil {
		return map[string]string{}
	}
	return index
}
