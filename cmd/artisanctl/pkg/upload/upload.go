package upload

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/chennaiartisanal/provenance/market/mutation"
)

// Read loads a file to be pinned, taking the content type from the extension
// and falling back to sniffing.
func Read(path string) (mutation.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mutation.Image{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return mutation.Image{Data: data, ContentType: ct}, nil
}
