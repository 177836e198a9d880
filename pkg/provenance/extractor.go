package provenance

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// File names a raw data file, or a family of files when Path contains glob
// patterns ("*", "**", "{a,b}").
type File struct {
	Name string
	Path string
}

func (f File) validate() error {
	if f.Path == "" {
		return invalid("File", "path", "must not be empty")
	}
	if !doublestar.ValidatePattern(f.Path) {
		return invalid("File", "path", "malformed pattern %q", f.Path)
	}
	return nil
}

// Match returns the slash-separated paths under root that match f.Path.
func (f File) Match(root string) ([]string, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	matches, err := doublestar.Glob(os.DirFS(root), f.Path, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", f.Path, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Specification returns the document form of the file.
func (f File) Specification() FileSpec {
	return FileSpec{Name: f.Name, Path: f.Path}
}

// Extractor describes how the columns of a Set are pulled from raw files.
type Extractor struct {
	tag       string
	cartridge ExtractorCartridge
	extension ExtractorExtension
	files     []File
}

// NewExtractor returns a validated Extractor.
func NewExtractor(tag string, cartridge ExtractorCartridge, extension ExtractorExtension, files ...File) (Extractor, error) {
	x := Extractor{
		tag:       normalizeTag(tag),
		cartridge: cartridge,
		extension: extension,
		files:     append([]File(nil), files...),
	}
	if err := x.validate(); err != nil {
		return Extractor{}, err
	}
	return x, nil
}

func (x Extractor) validate() error {
	if x.tag == "" {
		return invalid("Extractor", "tag", "must not be empty")
	}
	if !x.cartridge.Valid() {
		return invalid("Extractor", "cartridge", "unknown ExtractorCartridge %q", x.cartridge)
	}
	if !x.extension.Valid() {
		return invalid("Extractor", "extension", "unknown ExtractorExtension %q", x.extension)
	}
	for _, f := range x.files {
		if err := f.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Tag returns the extractor's lower-cased tag.
func (x Extractor) Tag() string { return x.tag }

// Cartridge returns the extractor's cartridge.
func (x Extractor) Cartridge() ExtractorCartridge { return x.cartridge }

// Extension returns the extractor's extension.
func (x Extractor) Extension() ExtractorExtension { return x.extension }

// Files returns a copy of the extractor's file descriptors.
func (x Extractor) Files() []File {
	return append([]File(nil), x.files...)
}

// ResolveFiles expands every file pattern under root and returns the
// de-duplicated, sorted set of matches.
func (x Extractor) ResolveFiles(root string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, f := range x.files {
		matches, err := f.Match(root)
		if err != nil {
			return nil, fmt.Errorf("extractor %s: %w", x.tag, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// Specification returns the document form of the extractor.
func (x Extractor) Specification() ExtractorSpec {
	spec := ExtractorSpec{Tag: x.tag, Cartridge: x.cartridge, Extension: x.extension}
	for _, f := range x.files {
		spec.Files = append(spec.Files, f.Specification())
	}
	return spec
}
