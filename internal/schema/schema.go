// Package schema loads dataflow declarations from YAML and builds the
// corresponding provenance.Dataflow.
package schema

import (
	"bytes"
	"fmt"
	"os"

	"github.com/me/dfanalyzer/pkg/provenance"
	"gopkg.in/yaml.v3"
)

// Declaration is the YAML form of a dataflow schema.
type Declaration struct {
	Dataflow        string                      `yaml:"dataflow"`
	Transformations []TransformationDeclaration `yaml:"transformations"`
}

// TransformationDeclaration declares one pipeline step. After names an
// earlier step whose output set is spliced into this step's sets.
type TransformationDeclaration struct {
	Tag        string                 `yaml:"tag"`
	After      string                 `yaml:"after,omitempty"`
	Input      []AttributeDeclaration `yaml:"input"`
	Output     []AttributeDeclaration `yaml:"output"`
	Extractors []ExtractorDeclaration `yaml:"extractors,omitempty"`
}

// AttributeDeclaration is one column of an input or output set.
type AttributeDeclaration struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// ExtractorDeclaration attaches an extractor to the step's output set.
type ExtractorDeclaration struct {
	Tag       string            `yaml:"tag"`
	Cartridge string            `yaml:"cartridge"`
	Extension string            `yaml:"extension"`
	Files     []FileDeclaration `yaml:"files,omitempty"`
}

// FileDeclaration names a raw file or glob pattern.
type FileDeclaration struct {
	Name string `yaml:"name,omitempty"`
	Path string `yaml:"path"`
}

// Load reads and parses the declaration file at path.
func Load(path string) (*Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read declaration: %w", err)
	}
	decl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return decl, nil
}

// Parse decodes a YAML declaration. Unknown fields are rejected.
func Parse(data []byte) (*Declaration, error) {
	var decl Declaration
	if err := decodeStrict(data, &decl); err != nil {
		return nil, fmt.Errorf("parse declaration: %w", err)
	}
	if decl.Dataflow == "" {
		return nil, fmt.Errorf("parse declaration: dataflow tag is required")
	}
	return &decl, nil
}

// Build constructs the Dataflow, chaining steps through TF in declaration
// order.
func (d *Declaration) Build() (*provenance.Dataflow, error) {
	df, err := provenance.NewDataflow(d.Dataflow)
	if err != nil {
		return nil, err
	}

	outputs := make(map[string]provenance.Set)
	for i, td := range d.Transformations {
		if td.Tag == "" {
			return nil, fmt.Errorf("transformation %d: tag is required", i)
		}
		in, err := attributes(td.Input)
		if err != nil {
			return nil, fmt.Errorf("transformation %s input: %w", td.Tag, err)
		}
		out, err := attributes(td.Output)
		if err != nil {
			return nil, fmt.Errorf("transformation %s output: %w", td.Tag, err)
		}

		var prev *provenance.Set
		if td.After != "" {
			s, ok := outputs[provenance.OutputTag(td.After)]
			if !ok {
				return nil, fmt.Errorf("transformation %s: after %q does not name an earlier transformation", td.Tag, td.After)
			}
			s = s.DependsOn(td.After)
			prev = &s
		}

		tf, _, outSet, err := provenance.TF(nil, td.Tag, in, out, prev)
		if err != nil {
			return nil, err
		}
		if len(td.Extractors) > 0 {
			extractors, err := extractors(td.Extractors)
			if err != nil {
				return nil, fmt.Errorf("transformation %s: %w", td.Tag, err)
			}
			if outSet, err = outSet.WithExtractors(extractors...); err != nil {
				return nil, fmt.Errorf("transformation %s: %w", td.Tag, err)
			}
			if tf, err = replaceSet(tf, outSet); err != nil {
				return nil, fmt.Errorf("transformation %s: %w", td.Tag, err)
			}
		}
		if err := df.AddTransformation(tf); err != nil {
			return nil, err
		}
		outputs[outSet.Tag()] = outSet
	}
	return df, nil
}

// replaceSet rebuilds tf with s in place of the set carrying the same tag.
func replaceSet(tf *provenance.Transformation, s provenance.Set) (*provenance.Transformation, error) {
	sets := tf.Sets()
	for i := range sets {
		if sets[i].Tag() == s.Tag() && sets[i].Type() == s.Type() {
			sets[i] = s
		}
	}
	return provenance.NewTransformation(tf.Tag(), sets...)
}

func attributes(decls []AttributeDeclaration) ([]provenance.Attribute, error) {
	out := make([]provenance.Attribute, 0, len(decls))
	for _, ad := range decls {
		typ, err := provenance.ParseAttributeType(ad.Type)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", ad.Name, err)
		}
		a, err := provenance.NewAttribute(ad.Name, typ)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func extractors(decls []ExtractorDeclaration) ([]provenance.Extractor, error) {
	out := make([]provenance.Extractor, 0, len(decls))
	for _, xd := range decls {
		cartridge, err := provenance.ParseExtractorCartridge(xd.Cartridge)
		if err != nil {
			return nil, err
		}
		extension, err := provenance.ParseExtractorExtension(xd.Extension)
		if err != nil {
			return nil, err
		}
		files := make([]provenance.File, len(xd.Files))
		for i, fd := range xd.Files {
			files[i] = provenance.File{Name: fd.Name, Path: fd.Path}
		}
		x, err := provenance.NewExtractor(xd.Tag, cartridge, extension, files...)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(v)
}
