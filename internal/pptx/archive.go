package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"doctrans/internal/files"
)

// archive holds every part of an OOXML package in memory, preserving the
// original part order so the rebuilt file diffs cleanly against the input.
type archive struct {
	names []string
	parts map[string][]byte
}

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func openArchive(inputPath string) (*archive, error) {
	r, err := zip.OpenReader(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open pptx %s: %w", inputPath, err)
	}
	defer r.Close()

	a := &archive{parts: make(map[string][]byte, len(r.File))}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", f.Name, err)
		}
		a.names = append(a.names, f.Name)
		a.parts[f.Name] = data
	}
	return a, nil
}

func (a *archive) part(name string) ([]byte, bool) {
	data, ok := a.parts[name]
	return data, ok
}

func (a *archive) setPart(name string, data []byte) {
	if _, ok := a.parts[name]; !ok {
		a.names = append(a.names, name)
	}
	a.parts[name] = data
}

// slides returns the slide part names in presentation order. Part names are
// not ordered inside the zip; slide7.xml must sort after slide10.xml does not.
func (a *archive) slides() []string {
	type numbered struct {
		name string
		n    int
	}
	var out []numbered
	for name := range a.parts {
		m := slideNameRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		out = append(out, numbered{name, n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].n < out[j].n })
	names := make([]string, len(out))
	for i, s := range out {
		names[i] = s.name
	}
	return names
}

type relationships struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// relatedParts resolves the slide's relationships whose type ends in
// typeSuffix (e.g. "/chart", "/notesSlide") to package part names.
func (a *archive) relatedParts(slideName, typeSuffix string) ([]string, error) {
	relsName := path.Join(path.Dir(slideName), "_rels", path.Base(slideName)+".rels")
	data, ok := a.parts[relsName]
	if !ok {
		return nil, nil
	}
	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("parse %s: %w", relsName, err)
	}
	var out []string
	for _, rel := range rels.Rels {
		if !strings.HasSuffix(rel.Type, typeSuffix) {
			continue
		}
		target := path.Clean(path.Join(path.Dir(slideName), rel.Target))
		if _, ok := a.parts[target]; ok {
			out = append(out, target)
		}
	}
	return out, nil
}

// save rebuilds the package and writes it atomically.
func (a *archive) save(outputPath string) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range a.names {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("create part %s: %w", name, err)
		}
		if _, err := w.Write(a.parts[name]); err != nil {
			return fmt.Errorf("write part %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize pptx: %w", err)
	}
	return files.AtomicWrite(outputPath, buf.Bytes(), 0o644)
}
