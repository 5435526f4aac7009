package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lensengine/lens/engine/asset"
)

// objLoaderBackend parses Wavefront OBJ files into importedMesh data.
//
// Supported statements: v, vt, vn, f, o. Faces with more than three corners are
// fan-triangulated. Negative face indices (relative references) are resolved
// against the current attribute counts. Material and smoothing statements
// (mtllib, usemtl, s, g) are ignored.
type objLoaderBackend struct{}

var _ loaderBackend = &objLoaderBackend{}

func newOBJLoaderBackend() loaderBackend {
	return &objLoaderBackend{}
}

func (b *objLoaderBackend) Load(path string) (*importedMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return b.parse(name, f)
}

func (b *objLoaderBackend) LoadReader(name string, r io.Reader) (*importedMesh, error) {
	return b.parse(name, r)
}

// corner identifies a unique position/texcoord/normal triple within a face.
// Indices are resolved and zero-based; -1 marks an absent attribute.
type corner struct {
	p, t, n int
}

func (b *objLoaderBackend) parse(name string, r io.Reader) (*importedMesh, error) {
	var positions [][3]float32
	var texCoords [][2]float32
	var normals [][3]float32

	var vertices []asset.Vertex
	var indices []uint32
	dedup := make(map[corner]uint32)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			p, err := parseFloats3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid vertex position: %w", lineNo, err)
			}
			positions = append(positions, p)

		case "vt":
			if len(fields) < 3 {
				return nil, fmt.Errorf("line %d: invalid texture coordinate: expected at least 2 components", lineNo)
			}
			u, err := parseFloat32(fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid texture coordinate: %w", lineNo, err)
			}
			v, err := parseFloat32(fields[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid texture coordinate: %w", lineNo, err)
			}
			// OBJ texture space has V pointing up; flip to match WebGPU texture space.
			texCoords = append(texCoords, [2]float32{u, 1 - v})

		case "vn":
			n, err := parseFloats3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid vertex normal: %w", lineNo, err)
			}
			normals = append(normals, n)

		case "f":
			corners := fields[1:]
			if len(corners) < 3 {
				return nil, fmt.Errorf("line %d: face has %d corners, need at least 3", lineNo, len(corners))
			}

			faceIndices := make([]uint32, len(corners))
			for i, token := range corners {
				c, err := parseCorner(token, len(positions), len(texCoords), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}

				idx, ok := dedup[c]
				if !ok {
					vertex := asset.Vertex{Position: positions[c.p]}
					if c.t >= 0 {
						vertex.TexCoord = texCoords[c.t]
					}
					if c.n >= 0 {
						vertex.Normal = normals[c.n]
					}
					idx = uint32(len(vertices))
					vertices = append(vertices, vertex)
					dedup[c] = idx
				}
				faceIndices[i] = idx
			}

			// Fan triangulation: (0, i, i+1) for each interior corner.
			for i := 1; i+1 < len(faceIndices); i++ {
				indices = append(indices, faceIndices[0], faceIndices[i], faceIndices[i+1])
			}

		case "o":
			if len(fields) > 1 {
				name = fields[1]
			}

		default:
			// mtllib, usemtl, s, g, and anything else are ignored.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &importedMesh{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
	}, nil
}

// parseCorner parses a face corner token of the form "v", "v/vt", "v//vn", or "v/vt/vn"
// and resolves each reference to a zero-based index. Negative references count back
// from the current end of the attribute list.
func parseCorner(token string, posCount, texCount, normCount int) (corner, error) {
	parts := strings.Split(token, "/")
	if len(parts) > 3 {
		return corner{}, fmt.Errorf("invalid face corner %q", token)
	}

	c := corner{p: -1, t: -1, n: -1}

	p, err := resolveIndex(parts[0], posCount)
	if err != nil {
		return corner{}, fmt.Errorf("invalid face corner %q: %w", token, err)
	}
	c.p = p

	if len(parts) > 1 && parts[1] != "" {
		t, err := resolveIndex(parts[1], texCount)
		if err != nil {
			return corner{}, fmt.Errorf("invalid face corner %q: %w", token, err)
		}
		c.t = t
	}

	if len(parts) > 2 && parts[2] != "" {
		n, err := resolveIndex(parts[2], normCount)
		if err != nil {
			return corner{}, fmt.Errorf("invalid face corner %q: %w", token, err)
		}
		c.n = n
	}

	return c, nil
}

// resolveIndex converts a 1-based OBJ reference (or negative relative reference)
// into a validated zero-based index.
func resolveIndex(s string, count int) (int, error) {
	raw, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}

	var idx int
	switch {
	case raw > 0:
		idx = raw - 1
	case raw < 0:
		idx = count + raw
	default:
		return 0, fmt.Errorf("index 0 is not valid")
	}

	if idx < 0 || idx >= count {
		return 0, fmt.Errorf("index %d out of range (have %d)", raw, count)
	}
	return idx, nil
}

func parseFloats3(fields []string) ([3]float32, error) {
	var out [3]float32
	if len(fields) < 3 {
		return out, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	for i := 0; i < 3; i++ {
		f, err := parseFloat32(fields[i])
		if err != nil {
			return out, err
		}
		out[i] = f
	}
	return out, nil
}

func parseFloat32(s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(f), nil
}
