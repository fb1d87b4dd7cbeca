package asset

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

type objCorner struct {
	v, vt, vn int
}

// ParseOBJ decodes Wavefront OBJ text. Polygons are fan-triangulated and
// corners sharing position, texture and normal indices share a vertex.
// Negative indices count back from the end, as the format allows.
func ParseOBJ(data []byte) (MeshData, error) {
	var (
		positions [][3]float32
		normals   [][3]float32
		uvs       [][2]float32
		out       MeshData
		seen      = map[objCorner]uint32{}
	)

	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			p, err := parseFloats(fields[1:], 3)
			if err != nil {
				return MeshData{}, fmt.Errorf("obj line %d: %w", lineNo, err)
			}
			positions = append(positions, [3]float32{p[0], p[1], p[2]})
		case "vn":
			n, err := parseFloats(fields[1:], 3)
			if err != nil {
				return MeshData{}, fmt.Errorf("obj line %d: %w", lineNo, err)
			}
			normals = append(normals, [3]float32{n[0], n[1], n[2]})
		case "vt":
			t, err := parseFloats(fields[1:], 2)
			if err != nil {
				return MeshData{}, fmt.Errorf("obj line %d: %w", lineNo, err)
			}
			uvs = append(uvs, [2]float32{t[0], t[1]})
		case "f":
			if len(fields) < 4 {
				return MeshData{}, fmt.Errorf("obj line %d: face needs at least 3 corners", lineNo)
			}
			face := make([]uint32, 0, len(fields)-1)
			for _, f := range fields[1:] {
				c, err := parseCorner(f, len(positions), len(uvs), len(normals))
				if err != nil {
					return MeshData{}, fmt.Errorf("obj line %d: %w", lineNo, err)
				}
				idx, ok := seen[c]
				if !ok {
					vert := Vertex{Position: positions[c.v]}
					if c.vt >= 0 {
						vert.UV = uvs[c.vt]
					}
					if c.vn >= 0 {
						vert.Normal = normals[c.vn]
					}
					idx = uint32(len(out.Vertices))
					out.Vertices = append(out.Vertices, vert)
					seen[c] = idx
				}
				face = append(face, idx)
			}
			for i := 1; i+1 < len(face); i++ {
				out.Indices = append(out.Indices, face[0], face[i], face[i+1])
			}
		default:
			// o, g, s, usemtl, mtllib: grouping and materials come from the mesh file
		}
	}
	if err := sc.Err(); err != nil {
		return MeshData{}, err
	}
	if len(out.Indices) == 0 {
		return MeshData{}, fmt.Errorf("obj has no faces")
	}
	return out, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseCorner reads "v", "v/vt", "v//vn" or "v/vt/vn" into zero-based
// indices; a missing component is -1.
func parseCorner(s string, nv, nvt, nvn int) (objCorner, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return objCorner{}, fmt.Errorf("bad face corner %q", s)
	}
	c := objCorner{v: -1, vt: -1, vn: -1}
	counts := []int{nv, nvt, nvn}
	dst := []*int{&c.v, &c.vt, &c.vn}
	for i, p := range parts {
		if p == "" {
			if i == 0 {
				return objCorner{}, fmt.Errorf("bad face corner %q", s)
			}
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return objCorner{}, fmt.Errorf("bad face corner %q: %w", s, err)
		}
		switch {
		case n > 0:
			n--
		case n < 0:
			n += counts[i]
		default:
			return objCorner{}, fmt.Errorf("face index 0 in %q", s)
		}
		if n < 0 || n >= counts[i] {
			return objCorner{}, fmt.Errorf("face index out of range in %q", s)
		}
		*dst[i] = n
	}
	return c, nil
}
