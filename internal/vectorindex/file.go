package vectorindex

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// Binary matrix layout: 4-byte magic, uint32 row count, uint32 dims,
// then rows*dims little-endian float32 values.
var matrixMagic = [4]byte{'M', 'K', 'B', 'V'}

// SaveMatrix writes a float32 matrix in the index file format.
func SaveMatrix(path string, vectors [][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create vector file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.Write(matrixMagic[:]); err != nil {
		return err
	}
	dims := 0
	if len(vectors) > 0 {
		dims = len(vectors[0])
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(vectors))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(dims)); err != nil {
		return err
	}
	for i, row := range vectors {
		if len(row) != dims {
			return fmt.Errorf("row %d has %d dimensions, expected %d", i, len(row), dims)
		}
		for _, x := range row {
			if err := binary.Write(w, binary.LittleEndian, math.Float32bits(x)); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

// LoadMatrix reads a float32 matrix written by SaveMatrix.
func LoadMatrix(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vector file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read vector file header: %w", err)
	}
	if magic != matrixMagic {
		return nil, fmt.Errorf("not a vector matrix file: bad magic %q", magic[:])
	}

	var rows, dims uint32
	if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
		return nil, fmt.Errorf("read row count: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return nil, fmt.Errorf("read dimensionality: %w", err)
	}

	vectors := make([][]float32, rows)
	buf := make([]byte, 4)
	for i := range vectors {
		row := make([]float32, dims)
		for j := range row {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("read vector %d: %w", i, err)
			}
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf))
		}
		vectors[i] = row
	}
	return vectors, nil
}

// LoadIDs reads the parallel node identifier array from a JSON file. The
// array may mix strings and numbers; everything is normalized to string
// form at this boundary.
func LoadIDs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read node id file: %w", err)
	}
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse node id file: %w", err)
	}
	ids := make([]string, len(raw))
	for i, v := range raw {
		id, err := NormalizeID(v)
		if err != nil {
			return nil, fmt.Errorf("node id at position %d: %w", i, err)
		}
		ids[i] = id
	}
	return ids, nil
}

// SaveIDs writes the node identifier array as JSON.
func SaveIDs(path string, ids []string) error {
	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads the vector matrix and its parallel node id array and builds
// an index. A length mismatch between the two files is a load-time error.
func Load(vectorsPath, idsPath string) (*Index, error) {
	vectors, err := LoadMatrix(vectorsPath)
	if err != nil {
		return nil, err
	}
	ids, err := LoadIDs(idsPath)
	if err != nil {
		return nil, err
	}
	return New(vectors, ids)
}
