// Package legacy reads and writes the flat key-value snapshot the extension
// kept in chrome.storage.local before demands moved to an indexed store.
package legacy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alexanderramin/neuron/internal/domain"
	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

// Storage keys of the two legacy collections.
const (
	DemandsKey   = "neuronDemandasMestra"
	CompletedKey = "neuronDemandasConcluidas"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Record is a demand in its legacy JSON shape.
type Record struct {
	Numero             string   `json:"numero"`
	Prazo              string   `json:"prazo"`
	DataCadastro       string   `json:"dataCadastro"`
	Situacao           string   `json:"situacao"`
	Responsaveis       []string `json:"responsaveis"`
	PossivelRespondida bool     `json:"possivelRespondida"`
	PossivelObservacao bool     `json:"possivelobservacao"`
	Href               string   `json:"href,omitempty"`
}

// Snapshot is the legacy store: demands keyed by numero and the list of
// numeros the user marked done.
type Snapshot struct {
	Demands   map[string]Record `json:"neuronDemandasMestra"`
	Completed []string          `json:"neuronDemandasConcluidas"`
}

// Source yields the legacy snapshot. A source with nothing stored returns
// an empty snapshot, not an error.
type Source interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// DemandList converts the snapshot's demands to domain values ordered by map
// key. A record without its own numero takes the map key. When several
// records resolve to the same numero the one under the smallest key wins, and
// records left with no numero at all are dropped, so every returned demand
// maps to exactly one stored row.
func (s *Snapshot) DemandList() []*domain.Demand {
	keys := make([]string, 0, len(s.Demands))
	for k := range s.Demands {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*domain.Demand, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		d := s.Demands[k].Demand(k)
		if strings.TrimSpace(d.Numero) == "" {
			continue
		}
		if _, dup := seen[d.Numero]; dup {
			continue
		}
		seen[d.Numero] = struct{}{}
		out = append(out, d)
	}
	return out
}

// Demand converts r, taking key as the numero when r has none.
func (r Record) Demand(key string) *domain.Demand {
	numero := r.Numero
	if strings.TrimSpace(numero) == "" {
		numero = key
	}
	responsaveis := r.Responsaveis
	if responsaveis == nil {
		responsaveis = []string{}
	}
	return &domain.Demand{
		Numero:             numero,
		Prazo:              r.Prazo,
		DataCadastro:       r.DataCadastro,
		Situacao:           r.Situacao,
		Responsaveis:       responsaveis,
		PossivelRespondida: r.PossivelRespondida,
		PossivelObservacao: r.PossivelObservacao,
		Href:               r.Href,
	}
}

// RecordOf is the legacy shape of d.
func RecordOf(d *domain.Demand) Record {
	return Record{
		Numero:             d.Numero,
		Prazo:              d.Prazo,
		DataCadastro:       d.DataCadastro,
		Situacao:           d.Situacao,
		Responsaveis:       d.Responsaveis,
		PossivelRespondida: d.PossivelRespondida,
		PossivelObservacao: d.PossivelObservacao,
		Href:               d.Href,
	}
}

// FromDemands builds a snapshot from stored demands and completion marks.
func FromDemands(demands []*domain.Demand, completed []domain.CompletionMark) *Snapshot {
	s := &Snapshot{
		Demands:   make(map[string]Record, len(demands)),
		Completed: make([]string, 0, len(completed)),
	}
	for _, d := range demands {
		s.Demands[d.Numero] = RecordOf(d)
	}
	for _, m := range completed {
		s.Completed = append(s.Completed, m.Numero)
	}
	return s
}

// Decode reads a snapshot, transparently decompressing zstd input.
func Decode(r io.Reader) (*Snapshot, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	if bytes.HasPrefix(raw, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer dec.Close()
		if raw, err = dec.DecodeAll(raw, nil); err != nil {
			return nil, fmt.Errorf("decompressing snapshot: %w", err)
		}
	}

	snap := &Snapshot{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, snap); err != nil {
			return nil, fmt.Errorf("decoding snapshot: %w", err)
		}
	}
	if snap.Demands == nil {
		snap.Demands = map[string]Record{}
	}
	if snap.Completed == nil {
		snap.Completed = []string{}
	}
	return snap, nil
}

// Encode writes s as JSON, zstd-compressed when compress is set.
func Encode(w io.Writer, s *Snapshot, compress bool) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return fmt.Errorf("creating zstd encoder: %w", err)
		}
		raw = enc.EncodeAll(raw, make([]byte, 0, len(raw)/2))
		if err := enc.Close(); err != nil {
			return fmt.Errorf("closing zstd encoder: %w", err)
		}
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// FileSource loads a snapshot file. A missing file is an empty store.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Decode(bytes.NewReader(nil))
		}
		return nil, fmt.Errorf("opening legacy snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// IsCompressedPath reports whether path names a zstd file by extension.
func IsCompressedPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".zst" || ext == ".zstd"
}

// MemorySource serves a fixed snapshot.
type MemorySource struct {
	Snapshot *Snapshot
	Err      error
}

func (s MemorySource) Load(context.Context) (*Snapshot, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Snapshot == nil {
		return &Snapshot{Demands: map[string]Record{}, Completed: []string{}}, nil
	}
	return s.Snapshot, nil
}
