package legacy

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/neuron/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSnapshot = `{
	"neuronDemandasMestra": {
		"200": {"numero": "200", "prazo": "10/11/2026", "situacao": "Prorrogada", "responsaveis": ["Ana"], "possivelobservacao": true},
		"100": {"prazo": "05/11/2026", "dataCadastro": "01/10/2026", "possivelRespondida": true}
	},
	"neuronDemandasConcluidas": ["100"]
}`

func TestDecode_PlainJSON(t *testing.T) {
	snap, err := Decode(strings.NewReader(sampleSnapshot))
	require.NoError(t, err)

	assert.Len(t, snap.Demands, 2)
	assert.Equal(t, []string{"100"}, snap.Completed)

	list := snap.DemandList()
	require.Len(t, list, 2)
	assert.Equal(t, "100", list[0].Numero, "numero falls back to the map key")
	assert.True(t, list[0].PossivelRespondida)
	assert.Equal(t, []string{}, list[0].Responsaveis)
	assert.Equal(t, "200", list[1].Numero)
	assert.True(t, list[1].PossivelObservacao)
	assert.Equal(t, []string{"Ana"}, list[1].Responsaveis)
}

func TestDemandList_OneDemandPerNumero(t *testing.T) {
	cases := []struct {
		name    string
		demands map[string]Record
		want    []string
		prazo0  string
	}{
		{
			name: "explicit numero collides with another key",
			demands: map[string]Record{
				"A": {Numero: "X", Prazo: "01/11/2026"},
				"X": {Numero: "X", Prazo: "02/11/2026"},
			},
			want:   []string{"X"},
			prazo0: "01/11/2026",
		},
		{
			name: "key fallback collides with explicit numero",
			demands: map[string]Record{
				"100": {Prazo: "03/11/2026"},
				"7":   {Numero: "100", Prazo: "04/11/2026"},
			},
			want:   []string{"100"},
			prazo0: "03/11/2026",
		},
		{
			name: "blank key and numero dropped",
			demands: map[string]Record{
				"":  {Prazo: "05/11/2026"},
				"1": {Numero: "1", Prazo: "06/11/2026"},
			},
			want:   []string{"1"},
			prazo0: "06/11/2026",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			list := (&Snapshot{Demands: tc.demands}).DemandList()
			numeros := make([]string, 0, len(list))
			for _, d := range list {
				numeros = append(numeros, d.Numero)
			}
			assert.Equal(t, tc.want, numeros)
			require.NotEmpty(t, list)
			assert.Equal(t, tc.prazo0, list[0].Prazo)
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	snap, err := Decode(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, snap.Demands)
	assert.Empty(t, snap.Completed)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"neuronDemandasMestra": [`))
	assert.Error(t, err)
}

func TestEncodeDecode_Compressed(t *testing.T) {
	in := FromDemands(
		[]*domain.Demand{{Numero: "7", Prazo: "01/12/2026", Responsaveis: []string{"Bia"}}},
		[]domain.CompletionMark{{Numero: "7", Timestamp: time.Now()}},
	)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, in, true))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), zstdMagic))

	out, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, in.Demands, out.Demands)
	assert.Equal(t, []string{"7"}, out.Completed)
}

func TestEncode_PlainUsesLegacyKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FromDemands(nil, nil), false))
	assert.Contains(t, buf.String(), DemandsKey)
	assert.Contains(t, buf.String(), CompletedKey)
}

func TestFileSource_MissingFileIsEmpty(t *testing.T) {
	src := FileSource{Path: filepath.Join(t.TempDir(), "absent.json")}
	snap, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Demands)
}

func TestFileSource_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleSnapshot), 0o600))

	snap, err := FileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Demands, 2)
}

func TestFileSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FileSource{Path: "whatever.json"}.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemorySource(t *testing.T) {
	snap, err := MemorySource{}.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Demands)

	boom := errors.New("boom")
	_, err = MemorySource{Err: boom}.Load(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestIsCompressedPath(t *testing.T) {
	assert.True(t, IsCompressedPath("backup.json.zst"))
	assert.True(t, IsCompressedPath("backup.ZSTD"))
	assert.False(t, IsCompressedPath("backup.json"))
}
