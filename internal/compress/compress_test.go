// internal/compress/compress_test.go
package compress

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func payload(n int) []byte {
	rng := rand.New(rand.NewSource(1))
	b := make([]byte, n)
	for i := range b {
		b[i] = "ACGT\n"[rng.Intn(5)]
	}
	return b
}

func TestRoundTrip(t *testing.T) {
	for _, a := range Algorithms() {
		for _, n := range []int{0, 1, 1000, minlzBlockSize + 17} {
			t.Run(a.String(), func(t *testing.T) {
				want := payload(n)
				var buf bytes.Buffer
				w, err := NewWriter(&buf, a)
				require.NoError(t, err)
				_, err = w.Write(want)
				require.NoError(t, err)
				require.NoError(t, w.Close())

				r, got, err := NewReader(&buf)
				require.NoError(t, err)
				if n > 0 || a == MinLZ || a == None {
					// empty gzip/zstd/snappy streams still carry their magic
					require.Equal(t, a, got)
				}
				data, err := io.ReadAll(r)
				require.NoError(t, err)
				require.NoError(t, r.Close())
				require.Equal(t, len(want), len(data))
				require.True(t, bytes.Equal(want, data))
			})
		}
	}
}

func TestParseAlgorithm(t *testing.T) {
	for _, a := range Algorithms() {
		got, err := ParseAlgorithm(a.String())
		require.NoError(t, err)
		require.Equal(t, a, got)
	}
	got, err := ParseAlgorithm("ZSTD")
	require.NoError(t, err)
	require.Equal(t, Zstd, got)

	_, err = ParseAlgorithm("lzma")
	require.Error(t, err)
}

func TestDetectPlain(t *testing.T) {
	require.Equal(t, None, Detect([]byte(">seq\nACGT\n")))
	require.Equal(t, None, Detect([]byte{5, 1}))
	require.Equal(t, None, Detect(nil))
}
