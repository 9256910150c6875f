package spreadsheet

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSource(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"bom stripped", append([]byte{0xEF, 0xBB, 0xBF}, "a,b"...), "a,b"},
		{"no bom", []byte("a,b"), "a,b"},
		{"only bom", []byte{0xEF, 0xBB, 0xBF}, ""},
		{"partial bom kept", []byte{0xEF, 0xBB, 'a'}, "??a"},
		{"empty", nil, ""},
		{"invalid byte", []byte{'h', 'e', 0x80, 'l', 'o'}, "he?lo"},
		{"latin1 e acute", []byte("caf\xe9,1"), "caf?,1"},
		{"multibyte kept", []byte("Bengaluru,₹500"), "Bengaluru,₹500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(textSource(bytes.NewReader(tt.input)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestTextSource_RuneSplitAcrossReads(t *testing.T) {
	input := []byte("₹500,é")
	got, err := io.ReadAll(textSource(iotest.OneByteReader(bytes.NewReader(input))))
	require.NoError(t, err)
	assert.Equal(t, "₹500,é", string(got))
}

func TestReadCSV_SanitizesInput(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, "Claim No,City\nC1,Pun\xe9\n"...)
	sheet, err := ReadCSV(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"Claim No", "City"}, sheet.Headers)
	assert.Equal(t, "Pun?", sheet.Rows[0].Cell(1).String())
}

func TestTextSource_TinyReads(t *testing.T) {
	src := textSource(bytes.NewReader([]byte("₹1")))
	var got []byte
	buf := make([]byte, 1)
	for {
		n, err := src.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, "₹1", string(got))
}
