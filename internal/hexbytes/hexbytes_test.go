package hexbytes

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{"spaced", "90 90", []byte{0x90, 0x90}, false},
		{"compact", "b801000000", []byte{0xb8, 0x01, 0x00, 0x00, 0x00}, false},
		{"prefixed with commas", "0x75, 0x0E", []byte{0x75, 0x0e}, false},
		{"odd digits", "909", nil, true},
		{"invalid digit", "zz", nil, true},
		{"empty", "  ", nil, true},
		{"stray prefix", "90 0x", nil, true},
		{"prefix inside token", "900x90", nil, true},
		{"tabs and compact prefixed token", "0x9090\tcc", []byte{0x90, 0x90, 0xcc}, false},
		{"odd token", "90 9 0", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidHex))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInvalidByteMessage(t *testing.T) {
	_, err := Parse("90 zz")
	assert.ErrorContains(t, err, "invalid hex byte 'zz'")
}

func TestParseStrayPrefixMessage(t *testing.T) {
	_, err := Parse("90 0x")
	assert.ErrorContains(t, err, "no digits in '0x'")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "90 0f ff", Format([]byte{0x90, 0x0f, 0xff}))
	assert.Equal(t, "", Format(nil))
}

func TestParseAddress(t *testing.T) {
	v, err := ParseAddress("0x1010")
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x1010), v)

	v, err = ParseAddress("2000")
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x2000), v)

	v, err = ParseAddress("#16")
	assert.NoError(t, err)
	assert.Equal(t, uint32(16), v)

	_, err = ParseAddress("xyz")
	assert.Error(t, err)
	_, err = ParseAddress("0x100000000")
	assert.Error(t, err)
}
