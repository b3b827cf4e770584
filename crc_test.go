package modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC16_KnownVectors(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want uint16
	}{
		{"read coils", []byte{0x11, 0x01, 0x00, 0x13, 0x00, 0x25}, 0x840E},
		{"read discrete inputs", []byte{0x11, 0x02, 0x00, 0xC4, 0x00, 0x16}, 0xA9BA},
		{"read holding regs", []byte{0x11, 0x03, 0x00, 0x6B, 0x00, 0x03}, 0x8776},
		{"write single coil", []byte{0x11, 0x05, 0x00, 0xAC, 0xFF, 0x00}, 0x8B4E},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CRC16(tc.data))
		})
	}
}

func TestAppendCRC_LowByteFirst(t *testing.T) {
	data := []byte{0x11, 0x01, 0x00, 0x13, 0x00, 0x25}
	out := AppendCRC(append([]byte{}, data...))
	assert.Equal(t, []byte{0x11, 0x01, 0x00, 0x13, 0x00, 0x25, 0x0E, 0x84}, out)
}
