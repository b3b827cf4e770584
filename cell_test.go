package modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCell_CoilRegisterCoercion(t *testing.T) {
	var fromReg Cell = NewRegister(5)
	assert.True(t, fromReg.IsRegister())
	assert.True(t, fromReg.Coil()) // coerces: nonzero register -> true
	assert.True(t, fromReg.IsCoil())

	var fromCoilTrue Cell = NewCoil(true)
	assert.Equal(t, uint16(1), fromCoilTrue.Register())
	assert.True(t, fromCoilTrue.IsRegister())

	var fromCoilFalse Cell = NewCoil(false)
	assert.Equal(t, uint16(0), fromCoilFalse.Register())
}

func TestCell_ConstAccessorsFailOnMismatch(t *testing.T) {
	reg := NewRegister(42)
	_, err := reg.CoilValue()
	assert.ErrorIs(t, err, ErrWrongCellVariantErr)

	v, err := reg.RegisterValue()
	assert.NoError(t, err)
	assert.Equal(t, uint16(42), v)

	coil := NewCoil(true)
	_, err = coil.RegisterValue()
	assert.ErrorIs(t, err, ErrWrongCellVariantErr)
}

func TestCell_String(t *testing.T) {
	cases := []struct {
		cell Cell
		want string
	}{
		{NewCoil(true), "true"},
		{NewCoil(false), "false"},
		{NewRegister(0x0102), "258"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.cell.String())
	}
}

func TestCoilsToCellsAndBack(t *testing.T) {
	// byte 0xCD = 1,0,1,1,0,0,1,1 (LSB first), matching the write-multiple-coils wire payload
	data := []byte{0xCD, 0x01}
	cells := UnpackCoils(10, data)

	want := []bool{true, false, true, true, false, false, true, true, true, false}
	for i, w := range want {
		got, err := cells[i].CoilValue()
		if err != nil {
			t.Fatalf("cell %d: %v", i, err)
		}
		assert.Equal(t, w, got, "coil %d", i)
	}

	back := PackCoils(cells)
	assert.Equal(t, data, back)
}

func TestByteCount(t *testing.T) {
	assert.Equal(t, uint16(0), byteCount(0))
	assert.Equal(t, uint16(1), byteCount(1))
	assert.Equal(t, uint16(1), byteCount(8))
	assert.Equal(t, uint16(2), byteCount(9))
	assert.Equal(t, uint16(5), byteCount(40))
}
