package modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFunctionCode_Classification(t *testing.T) {
	cases := []struct {
		fc       FunctionCode
		opClass  OpClass
		regClass RegisterClass
		isBit    bool
	}{
		{ReadCoils, OpRead, OutputCoils, true},
		{ReadDiscreteInputs, OpRead, InputContacts, true},
		{ReadHoldingRegisters, OpRead, HoldingRegisters, false},
		{ReadInputRegisters, OpRead, InputRegisters, false},
		{WriteSingleCoil, OpWriteSingle, OutputCoils, true},
		{WriteSingleRegister, OpWriteSingle, HoldingRegisters, false},
		{WriteMultipleCoils, OpWriteMultiple, OutputCoils, true},
		{WriteMultipleRegisters, OpWriteMultiple, HoldingRegisters, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.opClass, tc.fc.OpClass(), tc.fc.String())
		assert.Equal(t, tc.regClass, tc.fc.RegisterClass(), tc.fc.String())
		assert.Equal(t, tc.isBit, tc.fc.IsBitFunction(), tc.fc.String())
		assert.True(t, tc.fc.Defined())
	}
}

func TestFunctionCode_Undefined(t *testing.T) {
	fc := FunctionCode(0x99)
	assert.False(t, fc.Defined())
	assert.Equal(t, OpUndefined, fc.OpClass())
	assert.Equal(t, RegisterClassUndefined, fc.RegisterClass())
}

func TestErrorCode_IsStandard(t *testing.T) {
	assert.True(t, ErrIllegalFunction.IsStandard())
	assert.True(t, ErrGatewayTargetDeviceFailedToRespond.IsStandard())
	assert.False(t, ErrInvalidCRC.IsStandard())
	assert.False(t, ErrTimeout.IsStandard())
}
