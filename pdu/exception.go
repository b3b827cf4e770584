package pdu

import modbus "github.com/halvardkvam/modbuscore"

const exceptionFlag = uint8(0x80)

// Exception is a decoded Modbus exception response: the slave rejected a
// request with a standard Modbus error code. SlaveIDKnown is false when
// the Exception was constructed from an internal (non-wire) error before
// a slave id had been assigned.
type Exception struct {
	SlaveID      uint8
	SlaveIDKnown bool
	Function     modbus.FunctionCode
	Error        modbus.ErrorCode
}

// IsException reports whether data looks like an exception PDU: the high
// bit of byte 1 (the function code byte) is set. Fewer than 2 bytes never
// count as an exception.
func IsException(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	return data[1]&exceptionFlag != 0
}

// EncodeException serializes e into its three-byte exception PDU form:
// [slave_id, function|0x80, error_code].
func EncodeException(e Exception) []byte {
	slave := uint8(0)
	if e.SlaveIDKnown {
		slave = e.SlaveID
	}
	return []byte{slave, uint8(e.Function) | exceptionFlag, uint8(e.Error)}
}

// DecodeException parses an exception PDU. data must be at least 3 bytes;
// shorter input fails with ErrInvalidByteOrder.
func DecodeException(data []byte) (Exception, error) {
	if len(data) < 3 {
		return Exception{}, modbus.NewErrorNoSlave(modbus.ErrInvalidByteOrder)
	}
	return Exception{
		SlaveID:      data[0],
		SlaveIDKnown: true,
		Function:     modbus.FunctionCode(data[1] &^ exceptionFlag),
		Error:        modbus.ErrorCode(data[2]),
	}, nil
}
