package modbus

import "fmt"

// FunctionCode is a Modbus function code. The eight standard read/write
// codes are defined below; any other value is kept as is and reports
// Defined() == false.
type FunctionCode uint8

// Standard Modbus function codes.
const (
	Undefined FunctionCode = 0x00

	ReadCoils              FunctionCode = 0x01
	ReadDiscreteInputs     FunctionCode = 0x02
	ReadHoldingRegisters   FunctionCode = 0x03
	ReadInputRegisters     FunctionCode = 0x04
	WriteSingleCoil        FunctionCode = 0x05
	WriteSingleRegister    FunctionCode = 0x06
	WriteMultipleCoils     FunctionCode = 0x0F
	WriteMultipleRegisters FunctionCode = 0x10
)

// OpClass classifies a function code by the shape of operation it performs.
type OpClass uint8

// Operation classes.
const (
	OpUndefined OpClass = iota
	OpRead
	OpWriteSingle
	OpWriteMultiple
)

// RegisterClass classifies a function code by the kind of addressable
// value it operates on.
type RegisterClass uint8

// Register classes.
const (
	RegisterClassUndefined RegisterClass = iota
	OutputCoils
	InputContacts
	HoldingRegisters
	InputRegisters
)

// OpClass returns the operation class for the function code, or
// OpUndefined if the code is not one of the eight standard codes.
func (f FunctionCode) OpClass() OpClass {
	switch f {
	case ReadCoils, ReadDiscreteInputs, ReadHoldingRegisters, ReadInputRegisters:
		return OpRead
	case WriteSingleCoil, WriteSingleRegister:
		return OpWriteSingle
	case WriteMultipleCoils, WriteMultipleRegisters:
		return OpWriteMultiple
	default:
		return OpUndefined
	}
}

// RegisterClass returns the register class for the function code, or
// RegisterClassUndefined if the code is not one of the eight standard codes.
func (f FunctionCode) RegisterClass() RegisterClass {
	switch f {
	case ReadCoils, WriteSingleCoil, WriteMultipleCoils:
		return OutputCoils
	case ReadDiscreteInputs:
		return InputContacts
	case ReadHoldingRegisters, WriteSingleRegister, WriteMultipleRegisters:
		return HoldingRegisters
	case ReadInputRegisters:
		return InputRegisters
	default:
		return RegisterClassUndefined
	}
}

// IsBitFunction reports whether the function code's register class deals
// in coils/discrete inputs (bit-packed) rather than 16-bit registers.
func (f FunctionCode) IsBitFunction() bool {
	switch f.RegisterClass() {
	case OutputCoils, InputContacts:
		return true
	default:
		return false
	}
}

// Defined reports whether the code is one of the eight standard function
// codes this package knows how to encode/decode.
func (f FunctionCode) Defined() bool {
	return f.OpClass() != OpUndefined
}

// String returns a short human-readable name for the function code.
func (f FunctionCode) String() string {
	switch f {
	case ReadCoils:
		return "ReadCoils"
	case ReadDiscreteInputs:
		return "ReadDiscreteInputs"
	case ReadHoldingRegisters:
		return "ReadHoldingRegisters"
	case ReadInputRegisters:
		return "ReadInputRegisters"
	case WriteSingleCoil:
		return "WriteSingleCoil"
	case WriteSingleRegister:
		return "WriteSingleRegister"
	case WriteMultipleCoils:
		return "WriteMultipleCoils"
	case WriteMultipleRegisters:
		return "WriteMultipleRegisters"
	case Undefined:
		return "Undefined"
	default:
		return fmt.Sprintf("FunctionCode(0x%02X)", uint8(f))
	}
}

// ErrorCode enumerates both the standard, wire-serializable Modbus
// exception codes (0x01-0x0B) and this library's internal, non-wire
// error kinds used to report framing, I/O, and timeout conditions.
type ErrorCode uint8

// Standard Modbus exception codes (serializable onto the wire).
const (
	ErrIllegalFunction                    ErrorCode = 0x01
	ErrIllegalDataAddress                 ErrorCode = 0x02
	ErrIllegalDataValue                   ErrorCode = 0x03
	ErrSlaveDeviceFailure                 ErrorCode = 0x04
	ErrAcknowledge                        ErrorCode = 0x05
	ErrSlaveDeviceBusy                    ErrorCode = 0x06
	ErrNegativeAcknowledge                ErrorCode = 0x07
	ErrMemoryParityError                  ErrorCode = 0x08
	ErrGatewayPathUnavailable             ErrorCode = 0x0A
	ErrGatewayTargetDeviceFailedToRespond ErrorCode = 0x0B
)

// Library-internal error kinds. These are never placed on the wire.
const (
	ErrInvalidCRC ErrorCode = 0x80 + iota
	ErrInvalidByteOrder
	ErrInvalidMessageID
	ErrProtocolError
	ErrConnectionClosed
	ErrTimeout
	ErrNumberOfRegistersInvalid
	ErrNumberOfValuesInvalid
	ErrInputDataLengthInvalid
	ErrWrongCellVariant
)

// IsStandard reports whether the error code is one of the standard
// Modbus exception codes that may be serialized onto the wire.
func (e ErrorCode) IsStandard() bool {
	switch e {
	case ErrIllegalFunction, ErrIllegalDataAddress, ErrIllegalDataValue,
		ErrSlaveDeviceFailure, ErrAcknowledge, ErrSlaveDeviceBusy,
		ErrNegativeAcknowledge, ErrMemoryParityError,
		ErrGatewayPathUnavailable, ErrGatewayTargetDeviceFailedToRespond:
		return true
	default:
		return false
	}
}

// String returns the human-readable text for the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrIllegalFunction:
		return "illegal function"
	case ErrIllegalDataAddress:
		return "illegal data address"
	case ErrIllegalDataValue:
		return "illegal data value"
	case ErrSlaveDeviceFailure:
		return "slave device failure"
	case ErrAcknowledge:
		return "acknowledge"
	case ErrSlaveDeviceBusy:
		return "slave device busy"
	case ErrNegativeAcknowledge:
		return "negative acknowledge"
	case ErrMemoryParityError:
		return "memory parity error"
	case ErrGatewayPathUnavailable:
		return "gateway path unavailable"
	case ErrGatewayTargetDeviceFailedToRespond:
		return "gateway target device failed to respond"
	case ErrInvalidCRC:
		return "invalid CRC"
	case ErrInvalidByteOrder:
		return "invalid byte order"
	case ErrInvalidMessageID:
		return "invalid message id"
	case ErrProtocolError:
		return "protocol error"
	case ErrConnectionClosed:
		return "connection closed"
	case ErrTimeout:
		return "timeout"
	case ErrNumberOfRegistersInvalid:
		return "number of registers invalid"
	case ErrNumberOfValuesInvalid:
		return "number of values invalid"
	case ErrInputDataLengthInvalid:
		return "input data length invalid"
	case ErrWrongCellVariant:
		return "wrong cell variant"
	default:
		return fmt.Sprintf("ErrorCode(0x%02X)", uint8(e))
	}
}
