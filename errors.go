package modbus

import "fmt"

// Error is the single structured error type used throughout this module
// and its rtu/tcp/pdu subpackages. It carries the ErrorCode that
// classifies the failure plus, where known, the slave id and function
// code the failure pertains to.
//
// Use errors.Is/errors.As against the sentinel wrapper values below, or
// inspect Kind directly.
type Error struct {
	Kind ErrorCode

	// SlaveID is the slave id the error pertains to. Valid only when
	// SlaveIDKnown is true.
	SlaveID      uint8
	SlaveIDKnown bool

	// Function is the function code the error pertains to. Undefined
	// when not known.
	Function FunctionCode
}

// NewError constructs an Error with a known slave id.
func NewError(kind ErrorCode, slaveID uint8, function FunctionCode) *Error {
	return &Error{Kind: kind, SlaveID: slaveID, SlaveIDKnown: true, Function: function}
}

// NewErrorNoSlave constructs an Error for a failure detected before any
// slave id could be parsed out of the wire data.
func NewErrorNoSlave(kind ErrorCode) *Error {
	return &Error{Kind: kind}
}

// Error implements the error interface. Its form is:
//
//	"Error on slave <id|Unknown> - <kind text> ( on function: <fn text> )"
//
// The function-code parenthetical is omitted when Function is Undefined.
func (e *Error) Error() string {
	slave := "Unknown"
	if e.SlaveIDKnown {
		slave = fmt.Sprintf("%d", e.SlaveID)
	}
	if e.Function == Undefined {
		return fmt.Sprintf("Error on slave %s - %s", slave, e.Kind)
	}
	return fmt.Sprintf("Error on slave %s - %s ( on function: %s )", slave, e.Kind, e.Function)
}

// Is supports errors.Is matching against a sentinel *Error whose Kind is
// set and whose SlaveID/Function are zero-valued (i.e. errors.Is(err,
// ErrTimeoutErr) matches any Error with Kind == ErrTimeout, regardless of
// which slave/function it names).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors for use with errors.Is, one per library-internal error
// kind. Matching ignores SlaveID/Function, see (*Error).Is.
var (
	ErrInvalidCRCErr               = &Error{Kind: ErrInvalidCRC}
	ErrInvalidByteOrderErr         = &Error{Kind: ErrInvalidByteOrder}
	ErrInvalidMessageIDErr         = &Error{Kind: ErrInvalidMessageID}
	ErrProtocolErrorErr            = &Error{Kind: ErrProtocolError}
	ErrConnectionClosedErr         = &Error{Kind: ErrConnectionClosed}
	ErrTimeoutErr                  = &Error{Kind: ErrTimeout}
	ErrNumberOfRegistersInvalidErr = &Error{Kind: ErrNumberOfRegistersInvalid}
	ErrNumberOfValuesInvalidErr    = &Error{Kind: ErrNumberOfValuesInvalid}
	ErrInputDataLengthInvalidErr   = &Error{Kind: ErrInputDataLengthInvalid}
	ErrWrongCellVariantErr         = &Error{Kind: ErrWrongCellVariant}
)

// AsProtocolError normalizes any error produced while decoding a PDU into
// an *Error. An *Error is passed through unchanged; anything else
// (including a recovered panic message wrapped as an error, or an
// out-of-range slice access) is folded into ErrInvalidByteOrder. This
// mirrors the reference implementation's rule that no unstructured
// failure may leak out of the decoder.
func AsProtocolError(err error) *Error {
	if err == nil {
		return nil
	}
	if me, ok := err.(*Error); ok {
		return me
	}
	return NewErrorNoSlave(ErrInvalidByteOrder)
}
