package pdu

import (
	"encoding/binary"

	modbus "github.com/halvardkvam/modbuscore"
)

// Response is a decoded Modbus response PDU.
type Response struct {
	SlaveID  uint8
	Function modbus.FunctionCode
	Address  uint16
	Quantity uint16
	Values   []modbus.Cell
}

// EncodeResponse serializes a Response into its wire PDU form.
//
// Byte layout by function:
//
//	Read coils/discrete (0x01,0x02):   slave fn byteCount coils...
//	Read holding/input (0x03,0x04):    slave fn byteCount regs...
//	WriteSingleCoil/Register:          slave fn addrHi addrLo valHi valLo (echo of request)
//	WriteMultiple(Coils|Registers):    slave fn addrHi addrLo qtyHi qtyLo (echo of request)
func EncodeResponse(r Response) ([]byte, error) {
	switch r.Function.OpClass() {
	case modbus.OpRead:
		return encodeReadResponse(r)
	case modbus.OpWriteSingle:
		return encodeWriteSingleResponse(r)
	case modbus.OpWriteMultiple:
		return encodeWriteMultipleResponse(r)
	default:
		return nil, modbus.NewError(modbus.ErrInvalidByteOrder, r.SlaveID, r.Function)
	}
}

func encodeReadResponse(r Response) ([]byte, error) {
	if len(r.Values) == 0 {
		return nil, modbus.NewError(modbus.ErrNumberOfValuesInvalid, r.SlaveID, r.Function)
	}
	if r.Function.IsBitFunction() {
		data := modbus.PackCoils(r.Values)
		out := make([]byte, 2+1+len(data))
		out[0] = r.SlaveID
		out[1] = uint8(r.Function)
		out[2] = uint8(len(data))
		copy(out[3:], data)
		return out, nil
	}

	byteCount := len(r.Values) * 2
	if byteCount > 253 {
		return nil, modbus.NewError(modbus.ErrNumberOfRegistersInvalid, r.SlaveID, r.Function)
	}
	out := make([]byte, 3+byteCount)
	out[0] = r.SlaveID
	out[1] = uint8(r.Function)
	out[2] = uint8(byteCount)
	for i, cell := range r.Values {
		v, err := cell.RegisterValue()
		if err != nil {
			return nil, modbus.NewError(modbus.ErrInvalidByteOrder, r.SlaveID, r.Function)
		}
		binary.BigEndian.PutUint16(out[3+i*2:5+i*2], v)
	}
	return out, nil
}

func encodeWriteSingleResponse(r Response) ([]byte, error) {
	if len(r.Values) != 1 {
		return nil, modbus.NewError(modbus.ErrNumberOfValuesInvalid, r.SlaveID, r.Function)
	}
	out := make([]byte, 6)
	out[0] = r.SlaveID
	out[1] = uint8(r.Function)
	binary.BigEndian.PutUint16(out[2:4], r.Address)

	switch r.Function {
	case modbus.WriteSingleCoil:
		on, err := r.Values[0].CoilValue()
		if err != nil {
			return nil, modbus.NewError(modbus.ErrInvalidByteOrder, r.SlaveID, r.Function)
		}
		if on {
			binary.BigEndian.PutUint16(out[4:6], 0xFF00)
		} else {
			binary.BigEndian.PutUint16(out[4:6], 0x0000)
		}
	case modbus.WriteSingleRegister:
		v, err := r.Values[0].RegisterValue()
		if err != nil {
			return nil, modbus.NewError(modbus.ErrInvalidByteOrder, r.SlaveID, r.Function)
		}
		binary.BigEndian.PutUint16(out[4:6], v)
	}
	return out, nil
}

func encodeWriteMultipleResponse(r Response) ([]byte, error) {
	out := make([]byte, 6)
	out[0] = r.SlaveID
	out[1] = uint8(r.Function)
	binary.BigEndian.PutUint16(out[2:4], r.Address)
	binary.BigEndian.PutUint16(out[4:6], r.Quantity)
	return out, nil
}

// DecodeResponse parses a Response out of a raw PDU (no CRC/MBAP
// framing). Malformed input fails with ErrInvalidByteOrder, never
// panics.
func DecodeResponse(data []byte) (resp Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			resp, err = Response{}, modbus.NewErrorNoSlave(modbus.ErrInvalidByteOrder)
		}
	}()

	if len(data) < 3 {
		return Response{}, modbus.NewErrorNoSlave(modbus.ErrInvalidByteOrder)
	}
	slaveID := data[0]
	function := modbus.FunctionCode(data[1])

	switch function.OpClass() {
	case modbus.OpRead:
		return decodeReadResponse(slaveID, function, data)
	case modbus.OpWriteSingle:
		return decodeWriteSingleResponse(slaveID, function, data)
	case modbus.OpWriteMultiple:
		return decodeWriteMultipleResponse(slaveID, function, data)
	default:
		return Response{}, modbus.NewError(modbus.ErrInvalidByteOrder, slaveID, function)
	}
}

func decodeReadResponse(slaveID uint8, function modbus.FunctionCode, data []byte) (Response, error) {
	follow := int(data[2])
	if len(data) < 3+follow {
		return Response{}, modbus.NewError(modbus.ErrInvalidByteOrder, slaveID, function)
	}

	if function.IsBitFunction() {
		quantity := uint16(follow) * 8
		return Response{
			SlaveID:  slaveID,
			Function: function,
			Quantity: quantity,
			Values:   modbus.UnpackCoils(quantity, data[3:3+follow]),
		}, nil
	}

	quantity := uint16(follow / 2)
	values := make([]modbus.Cell, quantity)
	for i := range values {
		values[i] = modbus.NewRegister(binary.BigEndian.Uint16(data[3+i*2 : 5+i*2]))
	}
	return Response{
		SlaveID:  slaveID,
		Function: function,
		Quantity: quantity,
		Values:   values,
	}, nil
}

func decodeWriteSingleResponse(slaveID uint8, function modbus.FunctionCode, data []byte) (Response, error) {
	if len(data) < 6 {
		return Response{}, modbus.NewError(modbus.ErrInvalidByteOrder, slaveID, function)
	}
	address := binary.BigEndian.Uint16(data[2:4])
	var value modbus.Cell
	if function == modbus.WriteSingleCoil {
		value = modbus.NewCoil(data[4] == 0xFF)
	} else {
		value = modbus.NewRegister(binary.BigEndian.Uint16(data[4:6]))
	}
	return Response{
		SlaveID:  slaveID,
		Function: function,
		Address:  address,
		Quantity: 1,
		Values:   []modbus.Cell{value},
	}, nil
}

func decodeWriteMultipleResponse(slaveID uint8, function modbus.FunctionCode, data []byte) (Response, error) {
	if len(data) < 6 {
		return Response{}, modbus.NewError(modbus.ErrInvalidByteOrder, slaveID, function)
	}
	return Response{
		SlaveID:  slaveID,
		Function: function,
		Address:  binary.BigEndian.Uint16(data[2:4]),
		Quantity: binary.BigEndian.Uint16(data[4:6]),
	}, nil
}

// FromRequest builds the Response shell that a well-behaved slave would
// send back to req: same function code, and for Reads the same address
// and quantity (Values left for the caller/handler to fill in).
func FromRequest(req Request) Response {
	return Response{
		SlaveID:  req.SlaveID,
		Function: req.Function,
		Address:  req.Address,
		Quantity: req.Quantity,
	}
}
