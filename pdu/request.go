package pdu

import (
	"encoding/binary"

	modbus "github.com/halvardkvam/modbuscore"
)

// Request is a decoded Modbus request PDU: function code, address,
// quantity, and (for writes) the values to write. For Read requests
// Values is empty - the caller supplies Quantity and gets the data back
// in the Response.
type Request struct {
	SlaveID  uint8
	Function modbus.FunctionCode
	Address  uint16
	Quantity uint16
	Values   []modbus.Cell
}

// EncodeRequest serializes a Request into its wire PDU form (slave id and
// function code included, CRC/MBAP framing excluded).
//
// Byte layout by function:
//
//	Read (0x01-0x04):            slave fn addrHi addrLo qtyHi qtyLo
//	WriteSingleCoil (0x05):       slave fn addrHi addrLo (0xFF00|0x0000)
//	WriteSingleRegister (0x06):   slave fn addrHi addrLo valHi valLo
//	WriteMultipleCoils (0x0F):    slave fn addrHi addrLo qtyHi qtyLo byteCount coils...
//	WriteMultipleRegisters (0x10): slave fn addrHi addrLo qtyHi qtyLo byteCount regs...
func EncodeRequest(r Request) ([]byte, error) {
	switch r.Function.OpClass() {
	case modbus.OpRead:
		return encodeReadRequest(r)
	case modbus.OpWriteSingle:
		return encodeWriteSingleRequest(r)
	case modbus.OpWriteMultiple:
		return encodeWriteMultipleRequest(r)
	default:
		return nil, modbus.NewError(modbus.ErrInvalidByteOrder, r.SlaveID, r.Function)
	}
}

func encodeReadRequest(r Request) ([]byte, error) {
	if r.Function.IsBitFunction() {
		if r.Quantity < 1 || r.Quantity > 2000 {
			return nil, modbus.NewError(modbus.ErrNumberOfValuesInvalid, r.SlaveID, r.Function)
		}
	} else {
		if r.Quantity < 1 || r.Quantity > 125 {
			return nil, modbus.NewError(modbus.ErrNumberOfValuesInvalid, r.SlaveID, r.Function)
		}
	}
	out := make([]byte, 6)
	out[0] = r.SlaveID
	out[1] = uint8(r.Function)
	binary.BigEndian.PutUint16(out[2:4], r.Address)
	binary.BigEndian.PutUint16(out[4:6], r.Quantity)
	return out, nil
}

func encodeWriteSingleRequest(r Request) ([]byte, error) {
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

func encodeWriteMultipleRequest(r Request) ([]byte, error) {
	if len(r.Values) == 0 {
		return nil, modbus.NewError(modbus.ErrNumberOfValuesInvalid, r.SlaveID, r.Function)
	}
	quantity := uint16(len(r.Values))

	switch r.Function {
	case modbus.WriteMultipleCoils:
		if quantity < 1 || quantity > 2000 {
			return nil, modbus.NewError(modbus.ErrNumberOfValuesInvalid, r.SlaveID, r.Function)
		}
		coils := make([]modbus.Cell, quantity)
		copy(coils, r.Values)
		data := modbus.PackCoils(coils)
		out := make([]byte, 7+len(data))
		out[0] = r.SlaveID
		out[1] = uint8(r.Function)
		binary.BigEndian.PutUint16(out[2:4], r.Address)
		binary.BigEndian.PutUint16(out[4:6], quantity)
		out[6] = uint8(len(data))
		copy(out[7:], data)
		return out, nil
	case modbus.WriteMultipleRegisters:
		if quantity < 1 || quantity > 123 {
			return nil, modbus.NewError(modbus.ErrNumberOfValuesInvalid, r.SlaveID, r.Function)
		}
		byteCount := quantity * 2
		out := make([]byte, 7+int(byteCount))
		out[0] = r.SlaveID
		out[1] = uint8(r.Function)
		binary.BigEndian.PutUint16(out[2:4], r.Address)
		binary.BigEndian.PutUint16(out[4:6], quantity)
		out[6] = uint8(byteCount)
		for i, cell := range r.Values {
			v, err := cell.RegisterValue()
			if err != nil {
				return nil, modbus.NewError(modbus.ErrInvalidByteOrder, r.SlaveID, r.Function)
			}
			binary.BigEndian.PutUint16(out[7+i*2:9+i*2], v)
		}
		return out, nil
	default:
		return nil, modbus.NewError(modbus.ErrInvalidByteOrder, r.SlaveID, r.Function)
	}
}

// DecodeRequest parses a Request out of a raw PDU (no CRC/MBAP framing).
// Any malformed input - too short, unknown function code, truncated
// payload - fails with ErrInvalidByteOrder, never panics.
func DecodeRequest(data []byte) (req Request, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			req, err = Request{}, modbus.NewErrorNoSlave(modbus.ErrInvalidByteOrder)
		}
	}()

	if len(data) < 3 {
		return Request{}, modbus.NewErrorNoSlave(modbus.ErrInvalidByteOrder)
	}
	slaveID := data[0]
	function := modbus.FunctionCode(data[1])

	switch function.OpClass() {
	case modbus.OpRead:
		return decodeReadRequest(slaveID, function, data)
	case modbus.OpWriteSingle:
		return decodeWriteSingleRequest(slaveID, function, data)
	case modbus.OpWriteMultiple:
		return decodeWriteMultipleRequest(slaveID, function, data)
	default:
		return Request{}, modbus.NewError(modbus.ErrInvalidByteOrder, slaveID, function)
	}
}

func decodeReadRequest(slaveID uint8, function modbus.FunctionCode, data []byte) (Request, error) {
	if len(data) < 6 {
		return Request{}, modbus.NewError(modbus.ErrInvalidByteOrder, slaveID, function)
	}
	return Request{
		SlaveID:  slaveID,
		Function: function,
		Address:  binary.BigEndian.Uint16(data[2:4]),
		Quantity: binary.BigEndian.Uint16(data[4:6]),
	}, nil
}

func decodeWriteSingleRequest(slaveID uint8, function modbus.FunctionCode, data []byte) (Request, error) {
	if len(data) < 6 {
		return Request{}, modbus.NewError(modbus.ErrInvalidByteOrder, slaveID, function)
	}
	address := binary.BigEndian.Uint16(data[2:4])
	var value modbus.Cell
	if function == modbus.WriteSingleCoil {
		value = modbus.NewCoil(data[4] == 0xFF)
	} else {
		value = modbus.NewRegister(binary.BigEndian.Uint16(data[4:6]))
	}
	return Request{
		SlaveID:  slaveID,
		Function: function,
		Address:  address,
		Quantity: 1,
		Values:   []modbus.Cell{value},
	}, nil
}

func decodeWriteMultipleRequest(slaveID uint8, function modbus.FunctionCode, data []byte) (Request, error) {
	if len(data) < 7 {
		return Request{}, modbus.NewError(modbus.ErrInvalidByteOrder, slaveID, function)
	}
	address := binary.BigEndian.Uint16(data[2:4])
	quantity := binary.BigEndian.Uint16(data[4:6])
	follow := int(data[6])

	if function == modbus.WriteMultipleCoils {
		if len(data) < 7+follow {
			return Request{}, modbus.NewError(modbus.ErrInvalidByteOrder, slaveID, function)
		}
		return Request{
			SlaveID:  slaveID,
			Function: function,
			Address:  address,
			Quantity: quantity,
			Values:   modbus.UnpackCoils(quantity, data[7:7+follow]),
		}, nil
	}

	// WriteMultipleRegisters
	if len(data) < 7+follow || follow < int(quantity)*2 {
		return Request{}, modbus.NewError(modbus.ErrInvalidByteOrder, slaveID, function)
	}
	values := make([]modbus.Cell, quantity)
	for i := range values {
		values[i] = modbus.NewRegister(binary.BigEndian.Uint16(data[7+i*2 : 9+i*2]))
	}
	return Request{
		SlaveID:  slaveID,
		Function: function,
		Address:  address,
		Quantity: quantity,
		Values:   values,
	}, nil
}
