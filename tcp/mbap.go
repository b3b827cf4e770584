package tcp

import (
	"encoding/binary"

	modbus "github.com/halvardkvam/modbuscore"
	"github.com/halvardkvam/modbuscore/pdu"
)

// HeaderLen is the fixed size of the MBAP header prefixing every Modbus
// TCP message.
const HeaderLen = 7

// Header is the MBAP (Modbus Application Protocol) header: transaction
// id, protocol id (always 0 for Modbus), payload length (PDU length
// plus the unit id byte), and unit id.
type Header struct {
	TransactionID uint16
	ProtocolID    uint16
	Length        uint16
	UnitID        uint8
}

// EncodeRequestFrame wraps req's PDU in an MBAP header addressed to
// unitID, tagged with txnID.
func EncodeRequestFrame(txnID uint16, unitID uint8, req pdu.Request) ([]byte, error) {
	body, err := pdu.EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	return wrap(txnID, unitID, body), nil
}

// EncodeResponseFrame wraps resp's PDU in an MBAP header.
func EncodeResponseFrame(txnID uint16, unitID uint8, resp pdu.Response) ([]byte, error) {
	body, err := pdu.EncodeResponse(resp)
	if err != nil {
		return nil, err
	}
	return wrap(txnID, unitID, body), nil
}

// EncodeExceptionFrame wraps ex in an MBAP header.
func EncodeExceptionFrame(txnID uint16, unitID uint8, ex pdu.Exception) []byte {
	return wrap(txnID, unitID, pdu.EncodeException(ex))
}

func wrap(txnID uint16, unitID uint8, body []byte) []byte {
	out := make([]byte, HeaderLen+len(body))
	binary.BigEndian.PutUint16(out[0:2], txnID)
	binary.BigEndian.PutUint16(out[2:4], 0)
	binary.BigEndian.PutUint16(out[4:6], uint16(len(body)+1))
	out[6] = unitID
	copy(out[7:], body)
	return out
}

// ParseHeader splits data into its MBAP header and PDU payload. Input
// that is too short to even hold a header, or whose declared length
// runs past the bytes actually present, fails with ErrInvalidByteOrder.
// Connection's Await methods return that error as is; they do not read
// again.
func ParseHeader(data []byte) (Header, []byte, error) {
	if len(data) < HeaderLen {
		return Header{}, nil, modbus.NewErrorNoSlave(modbus.ErrInvalidByteOrder)
	}
	h := Header{
		TransactionID: binary.BigEndian.Uint16(data[0:2]),
		ProtocolID:    binary.BigEndian.Uint16(data[2:4]),
		Length:        binary.BigEndian.Uint16(data[4:6]),
		UnitID:        data[6],
	}
	pduLen := int(h.Length) - 1
	if pduLen < 0 || len(data) < HeaderLen+pduLen {
		return Header{}, nil, modbus.NewErrorNoSlave(modbus.ErrInvalidByteOrder)
	}
	return h, data[HeaderLen : HeaderLen+pduLen], nil
}

// DecodeRequestFrame parses an incoming request: the MBAP header plus a
// PDU decoded via the pdu package. The decoded Request's SlaveID is set
// from the header's unit id.
func DecodeRequestFrame(data []byte) (Header, pdu.Request, error) {
	h, body, err := ParseHeader(data)
	if err != nil {
		return Header{}, pdu.Request{}, err
	}
	req, err := pdu.DecodeRequest(body)
	if err != nil {
		return h, pdu.Request{}, err
	}
	req.SlaveID = h.UnitID
	return h, req, nil
}

// DecodeResponseFrame parses an incoming response and enforces
// transaction-id matching against expectedTxnID: a mismatch fails
// ErrInvalidMessageID without attempting to decode the PDU.
func DecodeResponseFrame(data []byte, expectedTxnID uint16) (Header, pdu.Response, *pdu.Exception, error) {
	h, body, err := ParseHeader(data)
	if err != nil {
		return Header{}, pdu.Response{}, nil, err
	}
	if h.TransactionID != expectedTxnID {
		return h, pdu.Response{}, nil, modbus.NewErrorNoSlave(modbus.ErrInvalidMessageID)
	}
	if pdu.IsException(body) {
		ex, err := pdu.DecodeException(body)
		if err != nil {
			return h, pdu.Response{}, nil, err
		}
		return h, pdu.Response{}, &ex, nil
	}
	resp, err := pdu.DecodeResponse(body)
	return h, resp, nil, err
}
