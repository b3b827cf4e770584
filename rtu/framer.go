package rtu

import (
	modbus "github.com/halvardkvam/modbuscore"
	"github.com/halvardkvam/modbuscore/pdu"
)

// minFrameLen is the shortest possible RTU frame: a 3-byte exception PDU
// plus its 2-byte CRC suffix.
const minFrameLen = 5

// EncodeRequestFrame serializes req into its RTU wire form: PDU followed
// by CRC-16, low byte first.
func EncodeRequestFrame(req pdu.Request) ([]byte, error) {
	body, err := pdu.EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	return modbus.AppendCRC(body), nil
}

// EncodeResponseFrame serializes resp into its RTU wire form.
func EncodeResponseFrame(resp pdu.Response) ([]byte, error) {
	body, err := pdu.EncodeResponse(resp)
	if err != nil {
		return nil, err
	}
	return modbus.AppendCRC(body), nil
}

// EncodeExceptionFrame serializes ex into its 5-byte RTU exception wire
// form: slave, function|0x80, error code, CRC-lo, CRC-hi.
func EncodeExceptionFrame(ex pdu.Exception) []byte {
	return modbus.AppendCRC(pdu.EncodeException(ex))
}

// DecodeRequestFrame verifies the CRC suffix of data and decodes the
// remaining bytes as a Request. Too-short input and CRC mismatches are
// reported as ErrInvalidByteOrder/ErrInvalidCRC respectively so a caller
// reassembling fragmented reads knows whether to keep reading.
func DecodeRequestFrame(data []byte) (pdu.Request, error) {
	body, err := verifyAndStripCRC(data)
	if err != nil {
		return pdu.Request{}, err
	}
	return pdu.DecodeRequest(body)
}

// DecodeResponseFrame verifies the CRC suffix of data and decodes the
// remaining bytes as either a Response or, when the exception flag is
// set, an Exception (ex is non-nil in that case, resp is the zero
// value). The same ErrInvalidByteOrder/ErrInvalidCRC contract as
// DecodeRequestFrame applies for incomplete or corrupt frames.
func DecodeResponseFrame(data []byte) (resp pdu.Response, ex *pdu.Exception, err error) {
	body, err := verifyAndStripCRC(data)
	if err != nil {
		return pdu.Response{}, nil, err
	}
	if pdu.IsException(body) {
		decoded, err := pdu.DecodeException(body)
		if err != nil {
			return pdu.Response{}, nil, err
		}
		return pdu.Response{}, &decoded, nil
	}
	resp, err = pdu.DecodeResponse(body)
	return resp, nil, err
}

// verifyAndStripCRC checks that data carries a valid CRC-16 suffix and
// returns the PDU bytes with the suffix removed. Frames shorter than the
// minimum possible length are treated as incomplete (ErrInvalidByteOrder)
// rather than corrupt, since an RTU reader may still be accumulating a
// fragmented read.
func verifyAndStripCRC(data []byte) ([]byte, error) {
	if len(data) < minFrameLen {
		return nil, modbus.NewErrorNoSlave(modbus.ErrInvalidByteOrder)
	}
	body := data[:len(data)-2]
	want := modbus.CRC16(body)
	got := uint16(data[len(data)-2]) | uint16(data[len(data)-1])<<8
	if want != got {
		return nil, modbus.NewError(modbus.ErrInvalidCRC, body[0], modbus.Undefined)
	}
	return body, nil
}
