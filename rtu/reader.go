package rtu

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	modbus "github.com/halvardkvam/modbuscore"
	"github.com/halvardkvam/modbuscore/pdu"
)

// DefaultReadTimeout is the default wall-clock budget for reassembling one
// RTU frame out of a fragmented serial read.
const DefaultReadTimeout = 100 * time.Millisecond

// frameMaxLen is the largest possible RTU frame: 1 slave id + 253 max PDU
// payload + 2 CRC bytes.
const frameMaxLen = 256

// reassemble repeatedly reads from r, appending each chunk to an
// accumulator, and hands the accumulator to decode after every read. It
// loops on ErrInvalidByteOrder/ErrInvalidCRC (more bytes may complete or
// correct the frame) and propagates any other error - including Timeout
// once the deadline elapses and SlaveDeviceFailure on a hard I/O error -
// immediately.
func reassemble[T any](ctx context.Context, r io.Reader, timeout time.Duration, decode func([]byte) (T, error)) (T, []byte, error) {
	var zero T
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	deadline := time.Now().Add(timeout)
	acc := make([]byte, 0, frameMaxLen)
	buf := make([]byte, frameMaxLen)

	for {
		select {
		case <-ctx.Done():
			return zero, acc, ctx.Err()
		default:
		}
		if time.Now().After(deadline) {
			return zero, acc, modbus.NewErrorNoSlave(modbus.ErrTimeout)
		}

		n, err := r.Read(buf)
		if n > 0 {
			acc = append(acc, buf[:n]...)
			if len(acc) > frameMaxLen {
				return zero, acc, modbus.NewErrorNoSlave(modbus.ErrInputDataLengthInvalid)
			}
			decoded, decErr := decode(acc)
			if decErr == nil {
				return decoded, acc, nil
			}
			if errors.Is(decErr, modbus.ErrInvalidByteOrderErr) || errors.Is(decErr, modbus.ErrInvalidCRCErr) {
				continue
			}
			return zero, acc, decErr
		}
		if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) && !errors.Is(err, io.EOF) {
			return zero, acc, modbus.NewErrorNoSlave(modbus.ErrSlaveDeviceFailure)
		}
	}
}

// AwaitRequest reassembles and decodes one Request frame from r.
func AwaitRequest(ctx context.Context, r io.Reader, timeout time.Duration) (pdu.Request, []byte, error) {
	return reassemble(ctx, r, timeout, DecodeRequestFrame)
}

// responseOrException bundles the two possible outcomes of decoding a
// response frame so reassemble's single-return-type decode signature can
// carry either.
type responseOrException struct {
	resp pdu.Response
	ex   *pdu.Exception
}

// AwaitResponse reassembles and decodes one Response (or Exception)
// frame from r.
func AwaitResponse(ctx context.Context, r io.Reader, timeout time.Duration) (pdu.Response, *pdu.Exception, []byte, error) {
	result, raw, err := reassemble(ctx, r, timeout, func(acc []byte) (responseOrException, error) {
		resp, ex, err := DecodeResponseFrame(acc)
		return responseOrException{resp: resp, ex: ex}, err
	})
	return result.resp, result.ex, raw, err
}

// AwaitBytes returns whatever arrives from one read of r, with no
// framing interpretation. timeout is not applied to that read: it returns
// when r.Read returns (for a port opened with Open, after at most
// Config.ReadTimeout). A read that yields no bytes fails with ErrTimeout.
func AwaitBytes(ctx context.Context, r io.Reader, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	buf := make([]byte, frameMaxLen)
	n, err := r.Read(buf)
	if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) && !errors.Is(err, io.EOF) {
		return nil, modbus.NewErrorNoSlave(modbus.ErrSlaveDeviceFailure)
	}
	if n == 0 {
		return nil, modbus.NewErrorNoSlave(modbus.ErrTimeout)
	}
	return buf[:n], nil
}
