package trace

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// WriteCBOR encodes st to w as a single CBOR item.
func WriteCBOR(w io.Writer, st *SimulationTrace) error {
	if st == nil {
		return fmt.Errorf("trace: nothing to export")
	}
	blob, err := cbor.Marshal(st)
	if err != nil {
		return fmt.Errorf("trace: encoding: %w", err)
	}
	if _, err := w.Write(blob); err != nil {
		return fmt.Errorf("trace: writing: %w", err)
	}
	return nil
}

// ReadCBOR decodes a trace written by WriteCBOR.
func ReadCBOR(r io.Reader) (*SimulationTrace, error) {
	st := &SimulationTrace{}
	if err := cbor.NewDecoder(r).Decode(st); err != nil {
		return nil, fmt.Errorf("trace: decoding: %w", err)
	}
	return st, nil
}
