package gosimplex

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"strconv"
)

// StepKeySz is the byte length of an encoded step key.
const StepKeySz = 8

// AppendStepKey appends the big-endian encoding of step to in, so keys sort in step order.
func AppendStepKey(in []byte, step int64) []byte {
	return binary.BigEndian.AppendUint64(in, uint64(step))
}

// ReadStepKey decodes a key made by AppendStepKey.
func ReadStepKey(in []byte) (int64, error) {
	if len(in) < StepKeySz {
		return 0, ErrBadEncoding
	}
	return int64(binary.BigEndian.Uint64(in)), nil
}

// AppendEncoding appends a compact binary encoding of s (excluding Step, which is carried by the key).
//
// Integer observables are varints followed by the IEEE 754 bits of Entropy.
func (s *Sample) AppendEncoding(out []byte) []byte {
	var scrap [binary.MaxVarintLen64]byte
	for _, v := range [...]int{s.MaxDistance, s.MaxDegree, s.NumNodes, s.NumEdges, s.NumTriangles} {
		n := binary.PutVarint(scrap[:], int64(v))
		out = append(out, scrap[:n]...)
	}
	return binary.BigEndian.AppendUint64(out, math.Float64bits(s.Entropy))
}

// InitFromEncoding assigns s from the given step and an encoding made by AppendEncoding.
func (s *Sample) InitFromEncoding(step int64, enc []byte) error {
	rdr := bytes.NewReader(enc)

	var vals [5]int64
	for i := range vals {
		v, err := binary.ReadVarint(rdr)
		if err != nil {
			return ErrBadEncoding
		}
		vals[i] = v
	}

	var bits [8]byte
	if _, err := io.ReadFull(rdr, bits[:]); err != nil {
		return ErrBadEncoding
	}

	*s = Sample{
		Step:         step,
		MaxDistance:  int(vals[0]),
		MaxDegree:    int(vals[1]),
		NumNodes:     int(vals[2]),
		NumEdges:     int(vals[3]),
		NumTriangles: int(vals[4]),
		Entropy:      math.Float64frombits(binary.BigEndian.Uint64(bits[:])),
	}
	return nil
}

// IsEqual reports if two samples carry identical observables (entropy compared bitwise).
func (s Sample) IsEqual(other Sample) bool {
	return s.Step == other.Step &&
		s.MaxDistance == other.MaxDistance &&
		s.MaxDegree == other.MaxDegree &&
		math.Float64bits(s.Entropy) == math.Float64bits(other.Entropy) &&
		s.NumNodes == other.NumNodes &&
		s.NumEdges == other.NumEdges &&
		s.NumTriangles == other.NumTriangles
}

// AppendHeader appends the CSV header line that matches AppendRow for the given opts.
func AppendHeader(io []byte, opts PrintOpts) []byte {
	if len(opts.Label) > 0 {
		io = append(io, "label,"...)
	}
	io = append(io, "step,max_distance,k_max,entropy"...)
	if opts.Counts {
		io = append(io, ",nodes,edges,triangles"...)
	}
	return append(io, '\n')
}

// AppendRow appends s as a single CSV line.
func (s *Sample) AppendRow(io []byte, opts PrintOpts) []byte {
	if len(opts.Label) > 0 {
		io = append(io, opts.Label...)
		io = append(io, ',')
	}
	io = strconv.AppendInt(io, s.Step, 10)
	io = append(io, ',')
	io = strconv.AppendInt(io, int64(s.MaxDistance), 10)
	io = append(io, ',')
	io = strconv.AppendInt(io, int64(s.MaxDegree), 10)
	io = append(io, ',')
	io = strconv.AppendFloat(io, s.Entropy, 'g', -1, 64)
	if opts.Counts {
		for _, v := range [...]int{s.NumNodes, s.NumEdges, s.NumTriangles} {
			io = append(io, ',')
			io = strconv.AppendInt(io, int64(v), 10)
		}
	}
	return append(io, '\n')
}
