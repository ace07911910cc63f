package luau

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// DumpStats counts what the dumper visited; the emitter's output must
// round-trip through it exactly.
type DumpStats struct {
	Protos       int
	Instructions int
	Constants    int
	Strings      int
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) u8() (byte, error) {
	if r.off >= len(r.data) {
		return 0, fmt.Errorf("bytecode truncated at offset %d", r.off)
	}
	b := r.data[r.off]
	r.off++
	return b, nil
}

func (r *reader) u32() (uint32, error) {
	if r.off+4 > len(r.data) {
		return 0, fmt.Errorf("bytecode truncated at offset %d", r.off)
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) f64() (float64, error) {
	if r.off+8 > len(r.data) {
		return 0, fmt.Errorf("bytecode truncated at offset %d", r.off)
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(r.data[r.off:]))
	r.off += 8
	return v, nil
}

func (r *reader) varint() (uint32, error) {
	var result uint32
	var shift uint
	for {
		b, err := r.u8()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7F) << shift
		shift += 7
		if b&0x80 == 0 {
			return result, nil
		}
	}
}

func (r *reader) str(n uint32) (string, error) {
	if r.off+int(n) > len(r.data) {
		return "", fmt.Errorf("bytecode truncated at offset %d", r.off)
	}
	s := string(r.data[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}

// Fdump walks a bytecode image and writes a readable listing to w. It is
// a read-only inverse of the emitter: every opcode format and constant
// tag round-trips.
func Fdump(w io.Writer, data []byte) (DumpStats, error) {
	var stats DumpStats
	if len(data) < 2 {
		return stats, fmt.Errorf("bytecode image too short")
	}

	r := &reader{data: data}

	version, _ := r.u8()
	typeversion := byte(0)
	if version >= 4 {
		typeversion, _ = r.u8()
	}
	fmt.Fprintf(w, "; bytecode version: %d.%d\n", version, typeversion)

	nstrings, err := r.varint()
	if err != nil {
		return stats, err
	}
	strtab := make([]string, 0, nstrings)
	if nstrings > 0 {
		fmt.Fprintf(w, "; string table (size: %d):\n", nstrings)
		for i := uint32(0); i < nstrings; i++ {
			n, err := r.varint()
			if err != nil {
				return stats, err
			}
			s, err := r.str(n)
			if err != nil {
				return stats, err
			}
			strtab = append(strtab, s)
			fmt.Fprintf(w, ";    [%d] = %s\n", i, printable(s))
		}
	} else {
		fmt.Fprintln(w, "; empty string table")
	}
	stats.Strings = len(strtab)

	nprotos, err := r.varint()
	if err != nil {
		return stats, err
	}
	fmt.Fprintf(w, "; proto count: %d\n\n", nprotos)

	for i := uint32(0); i < nprotos; i++ {
		if err := dumpProto(w, r, version, i, strtab, &stats); err != nil {
			return stats, err
		}
		stats.Protos++
	}

	if _, err := r.varint(); err != nil { // trailing sentinel
		return stats, err
	}
	return stats, nil
}

func dumpProto(w io.Writer, r *reader, version byte, i uint32, strtab []string, stats *DumpStats) error {
	maxstacksize, _ := r.u8()
	numparams, _ := r.u8()
	nups, _ := r.u8()
	isVararg, _ := r.u8()

	if version >= 4 {
		if _, err := r.u8(); err != nil { // flags
			return err
		}
		n, err := r.varint() // type info size
		if err != nil {
			return err
		}
		r.off += int(n)
	}

	vararg := "false"
	if isVararg != 0 {
		vararg = "true"
	}
	fmt.Fprintf(w, "; maxstacksize = %d, numparams = %d, nups = %d, is_vararg = %s\nfunction anon_%d(??)\n",
		maxstacksize, numparams, nups, vararg, i)

	sizecode, err := r.varint()
	if err != nil {
		return err
	}
	for j := uint32(0); j < sizecode; j++ {
		insn, err := r.u32()
		if err != nil {
			return err
		}
		op := insnOp(insn)
		if int(op) >= int(opCount) {
			fmt.Fprintf(w, "  [%d] INVALID\n", j)
			continue
		}
		stats.Instructions++

		info := opTable[op]
		fmt.Fprintf(w, "  [%d] %s ", j, info.Name)

		switch info.Format {
		case FmtABC:
			fmt.Fprintf(w, "%d %d %d", insnA(insn), insnB(insn), insnC(insn))
		case FmtAB:
			fmt.Fprintf(w, "%d %d", insnA(insn), insnB(insn))
		case FmtAD:
			fmt.Fprintf(w, "%d %d", insnA(insn), insnD(insn))
		case FmtA:
			fmt.Fprintf(w, "%d", insnA(insn))
		case FmtE:
			fmt.Fprintf(w, "%d", insnE(insn))
		}

		if hasAux[op] {
			aux, err := r.u32()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, " ; aux = %d", aux)
			j++
		}

		fmt.Fprintln(w)
	}

	sizek, err := r.varint()
	if err != nil {
		return err
	}
	if sizek > 0 {
		fmt.Fprintf(w, "\n; %d constant(s):\n", sizek)
		for k := uint32(0); k < sizek; k++ {
			if err := dumpConstant(w, r, k, strtab); err != nil {
				return err
			}
			stats.Constants++
		}
	}

	if _, err := r.varint(); err != nil { // sizep
		return err
	}
	if _, err := r.varint(); err != nil { // linedefined
		return err
	}
	if _, err := r.varint(); err != nil { // debugname
		return err
	}
	if _, err := r.u8(); err != nil { // lineinfo sentinel
		return err
	}
	if _, err := r.u8(); err != nil { // debuginfo sentinel
		return err
	}

	fmt.Fprintf(w, "end\n\n")
	return nil
}

func dumpConstant(w io.Writer, r *reader, k uint32, strtab []string) error {
	tag, err := r.u8()
	if err != nil {
		return err
	}

	switch tag {
	case TagNil:
		fmt.Fprintf(w, ";  [%d] nil\n", k)

	case TagBoolean:
		b, err := r.u8()
		if err != nil {
			return err
		}
		v := "false"
		if b != 0 {
			v = "true"
		}
		fmt.Fprintf(w, ";  [%d] boolean: %s\n", k, v)

	case TagNumber:
		f, err := r.f64()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, ";  [%d] number: %g\n", k, f)

	case TagString:
		idx, err := r.varint()
		if err != nil {
			return err
		}
		if int(idx) >= len(strtab) {
			return fmt.Errorf("string constant index %d out of range", idx)
		}
		fmt.Fprintf(w, ";  [%d] string: %s\n", k, printable(strtab[idx]))

	case TagImport:
		v, err := r.u32()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, ";  [%d] import(%d)\n", k, v)

	case TagTable:
		n, err := r.varint()
		if err != nil {
			return err
		}
		for j := uint32(0); j < n; j++ {
			if _, err := r.varint(); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, ";  [%d] table(keys=%d)\n", k, n)

	case TagClosure:
		v, err := r.varint()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, ";  [%d] closure(%d)\n", k, v)

	case TagVector:
		var vals [3]float64
		for j := range vals {
			bits, err := r.u32()
			if err != nil {
				return err
			}
			vals[j] = float64(math.Float32frombits(bits))
		}
		fmt.Fprintf(w, ";  [%d] vector(%.3f, %.3f, %.3f)\n", k, vals[0], vals[1], vals[2])

	default:
		return fmt.Errorf("unknown constant tag %d", tag)
	}
	return nil
}

func printable(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c < 0x7F && c != '"' {
			out = append(out, c)
		} else {
			out = append(out, fmt.Sprintf("\\%02X", c)...)
		}
	}
	return string(append(out, '"'))
}
