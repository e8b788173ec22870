package ledger

import (
	"bytes"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Primitivas de codificação de largura fixa compartilhadas por todos os
// registros. O layout é posicional e sem versão: os offsets de byte fazem
// parte do contrato de wire e precisam bater exatamente entre encode e
// decode. Inteiros são little-endian; identidades são arrays opacos de
// 32 bytes; textos ocupam buffers de capacidade fixa preenchidos com zeros.

// fieldWriter escreve campos sequencialmente em um buffer pré-alocado.
type fieldWriter struct {
	buf []byte
	off int
}

func newFieldWriter(size int) *fieldWriter {
	return &fieldWriter{buf: make([]byte, size)}
}

func (w *fieldWriter) writeBool(v bool) {
	if v {
		w.buf[w.off] = 1
	}
	w.off++
}

func (w *fieldWriter) writeU8(v uint8) {
	w.buf[w.off] = v
	w.off++
}

func (w *fieldWriter) writeU16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[w.off:], v)
	w.off += 2
}

func (w *fieldWriter) writeU64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[w.off:], v)
	w.off += 8
}

func (w *fieldWriter) writeI64(v int64) {
	binary.LittleEndian.PutUint64(w.buf[w.off:], uint64(v))
	w.off += 8
}

func (w *fieldWriter) writePubkey(pk solana.PublicKey) {
	copy(w.buf[w.off:], pk[:])
	w.off += solana.PublicKeyLength
}

// writeString trunca o texto à capacidade do campo e preenche o restante
// com zeros.
func (w *fieldWriter) writeString(s string, capacity int) {
	b := []byte(s)
	if len(b) > capacity {
		b = b[:capacity]
	}
	copy(w.buf[w.off:], b)
	w.off += capacity
}

func (w *fieldWriter) bytes() []byte { return w.buf }

// fieldReader lê campos sequencialmente, acumulando o primeiro erro
// encontrado. Depois do primeiro erro as leituras seguintes retornam zero.
type fieldReader struct {
	buf []byte
	off int
	err error
}

// newFieldReader rejeita buffers menores que o tamanho declarado do
// registro; bytes além do tamanho são ignorados silenciosamente.
func newFieldReader(src []byte, size int) *fieldReader {
	r := &fieldReader{buf: src}
	if len(src) < size {
		r.err = ErrTooShort
	}
	return r
}

func (r *fieldReader) readBool() bool {
	if r.err != nil {
		return false
	}
	b := r.buf[r.off]
	r.off++
	switch b {
	case 0:
		return false
	case 1:
		return true
	default:
		r.err = ErrInvalidFlag
		return false
	}
}

func (r *fieldReader) readU8() uint8 {
	if r.err != nil {
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *fieldReader) readU16() uint16 {
	if r.err != nil {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *fieldReader) readU64() uint64 {
	if r.err != nil {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *fieldReader) readI64() int64 {
	return int64(r.readU64())
}

func (r *fieldReader) readPubkey() solana.PublicKey {
	if r.err != nil {
		return solana.PublicKey{}
	}
	pk := solana.PublicKeyFromBytes(r.buf[r.off : r.off+solana.PublicKeyLength])
	r.off += solana.PublicKeyLength
	return pk
}

// readString remove os zeros finais do buffer de capacidade fixa. Um byte
// não-zero depois do primeiro zero é preenchimento corrompido e rejeitado.
func (r *fieldReader) readString(capacity int) string {
	if r.err != nil {
		return ""
	}
	raw := r.buf[r.off : r.off+capacity]
	r.off += capacity
	end := bytes.IndexByte(raw, 0)
	if end < 0 {
		// Texto ocupa exatamente a capacidade do campo.
		return string(raw)
	}
	for _, b := range raw[end:] {
		if b != 0 {
			r.err = ErrInvalidPadding
			return ""
		}
	}
	return string(raw[:end])
}

// skip avança n bytes sem interpretá-los (payload de campo opcional ausente).
func (r *fieldReader) skip(n int) {
	if r.err != nil {
		return
	}
	r.off += n
}
