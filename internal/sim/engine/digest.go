package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// Digest hashes the current tick, every colony (alive flag, name, edges) and
// every ant. Two engines with the same digest are in the same state.
func (e *Engine) Digest() string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, e.tick)
	digestWriteU64(h, &tmp, uint64(e.world.Len()))
	for id := 0; id < e.world.Len(); id++ {
		h.Write([]byte{boolByte(e.world.Alive(id))})
		h.Write([]byte(e.world.Name(id)))
		h.Write([]byte{0})
		out := e.world.Outgoing(id)
		digestWriteU64(h, &tmp, uint64(len(out)))
		for _, ed := range out {
			h.Write([]byte{byte(ed.Dir)})
			digestWriteU64(h, &tmp, uint64(ed.To))
		}
	}

	digestWriteU64(h, &tmp, uint64(len(e.ants)))
	for i := range e.ants {
		a := &e.ants[i]
		digestWriteU64(h, &tmp, uint64(a.Colony))
		digestWriteU64(h, &tmp, uint64(a.Moves))
		h.Write([]byte{boolByte(a.Alive)})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
