package fs

import (
	"io"
	"time"

	"github.com/ique-tools/aulon-go/wire"
)

// mockTransport is a stand-in for a real console: Transport calls are
// driven by a scripted reply queue exactly like the framing/commands
// mocks, so the commands package runs unmodified against it. The blocks,
// spares and files maps are never read by Send or Receive; every reply a
// test needs is scripted with the queue helpers.
type mockTransport struct {
	blocks map[uint32][]byte
	spares map[uint32][]byte
	files  map[string][]byte // filename -> full file contents; not consulted by FILE_CHKSUM replies

	sent       [][]byte
	recvQueue  [][]byte
	packetSize int
}

func newMockNAND() *mockTransport {
	return &mockTransport{
		blocks:     make(map[uint32][]byte),
		spares:     make(map[uint32][]byte),
		files:      make(map[string][]byte),
		packetSize: 64,
	}
}

func (m *mockTransport) Send(data []byte, _ time.Duration) (int, error) {
	cp := append([]byte{}, data...)
	m.sent = append(m.sent, cp)
	return len(data), nil
}

func (m *mockTransport) Receive(buf []byte, _ time.Duration) (int, error) {
	if len(m.recvQueue) == 0 {
		return 0, io.EOF
	}
	next := m.recvQueue[0]
	m.recvQueue = m.recvQueue[1:]
	return copy(buf, next), nil
}

func (m *mockTransport) PacketSize() int { return m.packetSize }

func (m *mockTransport) queueReady() {
	m.recvQueue = append(m.recvQueue, []byte{0x15, 0x00, 0x00, 0x00})
}

func (m *mockTransport) queueFramedReply(data []byte) {
	m.recvQueue = append(m.recvQueue, []byte{0x1B, byte(len(data) >> 16), byte(len(data) >> 8), byte(len(data))})
	tagged := tagDevicePiecemeal(data)
	for off := 0; off < len(tagged); off += m.packetSize {
		end := off + m.packetSize
		if end > len(tagged) {
			end = len(tagged)
		}
		m.recvQueue = append(m.recvQueue, tagged[off:end])
	}
	if len(tagged) == 0 || len(tagged)%m.packetSize == 0 {
		m.recvQueue = append(m.recvQueue, nil)
	}
}

func tagDevicePiecemeal(data []byte) []byte {
	out := make([]byte, 0, (len(data)/3+1)*4)
	for off := 0; off < len(data); {
		n := len(data) - off
		if n > 3 {
			n = 3
		}
		group := make([]byte, 4)
		group[0] = byte(0x1C + n)
		copy(group[1:1+n], data[off:off+n])
		out = append(out, group...)
		off += n
	}
	return out
}

// setBlock records a block+spare in the blocks and spares maps. Receive
// does not serve from these maps, so superblock slots for LoadCurrentFS
// are scripted with queueReadBlockSpare instead.
func (m *mockTransport) setBlock(block uint32, data, spare []byte) {
	m.blocks[block] = append([]byte{}, data...)
	m.spares[block] = append([]byte{}, spare...)
}

func defaultSpare() []byte {
	s := make([]byte, wire.SpareSize)
	for i := range s {
		s[i] = 0xFF
	}
	return s
}
