package fs

import "encoding/binary"

func (m *mockTransport) queueStatusReply(echo uint32, status int32) {
	body := make([]byte, 8)
	binary.BigEndian.PutUint32(body[0:4], echo)
	binary.BigEndian.PutUint32(body[4:8], uint32(status))
	m.queueFramedReply(body)
}

// queueReadBlockSpare scripts everything ReadBlockSpare needs for one
// successful attempt: the ready wait before the request, the request's
// status reply, four block-chunk replies, and the spare reply.
func (m *mockTransport) queueReadBlockSpare(block, spare []byte) {
	m.queueReady()
	m.queueStatusReply(0, 0)
	const chunk = 0x1000
	for i := 0; i < len(block); i += chunk {
		m.queueFramedReply(block[i : i+chunk])
	}
	m.queueFramedReply(spare)
}

// queueWriteBlockSpare scripts everything WriteBlockSpare needs for one
// successful attempt, assuming a non-bad spare buffer (byte 5 == 0xFF).
func (m *mockTransport) queueWriteBlockSpare() {
	m.queueReady() // SendCommand's internal wait
	m.queueReady() // requestBlockWrite's explicit WaitForReady
	m.queueReady() // sendSpare's WaitForReady
	m.queueStatusReply(0, 0)
}

// queueInitFS scripts one successful INIT_FS round trip.
func (m *mockTransport) queueInitFS() {
	m.queueReady()
	m.queueStatusReply(0, 0)
}

// queueSetSeqno scripts one successful SET_SEQNO round trip.
func (m *mockTransport) queueSetSeqno() {
	m.queueReady()
	m.queueStatusReply(0, 0)
}

// queueGetNumBlocks scripts a GET_NUM_BLOCKS reply reporting numBlocks.
func (m *mockTransport) queueGetNumBlocks(numBlocks uint32) {
	m.queueReady()
	m.queueStatusReply(0, int32(numBlocks))
}

// queueFileChecksum scripts a FILE_CHKSUM round trip: the filename phase
// (command, ready, piecemeal send, ready) and the params phase (command,
// status reply).
func (m *mockTransport) queueFileChecksum(matches bool) {
	m.queueReady() // SendCommand(FILE_CHKSUM,...)
	m.queueReady() // WaitForReady before filename
	m.queueReady() // WaitForReady after filename
	m.queueReady() // SendCommand(checksum,size)
	status := int32(0)
	if !matches {
		status = -1
	}
	m.queueStatusReply(0, status)
}
