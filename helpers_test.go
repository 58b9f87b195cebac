package ique

import "encoding/binary"

func (m *mockTransport) queueStatusReply(echo uint32, status int32) {
	body := make([]byte, 8)
	binary.BigEndian.PutUint32(body[0:4], echo)
	binary.BigEndian.PutUint32(body[4:8], uint32(status))
	m.queueFramedReply(body)
}
