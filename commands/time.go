package commands

import (
	"fmt"
	"time"

	"github.com/ique-tools/aulon-go/framing"
	"github.com/ique-tools/aulon-go/wire"
)

// TimeData is the console's 8-byte clock payload: year-since-2000, month
// (1-12), day of month, weekday (0=Sunday), a reserved byte, hour, minute,
// second. All fields are plain binary, not BCD.
type TimeData [8]byte

// EncodeTimeData builds a TimeData from a UTC time, matching the console's
// field layout.
func EncodeTimeData(t time.Time) TimeData {
	u := t.UTC()
	var d TimeData
	d[0] = byte(u.Year() % 100)
	d[1] = byte(u.Month())
	d[2] = byte(u.Day())
	d[3] = byte(u.Weekday())
	d[4] = 0
	d[5] = byte(u.Hour())
	d[6] = byte(u.Minute())
	d[7] = byte(u.Second())
	return d
}

func (d TimeData) firstHalf() uint32 {
	return uint32(d[0])<<24 | uint32(d[1])<<16 | uint32(d[2])<<8 | uint32(d[3])
}

func (d TimeData) secondHalf() []byte {
	b := make([]byte, 4)
	copy(b, d[4:8])
	return b
}

// SetTime sets the console's clock. The caller typically passes
// EncodeTimeData(time.Now()).
func SetTime(t framing.Transport, data TimeData, timeout time.Duration) error {
	if err := framing.SendCommand(t, wire.CmdSetTime, data.firstHalf(), timeout); err != nil {
		return fmt.Errorf("SET_TIME command was not received: %w", err)
	}
	if _, err := receiveStatusReply(t, timeout, "setting the time"); err != nil {
		return err
	}
	if err := framing.SendPiecemeal(t, data.secondHalf(), timeout); err != nil {
		return fmt.Errorf("sending time data: %w", err)
	}
	return nil
}
