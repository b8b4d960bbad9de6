package engine

import "time"

func toBCD(v int) byte {
	return byte((v/10)<<4 | (v % 10))
}

// SetRTC writes the host's current wall-clock time to the cart's real-time
// clock, packed as 8 BCD bytes across the command's two argument words.
// Weekday is 1 (Monday) through 7 (Sunday): time.Weekday's value for
// Monday through Saturday, with Sunday wrapped to 7 instead of 0.
func (e *Engine) SetRTC(t time.Time) error {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	b := [8]byte{
		toBCD(weekday),
		toBCD(t.Hour()),
		toBCD(t.Minute()),
		toBCD(t.Second()),
		0,
		toBCD(t.Year() % 100),
		toBCD(int(t.Month())),
		toBCD(t.Day()),
	}
	arg0 := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	arg1 := uint32(b[4])<<24 | uint32(b[5])<<16 | uint32(b[6])<<8 | uint32(b[7])
	_, err := e.exec('T', arg0, arg1, nil, defaultTimeout)
	return err
}
