//nolint:revive // exported
package dbtime

import "time"

type DBTimeData time.Time

func (t DBTimeData) Time() time.Time {
	return DBTime(time.Time(t))
}

func DBNow() time.Time {
	return DBTime(time.Now())
}

func DBTime(t time.Time) time.Time {
	return t.UTC()
}

// Unix returns the seconds value stored in timestamp columns.
func Unix(t time.Time) int64 {
	return DBTime(t).Unix()
}

// FromUnix restores a column value written by Unix.
func FromUnix(sec int64) time.Time {
	return DBTime(time.Unix(sec, 0))
}
