package timeutil

import "time"

func NowMilli() int64 {
	return time.Now().UnixMilli()
}
