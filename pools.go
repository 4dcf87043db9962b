package memdb

import "sync"

var valueBytesPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 4096)
	},
}

var victimsPool = &sync.Pool{
	New: func() any {
		return make([]string, 0, 256)
	},
}
