package utils

import (
	"math/rand"
	"sync"
	"time"
)

// Push keys encode their creation time in the first eight characters, so
// lexicographic order is arrival order. Same scheme the chat widget's log uses.
const pushChars = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

var (
	pushMutex    sync.Mutex
	lastPushTime int64
	lastRandBits [12]int
)

// NewPushID returns a 20-character key that sorts after every key generated
// earlier by this process, including keys generated within the same millisecond.
func NewPushID() string {
	pushMutex.Lock()
	defer pushMutex.Unlock()

	now := time.Now().UnixMilli()
	duplicate := now == lastPushTime
	lastPushTime = now

	var buf [20]byte
	for i := 7; i >= 0; i-- {
		buf[i] = pushChars[now%64]
		now /= 64
	}

	if !duplicate {
		for i := 0; i < 12; i++ {
			lastRandBits[i] = rand.Intn(64)
		}
	} else {
		// Increment the previous random suffix so the key still sorts later.
		i := 11
		for i >= 0 && lastRandBits[i] == 63 {
			lastRandBits[i] = 0
			i--
		}
		if i >= 0 {
			lastRandBits[i]++
		}
	}

	for i := 0; i < 12; i++ {
		buf[8+i] = pushChars[lastRandBits[i]]
	}

	return string(buf[:])
}
