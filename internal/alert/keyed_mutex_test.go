package alert

import (
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("keyedMutex", func() {
	It("should serialise holders of the same key and forget idle keys", func() {
		k := newKeyedMutex()
		var (
			wg      sync.WaitGroup
			holding int32
			maxSeen int32
		)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := k.Lock(1)
				n := atomic.AddInt32(&holding, 1)
				for {
					m := atomic.LoadInt32(&maxSeen)
					if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
						break
					}
				}
				atomic.AddInt32(&holding, -1)
				unlock()
			}()
		}
		wg.Wait()

		Expect(maxSeen).To(Equal(int32(1)))
		Expect(k.size()).To(BeZero())
	})

	It("should not block different keys", func() {
		k := newKeyedMutex()
		unlockA := k.Lock(1)
		unlockB := k.Lock(2)
		Expect(k.size()).To(Equal(2))
		unlockA()
		unlockB()
		Expect(k.size()).To(BeZero())
	})
})
