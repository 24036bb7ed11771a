package blocks

import (
	"sync"
	"testing"
)

// Readers never see the output enable of one drive with the value of another.
//
func TestPinsDriveAtomic(t *testing.T) {
	p := NewPins(64)
	p.SetExt(^uint64(0))
	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for k := 0; ; k++ {
			select {
			case <-done:
				return
			default:
			}
			if k&1 == 0 {
				p.drive(0, 0)
			} else {
				p.drive(^uint64(0), ^uint64(0))
			}
		}
	}()
	for i := 0; i < 100000; i++ {
		pin := p.Pin(i % 64)
		if pin.OE != pin.Out {
			close(done)
			wg.Wait()
			t.Fatalf("torn pin state %+v", pin)
		}
		if l := p.Levels(); l != ^uint64(0) {
			close(done)
			wg.Wait()
			t.Fatalf("torn levels %#x", l)
		}
	}
	close(done)
	wg.Wait()
}
