package pool

import (
	"fmt"
	"sync"
)

// Pool is similar to sync.Pool, except that Pool has limited capacity and
// never drops its elements
type Pool[T any] struct {
	size     int
	capacity int
	cache    chan T
	lock     sync.Mutex
	newFunc  func() T
}

func Empty[T any](capacity int, newFunc func() T) *Pool[T] {
	if capacity <= 0 {
		panic(fmt.Errorf("invalid argument for New Pool"))
	}
	p := new(Pool[T])
	p.capacity = capacity
	p.cache = make(chan T, capacity)
	p.newFunc = newFunc
	return p
}

// TryGet try pop one resource from pool channel. If channel is empty, function returns false immediately
func (p *Pool[T]) TryGet() (T, bool) {
	select {
	case e := <-p.cache:
		return e, true
	default:
		var zero T
		return zero, false
	}
}

// TryNew creates a resource if the pool has not reached its capacity yet
func (p *Pool[T]) TryNew() (T, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.size < p.capacity {
		p.size++
		return p.newFunc(), true
	}
	var zero T
	return zero, false
}

// Put returns a resource. Putting more resources than the pool created blocks.
func (p *Pool[T]) Put(element T) {
	p.cache <- element
}

func (p *Pool[T]) Cap() int {
	return p.capacity
}

// Size is the number of resources created so far
func (p *Pool[T]) Size() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.size
}

// Idle is the number of resources waiting in the pool
func (p *Pool[T]) Idle() int {
	return len(p.cache)
}
