package components

// ComponentWaiter is a simple interface for use around a wait group.
// Components call Add before starting their goroutine and Done when it exits.
type ComponentWaiter interface {
	Add()
	Done()
}
