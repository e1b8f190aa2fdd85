package transform

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var (
	// ErrXComNotFound is returned by PullRequired when a task ran but did not push the key.
	ErrXComNotFound = errors.New("xcom value not found")
	// ErrTaskNotRun is returned when the task has pushed nothing in this run.
	ErrTaskNotRun = errors.New("task has not pushed any xcom values in this run")
)

// XComStore holds the values that tasks hand to each other during one DAG run.
type XComStore struct {
	mu     sync.RWMutex
	values map[string]map[string]interface{} // task ID => key => value
}

func NewXComStore() *XComStore {
	return &XComStore{values: make(map[string]map[string]interface{})}
}

// Push saves value under taskID and key, replacing any earlier value.
func (x *XComStore) Push(taskID, key string, value interface{}) {
	x.mu.Lock()
	defer x.mu.Unlock()
	m, ok := x.values[taskID]
	if !ok {
		m = make(map[string]interface{})
		x.values[taskID] = m
	}
	m[key] = value
}

// Pull fetches the value pushed by taskID under key.
// ok is false when the task pushed other keys but not this one.
func (x *XComStore) Pull(taskID, key string) (value interface{}, ok bool, err error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	m, found := x.values[taskID]
	if !found {
		return nil, false, errors.Wrapf(ErrTaskNotRun, "pull %v from task %v", key, taskID)
	}
	value, ok = m[key]
	return value, ok, nil
}

// PullRequired is Pull with an absent key reported as ErrXComNotFound.
func (x *XComStore) PullRequired(taskID, key string) (interface{}, error) {
	v, ok, err := x.Pull(taskID, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrXComNotFound, "pull %v from task %v", key, taskID)
	}
	return v, nil
}

// Keys returns the sorted keys pushed by taskID.
func (x *XComStore) Keys(taskID string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	var retval []string
	for k := range x.values[taskID] {
		retval = append(retval, k)
	}
	sort.Strings(retval)
	return retval
}
