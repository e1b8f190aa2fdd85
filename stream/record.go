package stream

import (
	"fmt"
	"reflect"
	"sort"

	om "github.com/cevaris/ordered_map"
	h "github.com/relloyd/empetl/helper"
	"github.com/relloyd/empetl/logger"
)

// NewRecord creates a new Record and returns it by value as we expect these records to go over
// channels by value too.
func NewRecord() Record {
	return Record{
		data: make(map[string]interface{}),
	}
}

// NewRecordFromStringMap builds a Record holding a copy of m.
func NewRecordFromStringMap(m map[string]string) Record {
	r := NewRecord()
	for k, v := range m {
		r.data[k] = v
	}
	return r
}

func NewNilRecord() Record {
	return Record{}
}

func (sr Record) RecordIsNil() bool {
	return sr.data == nil
}

// Record is used to communicate data between components.
type Record struct {
	data map[string]interface{} // raw data values, which can represent null database values as nil interfaces.
}

func (sr Record) SetData(name string, value interface{}) {
	sr.data[name] = value
}

func (sr Record) GetData(name string) interface{} {
	val, ok := sr.data[name]
	if !ok {
		panic(fmt.Sprintf("Invalid key name %q supplied while trying to fetch value from record: %v", name, sr.data))
	}
	return val
}

func (sr Record) GetDataMap() map[string]interface{} {
	return sr.data
}

// GetDataAsStringUseUtcTime will convert interface{} value to a string for the purposes of gt/lt comparison.
// Times will be converted to UTC for string comparison!
func (sr Record) GetDataAsStringUseUtcTime(log logger.Logger, name string) (retval string) {
	return sr.getStringFromInterface(log, name, true)
}

// GetDataAsStringPreserveTimeZone will convert interface{} value to a string.
// Times will be in local time.
func (sr Record) GetDataAsStringPreserveTimeZone(log logger.Logger, name string) (retval string) {
	return sr.getStringFromInterface(log, name, false)
}

func (sr Record) getStringFromInterface(log logger.Logger, name string, useUTC bool) (retval string) {
	v, ok := sr.data[name]
	if !ok {
		panic(fmt.Sprintf("unexpected field %q does not exist in the input stream", name))
	}
	return h.GetStringFromInterface(log, v, useUTC)
}

// GetDataKeysAsSlice builds a slice of strings containing the values found in sr.data for each of the supplied
// keys in slice keys.
func (sr Record) GetDataKeysAsSlice(log logger.Logger, keys []string) []string {
	retval := make([]string, 0, len(keys))
	for _, k := range keys {
		retval = append(retval, sr.GetDataAsStringPreserveTimeZone(log, k))
	}
	return retval
}

// GetStringMap returns a map of key to string value for each of the supplied keys.
// Keys missing from the record cause a panic.
func (sr Record) GetStringMap(log logger.Logger, keys []string) map[string]string {
	retval := make(map[string]string, len(keys))
	for _, k := range keys {
		retval[k] = sr.GetDataAsStringUseUtcTime(log, k)
	}
	return retval
}

func (sr Record) GetDataLen() int {
	return len(sr.data)
}

// GetSortedDataMapKeys will return a slice of the keys found in map sr.data, sorted alphabetically.
func (sr Record) GetSortedDataMapKeys() []string {
	retval := make([]string, 0, len(sr.data))
	for k := range sr.data {
		retval = append(retval, k)
	}
	sort.Strings(retval)
	return retval
}

func (sr Record) CopyTo(t Record) {
	for k, v := range sr.data {
		t.SetData(k, v)
	}
}

// DataCanJoinByKeyFields compares two records using key fields for equality (return 0)
// less-than (return -1) or greater-than (return 1) status where return values are:
// -1 if sr is less than targetRec
//  0 if sr matches targetRec
//  1 if sr is greater than targetRec
// joinKeys maps field names in sr (keys) to field names in targetRec (values).
func (sr Record) DataCanJoinByKeyFields(log logger.Logger, targetRec Record, joinKeys *om.OrderedMap) (retval int) {
	iter := joinKeys.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() { // for each key to compare...
		m1v := sr.GetDataAsStringUseUtcTime(log, h.GetStringFromInterfaceUseUtcTime(log, kv.Key))
		m2v := targetRec.GetDataAsStringUseUtcTime(log, h.GetStringFromInterfaceUseUtcTime(log, kv.Value))
		log.Trace("DataCanJoinByKeyFields() comparing ", m1v, " with ", m2v)
		if m1v < m2v {
			retval = -1 // exit early as we have found a difference.
			break
		} else if m1v == m2v {
			retval = 0 // continue to check the next key.
		} else {
			retval = 1
			break
		}
	}
	return
}

// DataIsDeepEqual compares two records for equality using reflect.DeepEqual on string forms of their values.
// Specify the keys to use for the comparison in ordered map compareKeys.
// Example: use contents of compareKeys["X"]="Y" to check if sr["X"] == targetRec["Y"] and repeat for all keys.
func (sr Record) DataIsDeepEqual(log logger.Logger, targetRec Record, compareKeys *om.OrderedMap) (retval bool) {
	retval = true
	iter := compareKeys.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() { // while we have more keys to compare...
		v1 := sr.GetDataAsStringUseUtcTime(log, h.GetStringFromInterfaceUseUtcTime(log, kv.Key))
		v2 := targetRec.GetDataAsStringUseUtcTime(log, h.GetStringFromInterfaceUseUtcTime(log, kv.Value))
		retval = reflect.DeepEqual(v1, v2)
		if !retval { // if records are NOT equal then return early!
			break
		}
	}
	log.Trace("DataIsDeepEqual() returning ", retval)
	return
}

// GetDataByKeys builds a list of data values found in the supplied Record using the keys supplied.
// Output: this function modifies the supplied list 'l' and 'idx' by reference.
// 'idx' is the next index in the slice 'l' to populate.
// 'keys' is the map whose values are field names in sr.data.
func (sr Record) GetDataByKeys(log logger.Logger, keys *om.OrderedMap, l *[]interface{}, idx *int) {
	iter := keys.IterFunc()
	if iter == nil {
		log.Panic("GetDataByKeys() failed to get iterFunc.")
	}
	for kv, ok := iter(); ok; kv, ok = iter() {
		(*l)[*idx] = sr.GetData(kv.Value.(string))
		*idx++ // save the location in the slice for the caller
	}
}

// MergeDataStreams will combine records from s1 into a new record, followed by s2 into the new record before
// returning it. You can supply a nil s2 to create a copy of s1 that is returned.
// If allowOverwrite is false, an error is returned if a field in s2 already exists in s1.
func MergeDataStreams(s1 Record, s2 Record, allowOverwrite bool) (Record, error) {
	retval := NewRecord()
	for k, v := range s1.GetDataMap() { // for each key:value in the 1st source...
		retval.data[k] = v
	}
	if !s2.RecordIsNil() { // if s2 is not empty...
		for k, v := range s2.GetDataMap() { // for each key:value in the 2nd source...
			_, ok := retval.data[k]
			if ok && !allowOverwrite { // if the key already exists...
				return Record{}, fmt.Errorf("field %v exists in stream record", k)
			} else {
				retval.data[k] = v
			}
		}
	}
	return retval, nil
}
