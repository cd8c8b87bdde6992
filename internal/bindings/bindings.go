//go:build cgo && !windows

package bindings

/*
#cgo CFLAGS: -I${SRCDIR}/../../native/src -Wno-parentheses
#cgo LDFLAGS: -L${SRCDIR}/../../native/lib -ldevmatch
#include <stdlib.h>
#include "devmatch_capi.h"
*/
import "C"

import "unsafe"

// Init loads the trie data file into the native matcher's process-global
// state. properties is a comma-separated filter; empty means all properties.
// The native engine is a singleton: callers must serialize Init/Destroy and
// never hold two loads at once. That discipline lives in pkg/devmatch.
func Init(path, properties string) Status {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	cProps := C.CString(properties)
	defer C.free(unsafe.Pointer(cProps))

	return Status(C.devmatch_init_with_property_string(cPath, cProps))
}

// Destroy releases the process-global engine state. Calling it while any
// match workset is still allocated is undefined behavior in the native code.
func Destroy() {
	C.devmatch_destroy()
}

// CreateMatch runs the matcher over input (a raw User-Agent or concatenated
// "Name: Value" header lines) and returns a reference to the resulting
// workset, or zero on failure.
func CreateMatch(input string) MatchRef {
	cIn := C.CString(input)
	defer C.free(unsafe.Pointer(cIn))

	return MatchRef(uintptr(unsafe.Pointer(C.devmatch_match_create(cIn))))
}

// FreeMatch releases a match workset. Zero refs are ignored.
func FreeMatch(ref MatchRef) {
	if ref == 0 {
		return
	}
	C.devmatch_match_free(unsafe.Pointer(uintptr(ref)))
}

// PropertyName copies the name of the property at index into buf and returns
// the number of bytes written. A non-positive return means no property exists
// at that index (or the name did not fit).
func PropertyName(index int, buf []byte) int {
	return int(C.devmatch_get_property_name(C.int32_t(index),
		(*C.char)(unsafe.Pointer(&buf[0])), C.int32_t(len(buf))))
}

// HTTPHeaderName copies the name of the HTTP header at index into buf,
// with the same return convention as PropertyName.
func HTTPHeaderName(index int, buf []byte) int {
	return int(C.devmatch_get_http_header_name(C.int32_t(index),
		(*C.char)(unsafe.Pointer(&buf[0])), C.int32_t(len(buf))))
}

// PropertyIndex returns the engine-assigned index for a property name, or a
// negative value if the engine does not know the name.
func PropertyIndex(name string) int {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	return int(C.devmatch_get_property_index(cName))
}

// PropertyValue copies the value of the property at index for the given
// match into buf and returns the number of bytes written. A negative return
// encodes the required buffer size: callers grow to -n and retry once.
func PropertyValue(ref MatchRef, index int, buf []byte) int {
	return int(C.devmatch_get_property_value(unsafe.Pointer(uintptr(ref)),
		C.int32_t(index), (*C.char)(unsafe.Pointer(&buf[0])), C.int32_t(len(buf))))
}

// MatchedAgentLength returns the number of leading bytes of the submitted
// User-Agent the engine actually matched against.
func MatchedAgentLength(ref MatchRef) int {
	return int(C.devmatch_get_matched_agent_length(unsafe.Pointer(uintptr(ref))))
}

// Version returns the version string reported by the native engine.
func Version() string {
	buf := make([]byte, 32)
	n := int(C.devmatch_get_version((*C.char)(unsafe.Pointer(&buf[0])), C.int32_t(len(buf))))
	if n <= 0 {
		return ""
	}
	return string(buf[:n])
}
