package bindings

// Status mirrors the devmatch_status_t enum reported by the native matcher
// when loading a data file. Values other than StatusSuccess are surfaced to
// callers unmodified; the wrapper never interprets them beyond display.
type Status int32

const (
	StatusSuccess            Status = 0
	StatusInsufficientMemory Status = 1
	StatusCorruptData        Status = 2
	StatusIncorrectVersion   Status = 3
	StatusFileNotFound       Status = 4

	// StatusNotBuilt is Go-side only: the package was compiled without the
	// native bindings (no cgo, or an unsupported platform).
	StatusNotBuilt Status = -1
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusInsufficientMemory:
		return "insufficient memory"
	case StatusCorruptData:
		return "corrupt data file"
	case StatusIncorrectVersion:
		return "incorrect data file version"
	case StatusFileNotFound:
		return "data file not found"
	case StatusNotBuilt:
		return "native bindings not built"
	default:
		return "unknown status"
	}
}

// MatchRef is an opaque reference to a native match workset. The zero value
// means no allocation. A MatchRef is valid from the engine match call that
// produced it until the corresponding FreeMatch.
type MatchRef uintptr
