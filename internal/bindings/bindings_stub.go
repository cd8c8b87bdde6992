//go:build !cgo || windows

package bindings

// Stub implementations for non-CGO builds or Windows. These keep the package
// compiling everywhere; Init reports StatusNotBuilt so callers can surface a
// useful error instead of crashing at the cgo boundary.

func Init(string, string) Status { return StatusNotBuilt }

func Destroy() {}

func CreateMatch(string) MatchRef { return 0 }

func FreeMatch(MatchRef) {}

func PropertyName(int, []byte) int { return 0 }

func HTTPHeaderName(int, []byte) int { return 0 }

func PropertyIndex(string) int { return -1 }

func PropertyValue(MatchRef, int, []byte) int { return 0 }

func MatchedAgentLength(MatchRef) int { return 0 }

func Version() string { return "" }
