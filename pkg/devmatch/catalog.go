package devmatch

import "sort"

// nameBufferSize bounds property and header names. Names that do not fit are
// treated by the engine as end-of-list, so the catalog never needs the
// resize-retry protocol used for property values.
const nameBufferSize = 256

// propertyCatalog maps property names to engine-assigned indices. Built once
// per load under the registry lock and read-only afterwards, so lookups need
// no synchronization.
type propertyCatalog struct {
	indexByName map[string]uint32
	names       []string // in index order
}

// buildCatalog queries the engine for property names at increasing indices
// until it reports a non-positive length.
func buildCatalog(api API) *propertyCatalog {
	c := &propertyCatalog{indexByName: make(map[string]uint32)}
	buf := make([]byte, nameBufferSize)

	for i := 0; ; i++ {
		n := api.PropertyName(i, buf)
		if n <= 0 {
			break
		}
		name := string(buf[:n])

		idx := api.PropertyIndex(name)
		if idx < 0 {
			idx = i
		}
		c.indexByName[name] = uint32(idx)
		c.names = append(c.names, name)
	}
	return c
}

// headerNames collects the engine's relevant HTTP header names, sorted
// ascending.
func headerNames(api API) []string {
	var headers []string
	buf := make([]byte, nameBufferSize)

	for i := 0; ; i++ {
		n := api.HTTPHeaderName(i, buf)
		if n <= 0 {
			break
		}
		headers = append(headers, string(buf[:n]))
	}
	sort.Strings(headers)
	return headers
}

// lookup is a case-sensitive exact-match lookup.
func (c *propertyCatalog) lookup(name string) (uint32, bool) {
	idx, ok := c.indexByName[name]
	return idx, ok
}

// propertyNames returns a copy of the catalog's names in index order.
func (c *propertyCatalog) propertyNames() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}
