package bolt

import "github.com/graphwire/boltcore/internal/protocol/value"

// Record is one row streamed in response to PULL_ALL, field order
// matching the RUN success metadata's "fields" list.
type Record []value.Value

// Result collects what Pull produces: the records streamed by PULL_ALL
// and the terminal SUCCESS metadata PULL_ALL itself carries (bookmark,
// stats, and so on). Conn.Pull does not fill Fields; the field names
// from RUN's SUCCESS metadata are returned by Conn.Run.
type Result struct {
	Fields  []string
	Records []Record
	Summary *value.Map
}

func fieldNames(meta *value.Map) []string {
	if meta == nil {
		return nil
	}
	raw, ok := meta.Get("fields")
	if !ok {
		return nil
	}
	list, ok := raw.AsList()
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.AsString(); ok {
			out = append(out, s)
		}
	}
	return out
}
