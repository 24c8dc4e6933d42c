package models

// DeepMerge merges src into dst key-by-key. Nested maps merge recursively;
// scalars and non-map values replace. A nil src value deletes the key.
// dst is not mutated; the merged result is returned.
func DeepMerge(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return cloneMap(dst)
	}
	out := cloneMap(dst)
	if out == nil {
		out = make(map[string]any, len(src))
	}
	for k, v := range src {
		if v == nil {
			delete(out, k)
			continue
		}
		srcChild, srcIsMap := v.(map[string]any)
		dstChild, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = DeepMerge(dstChild, srcChild)
			continue
		}
		if srcIsMap {
			out[k] = cloneMap(srcChild)
			continue
		}
		out[k] = v
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if child, ok := v.(map[string]any); ok {
			out[k] = cloneMap(child)
			continue
		}
		out[k] = v
	}
	return out
}
