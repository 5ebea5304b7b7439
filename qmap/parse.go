package qmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
)

// The Parse* functions decode untrusted JSON documents. Decoding is total:
// every required field must be present, every element must have its declared
// type (nulls and fractional numbers are rejected) and unknown fields are
// errors. Any violation is reported as a *MalformedDataError.

// ParseArchitecture decodes {height, width, alg_qubits, magic_states}.
func ParseArchitecture(data []byte) (Architecture, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return Architecture{}, err
	}
	return parseArchitecture(doc, "arch")
}

// ParseCircuit decodes {arch, gates}.
func ParseCircuit(data []byte) (Circuit, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return Circuit{}, err
	}
	obj, err := object(doc, "", []string{"arch", "gates"}, nil)
	if err != nil {
		return Circuit{}, err
	}
	arch, err := parseArchitecture(obj["arch"], "arch")
	if err != nil {
		return Circuit{}, err
	}
	gates, err := gateList(obj["gates"], "gates")
	if err != nil {
		return Circuit{}, err
	}
	return NewCircuit(arch, gates)
}

// ParseMapping decodes {map, arch, gates}.
func ParseMapping(data []byte) (*Mapping, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	obj, err := object(doc, "", []string{"map", "arch", "gates"}, nil)
	if err != nil {
		return nil, err
	}
	return parseMappingFields(obj)
}

// ParseRouting decodes {map, arch, gates, steps}. Operation kinds are
// normalized (tdg → t, cnot → cx).
func ParseRouting(data []byte) (*Routing, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	obj, err := object(doc, "", []string{"map", "arch", "gates", "steps"}, nil)
	if err != nil {
		return nil, err
	}
	m, err := parseMappingFields(obj)
	if err != nil {
		return nil, err
	}
	steps, err := parseSteps(obj["steps"], "steps")
	if err != nil {
		return nil, err
	}
	return &Routing{Mapping: *m, Steps: steps}, nil
}

func parseMappingFields(obj map[string]any) (*Mapping, error) {
	m, err := stringIntMap(obj["map"], "map")
	if err != nil {
		return nil, err
	}
	arch, err := parseArchitecture(obj["arch"], "arch")
	if err != nil {
		return nil, err
	}
	gates, err := gateList(obj["gates"], "gates")
	if err != nil {
		return nil, err
	}
	return NewMapping(m, arch, gates)
}

func parseArchitecture(v any, field string) (Architecture, error) {
	obj, err := object(v, field, []string{"height", "width", "alg_qubits", "magic_states"}, nil)
	if err != nil {
		return Architecture{}, err
	}
	height, err := integer(obj["height"], field+".height")
	if err != nil {
		return Architecture{}, err
	}
	width, err := integer(obj["width"], field+".width")
	if err != nil {
		return Architecture{}, err
	}
	alg, err := intList(obj["alg_qubits"], field+".alg_qubits")
	if err != nil {
		return Architecture{}, err
	}
	magic, err := intList(obj["magic_states"], field+".magic_states")
	if err != nil {
		return Architecture{}, err
	}
	return NewArchitecture(height, width, alg, magic)
}

func parseSteps(v any, field string) ([][]ScheduledOp, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, malformed(field, "expected a list, got %s", typeName(v))
	}
	steps := make([][]ScheduledOp, 0, len(list))
	for i, sv := range list {
		stepField := fmt.Sprintf("%s[%d]", field, i)
		ops, ok := sv.([]any)
		if !ok {
			return nil, malformed(stepField, "expected a list, got %s", typeName(sv))
		}
		step := make([]ScheduledOp, 0, len(ops))
		for j, ov := range ops {
			op, err := parseScheduledOp(ov, fmt.Sprintf("%s[%d]", stepField, j))
			if err != nil {
				return nil, err
			}
			step = append(step, op)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func parseScheduledOp(v any, field string) (ScheduledOp, error) {
	obj, err := object(v, field, []string{"id", "op", "qubits", "path"}, nil)
	if err != nil {
		return ScheduledOp{}, err
	}
	id, err := integer(obj["id"], field+".id")
	if err != nil {
		return ScheduledOp{}, err
	}
	raw, ok := obj["op"].(string)
	if !ok {
		return ScheduledOp{}, malformed(field+".op", "expected a string, got %s", typeName(obj["op"]))
	}
	qubits, err := intList(obj["qubits"], field+".qubits")
	if err != nil {
		return ScheduledOp{}, err
	}
	path, err := intList(obj["path"], field+".path")
	if err != nil {
		return ScheduledOp{}, err
	}
	kind, err := NormalizeOpKind(raw, len(qubits))
	if err != nil {
		return ScheduledOp{}, malformed(field+".op", "%v", err)
	}
	return ScheduledOp{ID: id, Op: kind, Qubits: qubits, Path: path}, nil
}

// decodeDocument decodes exactly one JSON value, keeping numbers as json.Number.
func decodeDocument(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, malformed("", "invalid JSON: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, malformed("", "trailing data after JSON document")
	}
	return doc, nil
}

func object(v any, field string, required, optional []string) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, malformed(orRoot(field), "expected an object, got %s", typeName(v))
	}
	for _, k := range required {
		if _, present := obj[k]; !present {
			return nil, malformed(join(field, k), "required field missing")
		}
	}
	for k := range obj {
		if !slices.Contains(required, k) && !slices.Contains(optional, k) {
			return nil, malformed(join(field, k), "unknown field")
		}
	}
	return obj, nil
}

func integer(v any, field string) (int, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, malformed(field, "expected an integer, got %s", typeName(v))
	}
	i, err := n.Int64()
	if err != nil {
		return 0, malformed(field, "expected an integer, got %s", n.String())
	}
	return int(i), nil
}

func intList(v any, field string) ([]int, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, malformed(field, "expected a list of integers, got %s", typeName(v))
	}
	out := make([]int, 0, len(list))
	for i, e := range list {
		n, err := integer(e, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func gateList(v any, field string) ([][]int, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, malformed(field, "expected a list of gates, got %s", typeName(v))
	}
	out := make([][]int, 0, len(list))
	for i, e := range list {
		g, err := intList(e, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func stringIntMap(v any, field string) (map[string]int, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, malformed(field, "expected an object of integers, got %s", typeName(v))
	}
	out := make(map[string]int, len(obj))
	keys := slices.Sorted(maps.Keys(obj))
	for _, k := range keys {
		n, err := integer(obj[k], fmt.Sprintf("%s[%q]", field, k))
		if err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func join(field, key string) string {
	if field == "" {
		return key
	}
	return field + "." + key
}

func orRoot(field string) string {
	if field == "" {
		return "document"
	}
	return field
}
