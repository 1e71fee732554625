package core

// EnvironmentFile is a named set of variables substitutable into request
// fields. The name doubles as the identity; at most one environment is active
// at a time, tracked by the workspace, not here.
type EnvironmentFile struct {
	name      string
	variables map[string]string
	keys      []string
}

// NewEnvironmentFile creates an empty environment file.
func NewEnvironmentFile(name string) *EnvironmentFile {
	return &EnvironmentFile{
		name:      name,
		variables: make(map[string]string),
	}
}

func (e *EnvironmentFile) Name() string { return e.name }

// Variables returns a copy of the variable map.
func (e *EnvironmentFile) Variables() map[string]string {
	result := make(map[string]string, len(e.variables))
	for k, v := range e.variables {
		result[k] = v
	}
	return result
}

// Keys returns the variable names in insertion order.
func (e *EnvironmentFile) Keys() []string {
	result := make([]string, len(e.keys))
	copy(result, e.keys)
	return result
}

// GetVariable returns a variable value and whether it exists.
func (e *EnvironmentFile) GetVariable(key string) (string, bool) {
	v, ok := e.variables[key]
	return v, ok
}

// SetVariable sets a variable value, preserving first-set order for new keys.
func (e *EnvironmentFile) SetVariable(key, value string) {
	if _, exists := e.variables[key]; !exists {
		e.keys = append(e.keys, key)
	}
	e.variables[key] = value
}

// DeleteVariable removes a variable.
func (e *EnvironmentFile) DeleteVariable(key string) {
	if _, exists := e.variables[key]; !exists {
		return
	}
	delete(e.variables, key)
	for i, k := range e.keys {
		if k == key {
			e.keys = append(e.keys[:i], e.keys[i+1:]...)
			break
		}
	}
}

// Clone creates a deep copy of the environment file.
func (e *EnvironmentFile) Clone() *EnvironmentFile {
	clone := NewEnvironmentFile(e.name)
	for _, k := range e.keys {
		clone.SetVariable(k, e.variables[k])
	}
	return clone
}
