package pointer

// Uint8 returns a pointer to the provided uint8 value
func Uint8(value uint8) *uint8 {
	return &value
}

// Uint8Copy returns a pointer that's a copy of the provided value
func Uint8Copy(value *uint8) *uint8 {
	if value == nil {
		return nil
	}
	return Uint8(*value)
}

// Bool returns a pointer to the provided bool value
func Bool(value bool) *bool {
	return &value
}

// BoolOrDefault returns the value if not nil, otherwise the default value
func BoolOrDefault(value *bool, defaultValue bool) bool {
	if value != nil {
		return *value
	}
	return defaultValue
}
