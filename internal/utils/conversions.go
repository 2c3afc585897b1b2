package utils

// ToStringSlice keeps the string elements of a loosely typed JSON array.
func ToStringSlice(slice []any) []string {
	stringSlice := make([]string, 0)
	for _, v := range slice {
		if s, ok := v.(string); ok {
			stringSlice = append(stringSlice, s)
		}
	}
	return stringSlice
}

// FirstNonEmpty returns the first non-empty string.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
