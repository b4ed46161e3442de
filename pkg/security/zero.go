package security

// ZeroBytes overwrites b so secret material does not linger in memory.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroString clears the backing storage reference of s.
func ZeroString(s *string) {
	*s = ""
}
