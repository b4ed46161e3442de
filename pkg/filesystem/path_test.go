package filesystem

import "testing"

func TestSafePath(t *testing.T) {
	tests := []struct {
		name     string
		baseDir  string
		filename string
		wantErr  bool
	}{
		{"plain file", "/var/lib/trustcore", "node_signing.key", false},
		{"subdirectory", "/var/lib/trustcore", "keys/node_signing.key", false},
		{"traversal", "/var/lib/trustcore", "../../../etc/passwd", true},
		{"traversal after clean", "/var/lib/trustcore", "keys/../../../etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SafePath(tt.baseDir, tt.filename)
			if (err != nil) != tt.wantErr {
				t.Errorf("SafePath(%q, %q) error = %v, wantErr %v", tt.baseDir, tt.filename, err, tt.wantErr)
			}
		})
	}
}
