package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Foo", "foo"},
		{"My Cool Tool!", "my-cool-tool"},
		{"  --GPT 4o  mini--  ", "gpt-4o-mini"},
		{"C++ / Rust", "c-rust"},
		{"Café", "caf"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.in))
		})
	}
}
