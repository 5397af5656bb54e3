package sandbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateProjectID(t *testing.T) {
	t.Parallel()

	at := time.Unix(1700000000, 0)

	tests := []struct {
		name  string
		email string
		want  string
		valid bool
	}{
		{name: "dotted local part", email: "alice.smith@corp.example", want: "alice-smith-1700000000", valid: true},
		{name: "uppercase is lowered", email: "Bob.Jones@corp.example", want: "bob-jones-1700000000", valid: true},
		{name: "plus sign is not allowed", email: "carol+dev@corp.example", want: "carol+dev-1700000000", valid: false},
		{name: "leading digit is not allowed", email: "1dave@corp.example", want: "1dave-1700000000", valid: false},
		{name: "too long", email: "a.very.long.local.part.name@corp.example", want: "a-very-long-local-part-name-1700000000", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := GenerateProjectID(tt.email, at)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, ValidProjectID(got))
		})
	}
}

func TestUserPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "alice-smith", UserPrefix("alice.smith@corp.example"))
	assert.Equal(t, "noatsign", UserPrefix("noatsign"))
}

func TestLabelValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "data_science", labelValue("Data Science"))
	assert.Len(t, labelValue(string(make([]byte, 100))), maxLabelLength)
}
