package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRC(t *testing.T) {
	tests := []struct {
		name    string
		journal string
		code    string
		want    bool
	}{
		{"slash name", "R/C LAB Shops", "570000", true},
		{"spaced name", "RC Holding", "570000", true},
		{"receivable code", "Lening directie", "120001", true},
		{"payable code", "Lening directie", "140001", true},
		{"plain bank", "KBC Business", "570001", false},
		{"arc is not rc", "Arcade rekening", "570001", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRC(tc.journal, tc.code))
		})
	}
}

func TestRCSide(t *testing.T) {
	assert.Equal(t, "Vordering", RCSide("120001"))
	assert.Equal(t, "Schuld", RCSide("140001"))
	assert.Equal(t, "Schuld", RCSide(""))
}

func TestAccountCode(t *testing.T) {
	assert.Equal(t, "600000", AccountCode("600000 Gross wages"))
	assert.Equal(t, "600000", AccountCode("600000"))
	assert.Equal(t, "", AccountCode(""))
	assert.Equal(t, "", AccountCode("   "))
}
