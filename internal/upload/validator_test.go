package upload

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/motionsense/pkg/types"
)

var defaultExtensions = []string{".txt", ".csv"}

const fiftyMB = 50 * 1024 * 1024

func TestExtension(t *testing.T) {
	assert.Equal(t, ".csv", Extension("session.CSV"))
	assert.Equal(t, ".txt", Extension("a.b.txt"))
	assert.Equal(t, ".", Extension("README"))
	assert.Equal(t, ".", Extension("csv"))
	assert.Equal(t, ".", Extension("trailing."))
	assert.Equal(t, ".", Extension(""))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		file FileInfo
		want error
	}{
		{"csv accepted", FileInfo{Name: "walk.csv", Size: 2 * 1024 * 1024}, nil},
		{"upper case accepted", FileInfo{Name: "WALK.TXT", Size: 1}, nil},
		{"at the limit", FileInfo{Name: "walk.txt", Size: fiftyMB}, nil},
		{"pdf rejected", FileInfo{Name: "report.pdf", Size: 10}, types.ErrInvalidType},
		{"no extension", FileInfo{Name: "csv", Size: 10}, types.ErrInvalidType},
		{"empty name", FileInfo{Name: "", Size: 10}, types.ErrInvalidType},
		{"too large", FileInfo{Name: "walk.csv", Size: fiftyMB + 1}, types.ErrTooLarge},
		{"type checked first", FileInfo{Name: "big.pdf", Size: fiftyMB + 1}, types.ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.file, defaultExtensions, fiftyMB)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestValidateMessages(t *testing.T) {
	err := Validate(FileInfo{Name: "a.pdf"}, defaultExtensions, fiftyMB)
	assert.Equal(t, "Please select a valid file type: .txt,.csv", types.UserMessage(err, ""))

	err = Validate(FileInfo{Name: "a.csv", Size: fiftyMB + 1}, defaultExtensions, fiftyMB)
	assert.Equal(t, "File size must be less than 50MB", types.UserMessage(err, ""))
}

func TestValidateNormalisesAllowList(t *testing.T) {
	assert.NoError(t, Validate(FileInfo{Name: "a.csv"}, []string{" CSV "}, 10))
	assert.NoError(t, Validate(FileInfo{Name: "a.txt"}, ParseExtensions(".txt, .csv"), 10))
	assert.Error(t, Validate(FileInfo{Name: "a."}, []string{"", ".csv"}, 10))
}

func TestParseExtensions(t *testing.T) {
	assert.Equal(t, []string{".txt", ".csv"}, ParseExtensions(" .txt,.csv ,"))
	assert.Nil(t, ParseExtensions(""))
}
