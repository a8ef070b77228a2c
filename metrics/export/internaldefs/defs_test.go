package internaldefs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefinitionsAreUnique(t *testing.T) {
	seen := map[string]bool{AuditDroppedName: true}
	for _, def := range CounterDefs {
		assert.False(t, seen[def.Name], "duplicate metric %s", def.Name)
		assert.True(t, strings.HasPrefix(def.Name, "authcore_"))
		assert.True(t, strings.HasSuffix(def.Name, "_total"))
		seen[def.Name] = true
	}
	for _, def := range HistogramDefs {
		assert.False(t, seen[def.Name], "duplicate metric %s", def.Name)
		seen[def.Name] = true
	}
	assert.Len(t, HistogramBoundSuffix, len(BucketUpperBounds)+1)
}

func TestCumulativeBuckets(t *testing.T) {
	raw := NormalizeBuckets([]uint64{1, 0, 2, 0, 0, 0, 0, 3})
	assert.Equal(t, [8]uint64{1, 1, 3, 3, 3, 3, 3, 6}, CumulativeBuckets(raw))

	short := NormalizeBuckets([]uint64{4})
	assert.Equal(t, [8]uint64{4, 4, 4, 4, 4, 4, 4, 4}, CumulativeBuckets(short))
}
