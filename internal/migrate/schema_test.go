package migrate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"world-api/internal/place"
)

func TestStatements_CoverEveryLevel(t *testing.T) {
	t.Parallel()
	stmts := Statements()
	all := strings.Join(stmts, "\n")
	for _, l := range place.Levels {
		assert.Contains(t, all, "CREATE TABLE IF NOT EXISTS "+string(l)+" (")
		assert.Contains(t, all, "idx_"+string(l)+"_names")
		assert.Contains(t, all, "idx_"+string(l)+"_geo")
	}
	assert.Contains(t, all, "PRIMARY KEY (from_level, from_key)")
	for _, s := range stmts {
		assert.Contains(t, s, "IF NOT EXISTS")
	}
}
