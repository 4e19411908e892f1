package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaCreatesOAuthWithUpdatedAt(t *testing.T) {
	var oauthDDL string
	for _, step := range schema {
		assert.NotContains(t, strings.ToUpper(step.ddl), "ADD COLUMN", "step %s", step.name)
		if step.name == "oauth" {
			oauthDDL = step.ddl
		}
	}
	assert.Contains(t, oauthDDL, "updated_at          TIMESTAMPTZ NOT NULL")
}
