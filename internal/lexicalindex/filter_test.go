package lexicalindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFilterClauseEscapesEmbeddedQuotes(t *testing.T) {
	clause, err := buildFilterClause(SearchFilters{ProjectPath: `evidence/"; DROP`})
	require.NoError(t, err)
	assert.Equal(t, `file_path STARTS WITH "evidence/\"; DROP"`, clause)
}

func TestBuildFilterClauseCombinesWithAND(t *testing.T) {
	clause, err := buildFilterClause(SearchFilters{
		FileTypes:   []string{"pdf", "email"},
		ScanIDs:     []int64{1, 2},
		ProjectPath: "/cases/alpha",
	})
	require.NoError(t, err)
	assert.Equal(t,
		`(file_type = "pdf" OR file_type = "email") AND (scan_id = 1 OR scan_id = 2) AND file_path STARTS WITH "/cases/alpha"`,
		clause)
}

func TestBuildFilterClauseEmptyFiltersYieldsEmptyClause(t *testing.T) {
	clause, err := buildFilterClause(SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, clause)
}

func TestValidateScanIDStringsAcceptsIntegers(t *testing.T) {
	ids, err := ValidateScanIDStrings([]string{"1", "42", "-3"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 42, -3}, ids)
}

func TestValidateScanIDStringsRejectsInjectionAttempt(t *testing.T) {
	_, err := ValidateScanIDStrings([]string{"1 OR 1=1"})
	assert.Error(t, err)
}

func TestValidateScanIDStringsRejectsNonInteger(t *testing.T) {
	_, err := ValidateScanIDStrings([]string{"abc"})
	assert.Error(t, err)
}
