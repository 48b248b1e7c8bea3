package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyHolder_MissingFileFallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	holder, err := NewPolicyHolder()
	require.NoError(t, err)

	assert.Equal(t, DefaultPolicy(), holder.Load())
}

func TestPolicyHolder_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	yml := "disclosure:\n  totalPercent: 16.5\n  federalPercent: 14.0\n  statePercent: 2.5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fiscal.yml"), []byte(yml), 0o644))
	t.Chdir(dir)

	holder, err := NewPolicyHolder()
	require.NoError(t, err)

	policy := holder.Load()
	assert.Equal(t, 16.5, policy.Disclosure.TotalPercent)
	assert.Equal(t, 14.0, policy.Disclosure.FederalPercent)
	assert.Equal(t, 2.5, policy.Disclosure.StatePercent)
}

func TestPolicyHolder_NilHolderServesDefaults(t *testing.T) {
	var holder *PolicyHolder
	assert.Equal(t, DefaultPolicy(), holder.Load())
}

func TestUnmarshalPolicy_RejectsNonPositiveTotal(t *testing.T) {
	dir := t.TempDir()
	yml := "disclosure:\n  totalPercent: 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fiscal.yml"), []byte(yml), 0o644))
	t.Chdir(dir)

	holder, err := NewPolicyHolder()
	require.NoError(t, err)

	assert.Equal(t, DefaultPolicy().Disclosure, holder.Load().Disclosure)
}
