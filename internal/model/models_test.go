// internal/model/models_test.go
package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortByStars_UnknownIsNotZero(t *testing.T) {
	repos := []Repository{
		{Name: "unknown-a", StarCount: UnknownStars},
		{Name: "zero", StarCount: 0},
		{Name: "many", StarCount: 42},
		{Name: "unknown-b", StarCount: UnknownStars},
		{Name: "few", StarCount: 3},
	}

	SortByStars(repos)

	names := make([]string, len(repos))
	for i, r := range repos {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"many", "few", "zero", "unknown-a", "unknown-b"}, names)
	assert.True(t, repos[2].StarCount.Known())
	assert.False(t, repos[3].StarCount.Known())
}

func TestCompareStars(t *testing.T) {
	assert.Equal(t, 0, CompareStars(UnknownStars, UnknownStars))
	assert.Equal(t, 1, CompareStars(UnknownStars, 0))
	assert.Equal(t, -1, CompareStars(0, UnknownStars))
	assert.Equal(t, -1, CompareStars(10, 2))
	assert.Equal(t, 0, CompareStars(7, 7))
}

func TestOwnerRef_JSON(t *testing.T) {
	name := "Octo Org"
	in := Repository{
		ExternalID: "R_1",
		Owner:      OwnerRef{&Organization{Account: Account{ExternalID: "O_1", Login: "octo"}, Name: &name}},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Repository
	require.NoError(t, json.Unmarshal(data, &out))

	org, ok := out.Owner.Owner.(*Organization)
	require.True(t, ok, "owner should decode as organization, got %T", out.Owner.Owner)
	assert.Equal(t, "octo", org.Login)
	assert.Equal(t, "Octo Org", *org.Name)
	assert.Nil(t, out.Languages)
}

func TestOwnerRef_UnknownKind(t *testing.T) {
	var ref OwnerRef
	err := json.Unmarshal([]byte(`{"kind":"bot"}`), &ref)
	assert.Error(t, err)
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("advanced")
	require.NoError(t, err)
	assert.Equal(t, TierAdvanced, tier)
	assert.Equal(t, "MEDIUM", TierMedium.String())

	_, err = ParseTier("gold")
	assert.Error(t, err)
	assert.True(t, TierAdvanced > TierMedium && TierMedium > TierBasic)
}
