package mention

import (
	"encoding/json"
	"testing"

	"github.com/aleister1102/courier/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedMentions_ZeroValueSuppressesAll(t *testing.T) {
	out, err := json.Marshal(NewAllowedMentionsBuilder().Build())
	require.NoError(t, err)
	assert.JSONEq(t, `{"parse":[],"roles":[],"users":[]}`, string(out))
}

func TestAllowedMentions_ParseTypes(t *testing.T) {
	policy := NewAllowedMentionsBuilder().
		WithAllRoles(true).
		WithAllUsers(true).
		WithEveryoneAndHere(true).
		AddUser(5).
		Build()

	out, err := json.Marshal(policy)
	require.NoError(t, err)
	assert.JSONEq(t, `{"parse":["roles","users","everyone"],"roles":[],"users":[]}`, string(out))
}

func TestAllowedMentions_ExplicitIDs(t *testing.T) {
	policy := NewAllowedMentionsBuilder().
		AddUser(1).
		AddRole(2).
		WithRepliedUser(false).
		Build()

	out, err := json.Marshal(policy)
	require.NoError(t, err)
	assert.JSONEq(t, `{"parse":[],"roles":["2"],"users":["1"],"replied_user":false}`, string(out))
}

func TestAllowedMentions_CapsExplicitIDs(t *testing.T) {
	b := NewAllowedMentionsBuilder()
	for i := 1; i <= MaxExplicitIDs+20; i++ {
		b.AddUser(models.Snowflake(i))
	}

	out, err := json.Marshal(b.Build())
	require.NoError(t, err)

	var wire wireAllowedMentions
	require.NoError(t, json.Unmarshal(out, &wire))
	assert.Len(t, wire.Users, MaxExplicitIDs)
	assert.Equal(t, models.Snowflake(1), wire.Users[0])
}

func TestAllowedMentionsBuilder_BuildIsSnapshot(t *testing.T) {
	b := NewAllowedMentionsBuilder().AddUser(1)
	first := b.Build()
	b.AddUser(2)

	out, err := json.Marshal(first)
	require.NoError(t, err)
	assert.JSONEq(t, `{"parse":[],"roles":[],"users":["1"]}`, string(out))
}
