package chargen_test

import (
	"encoding/json"
	"testing"

	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/kasuganosora/chargen/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_ResolveUnknown(t *testing.T) {
	_, _, err := chargen.Command{Op: "teleport"}.Resolve()
	assert.ErrorIs(t, err, chargen.ErrUnknownOp)
}

func TestCommand_DecodeAndApply(t *testing.T) {
	c := testutil.Catalog(t)
	s := chargen.NewCharacterState()

	var cmds []chargen.Command
	require.NoError(t, json.Unmarshal([]byte(`[
		{"op":"set_name","name":"Rigger"},
		{"op":"set_priority","category":"resources","letter":"B"},
		{"op":"add_drone","id":"gm_nissan_doberman"},
		{"op":"install_drone_mod","target":"gm_nissan_doberman","id":"weapon_mount_standard"},
		{"op":"add_contact","contact":{"name":"Mechanic","connection":2,"loyalty":3}}
	]`), &cmds))

	fields := []string{}
	for _, cmd := range cmds {
		field, m, err := cmd.Resolve()
		require.NoError(t, err)
		fields = append(fields, field)
		next, ok := m(s, c)
		require.True(t, ok, cmd.Op)
		s = next
	}
	assert.Equal(t, []string{chargen.FieldName, chargen.FieldPriorities, chargen.FieldDrones,
		chargen.FieldDrones, chargen.FieldContacts}, fields)
	assert.Equal(t, "Rigger", s.Name)
	assert.Equal(t, []string{"weapon_mount_standard"}, s.Drones["gm_nissan_doberman"].Mods)
	assert.Equal(t, int64(7500), chargen.ComputeBudget(s, c).Nuyen.Spent)
}

func TestCommand_AddContactWithoutBody(t *testing.T) {
	c := testutil.Catalog(t)
	_, m, err := chargen.Command{Op: "add_contact"}.Resolve()
	require.NoError(t, err)
	_, ok := m(chargen.NewCharacterState(), c)
	assert.False(t, ok)
}
