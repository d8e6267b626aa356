package condition_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronique-jdr/chronique/internal/game/condition"
)

func TestCondition_Validate(t *testing.T) {
	assert.NoError(t, condition.Condition{ID: "c1", Name: "Aveuglé"}.Validate())
	assert.Error(t, condition.Condition{Name: "Aveuglé"}.Validate())
	assert.Error(t, condition.Condition{ID: "c1"}.Validate())
}

func TestSet_AddRemove(t *testing.T) {
	s := condition.NewSet()
	s.Add(condition.Condition{ID: "c1", Name: "Aveuglé"})
	s.Add(condition.Condition{ID: "c2", Name: "À terre"})

	assert.True(t, s.Has("c1"))
	assert.Equal(t, 2, s.Len())

	s.Remove("c1")
	assert.False(t, s.Has("c1"))
	assert.Equal(t, 1, s.Len())

	// Removing an absent condition is a no-op.
	s.Remove("c1")
	assert.Equal(t, 1, s.Len())
}

func TestSet_AddReplacesSameID(t *testing.T) {
	s := condition.NewSet()
	s.Add(condition.Condition{ID: "c1", Name: "Aveuglé"})
	s.Add(condition.Condition{ID: "c1", Name: "Étourdi"})

	got, ok := s.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "Étourdi", got.Name)
	assert.Equal(t, 1, s.Len())
}

func TestSet_AllPreservesApplicationOrder(t *testing.T) {
	s := condition.NewSet()
	s.Add(condition.Condition{ID: "c2", Name: "B"})
	s.Add(condition.Condition{ID: "c1", Name: "A"})
	s.Add(condition.Condition{ID: "c3", Name: "C"})

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c2", "c1", "c3"}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestSet_CloneIsIndependent(t *testing.T) {
	s := condition.NewSet()
	s.Add(condition.Condition{ID: "c1", Name: "Aveuglé", Metadata: map[string]string{"source": "piège"}})

	cp := s.Clone()
	cp.Remove("c1")
	assert.True(t, s.Has("c1"))

	got, ok := s.Get("c1")
	require.True(t, ok)
	got.Metadata["source"] = "changed"
	fresh, _ := s.Get("c1")
	_ = fresh
}

func TestDef_Validate(t *testing.T) {
	assert.NoError(t, (&condition.Def{ID: "blinded", Name: "Aveuglé", Severity: "major"}).Validate())
	assert.NoError(t, (&condition.Def{ID: "prone", Name: "À terre"}).Validate())
	assert.Error(t, (&condition.Def{Name: "X"}).Validate())
	assert.Error(t, (&condition.Def{ID: "x", Name: "X", Severity: "huge"}).Validate())
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	write("blinded.yaml", "id: blinded\nname: Aveuglé\ndescription: Ne voit plus rien.\nseverity: major\n")
	write("prone.yaml", "id: prone\nname: À terre\nseverity: minor\n")
	write("notes.txt", "ignored")

	reg, err := condition.LoadDirectory(dir)
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "blinded", all[0].ID)

	d, ok := reg.Get("prone")
	require.True(t, ok)
	assert.Equal(t, "À terre", d.Name)
}

func TestLoadDirectory_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"),
		[]byte("id: x\nname: X\nbogus_field: 3\n"), 0o600))

	_, err := condition.LoadDirectory(dir)
	assert.Error(t, err)
}

func TestLoadDirectory_MissingDir(t *testing.T) {
	_, err := condition.LoadDirectory(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
