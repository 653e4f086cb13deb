package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	alias, ok := DefaultTable().Lookup(FieldProcedures)
	require.True(t, ok)
	assert.Equal(t, []string{"procedimentos", "procedimentos_realizados", "procedimentosRealizados"}, alias.Keys)
	assert.Equal(t, ProcedureGroup, alias.Group)

	field, ok := DefaultTable().FieldForKey("clinicalValues")
	require.True(t, ok)
	assert.Equal(t, FieldClinicalNotes, field)

	_, ok = DefaultTable().FieldForKey("QUEIXA_PRINCIPAL")
	assert.False(t, ok)
}

func TestTableExtend(t *testing.T) {
	extended, err := DefaultTable().Extend(map[string][]string{
		"complaint": {"motivoConsulta", "queixaPrincipal", " "},
	})
	require.NoError(t, err)

	alias, _ := extended.Lookup(FieldComplaint)
	assert.Equal(t, []string{"queixa_principal", "queixaPrincipal", "motivoConsulta"}, alias.Keys)

	original, _ := DefaultTable().Lookup(FieldComplaint)
	assert.Equal(t, []string{"queixa_principal", "queixaPrincipal"}, original.Keys, "default table must stay untouched")

	reconciler := NewReconciler(extended)
	record := reconciler.Normalize(decode(t, `{"motivoConsulta": "dor", "extra": 1}`))
	assert.Equal(t, "dor", record.Text(FieldComplaint))
	assert.NotContains(t, record.UnknownFields, "motivoConsulta")

	assert.Contains(t, Normalize(decode(t, `{"motivoConsulta": "dor"}`)).UnknownFields, "motivoConsulta")
}

func TestTableExtendErrors(t *testing.T) {
	_, err := DefaultTable().Extend(map[string][]string{"diagnosis": {"diagnostico"}})
	assert.Error(t, err)

	_, err = DefaultTable().Extend(map[string][]string{"complaint": {"observacoes"}})
	assert.Error(t, err)

	_, err = DefaultTable().Extend(map[string][]string{"tooth": {"data"}})
	assert.Error(t, err)
}

func TestCoercion(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b ,"))
	assert.Equal(t, []string{}, SplitList(""))
	assert.Equal(t, "a, b", JoinList([]string{"a", "b"}))

	text, ok := Text([]interface{}{"a", 2.5, true, nil})
	assert.True(t, ok)
	assert.Equal(t, "a, 2.5, true", text)

	text, ok = Text([]string{" x ", ""})
	assert.True(t, ok)
	assert.Equal(t, "x", text)

	_, ok = Text(map[string]interface{}{})
	assert.False(t, ok)
	_, ok = Text(nil)
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, List("a,b"))
	assert.Equal(t, []string{}, List(nil))
}
