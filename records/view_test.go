package records

import (
	"vitaai.com/prontuario/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView(t *testing.T) {
	record := Normalize(decode(t, `{"data": {"anamnese": {"queixaPrincipal": "dor", "alergias": "dipirona"}, "paciente": "Ana"}}`))
	view := record.View()

	assert.Equal(t, "nested-unified", view.Shape)
	assert.True(t, view.Enveloped)
	assert.Equal(t, "complaint-only", view.Category)
	assert.Equal(t, "Anamnese", view.Badge)
	assert.Equal(t, "dor", view.Summary)
	assert.Len(t, view.Fields, 9)

	complaint := view.Fields["complaint"]
	require.NotNil(t, complaint.Value)
	assert.Equal(t, "dor", *complaint.Value)
	assert.Equal(t, "queixaPrincipal", complaint.Source)

	assert.Nil(t, view.Fields["procedures"].Value)
	assert.Nil(t, view.Fields["tooth"].Value)
	assert.Equal(t, "Ana", view.UnknownFields["paciente"])
	assert.Equal(t, []string{}, view.ProceduresList)
}

func TestStoredView(t *testing.T) {
	stored := &types.StoredRecord{
		ID:                5,
		RecordType:        "evolucao",
		Revision:          4,
		CreatedAt:         "2024-01-10T08:00:00Z",
		FullTranscription: "transcrição",
		StructuredContent: decode(t, `{"procedimentos_realizados": "limpeza, raspagem"}`),
	}
	view := NewReconciler(nil).StoredView(stored)
	assert.Equal(t, int64(5), view.ID)
	assert.Equal(t, 4, view.Revision)
	assert.Equal(t, "transcrição", view.Transcript)
	assert.Equal(t, "Proc: limpeza, raspagem", view.Summary)
	assert.Equal(t, []string{"limpeza", "raspagem"}, view.ProceduresList)
	assert.Equal(t, "procedimentos_realizados", view.Fields["procedures"].Source)
}
