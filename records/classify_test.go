package records

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordWith(complaint, procedures bool) *Record {
	record := newRecord(Layout{Shape: FlatLegacy})
	if complaint {
		record.Complaint = strPtr("dor")
	}
	if procedures {
		record.SetProcedures("limpeza")
	}
	return record
}

func TestClassifyInference(t *testing.T) {
	assert.Equal(t, Unknown, Classify(recordWith(false, false), ""))
	assert.Equal(t, ComplaintOnly, Classify(recordWith(true, false), ""))
	assert.Equal(t, ProcedureOnly, Classify(recordWith(false, true), ""))
	assert.Equal(t, Combined, Classify(recordWith(true, true), ""))
	assert.Equal(t, Unknown, Classify(nil, ""))
}

func TestClassifyExplicitTagWins(t *testing.T) {
	explicit := map[string]Category{
		"anamnese": ComplaintOnly,
		"evolucao": ProcedureOnly,
		"completo": Combined,
	}
	for tag, expected := range explicit {
		for _, complaint := range []bool{false, true} {
			for _, procedures := range []bool{false, true} {
				name := fmt.Sprintf("%s complaint=%v procedures=%v", tag, complaint, procedures)
				record := recordWith(complaint, procedures)
				record.LegacyType = "evolucao"
				assert.Equal(t, expected, Classify(record, tag), name)
			}
		}
	}
}

func TestClassifyUnrecognizedTagFallsThrough(t *testing.T) {
	assert.Equal(t, ComplaintOnly, Classify(recordWith(true, false), "Anamnese"))
	assert.Equal(t, Combined, Classify(recordWith(true, true), "duvida_comando"))
}

func TestClassifyLegacyType(t *testing.T) {
	record := recordWith(false, false)
	record.LegacyType = " Anamnese "
	assert.Equal(t, ComplaintOnly, record.Category())

	record.LegacyType = "atendimento"
	assert.Equal(t, Unknown, record.Category())

	record.LegacyType = "anamnese"
	record.SetProcedures("limpeza")
	assert.Equal(t, ProcedureOnly, record.Category(), "populated fields are preferred over the legacy tag")
}

func TestCategoryIsRecomputed(t *testing.T) {
	record := Normalize(decode(t, `{"queixa_principal": "dor"}`))
	require.Equal(t, ComplaintOnly, record.Category())

	record.Apply(Edits{Procedures: strPtr("profilaxia")})
	require.Equal(t, Combined, record.Category())

	record.Apply(Edits{Complaint: strPtr("   ")})
	require.Equal(t, ProcedureOnly, record.Category())
}

func TestCategoryBadges(t *testing.T) {
	assert.Equal(t, "Anamnese", ComplaintOnly.Badge())
	assert.Equal(t, "Evolução", ProcedureOnly.Badge())
	assert.Equal(t, "Completo", Combined.Badge())
	assert.Equal(t, "Atendimento", Unknown.Badge())
}

func TestSummarize(t *testing.T) {
	long := strings.Repeat("á", 61)
	cases := []struct {
		name     string
		doc      string
		expected string
	}{
		{"complaint wins over procedures", `{"queixa_principal": "dor", "procedimentos": ["limpeza"]}`, "dor"},
		{"complaint is not truncated", `{"queixa_principal": "` + long + `"}`, long},
		{"procedures", `{"evolucao": {"procedimentos": ["limpeza", "extração"], "observacoes": "ok"}}`, "Proc: limpeza, extração"},
		{"short notes", `{"observacoes": "tudo certo"}`, "tudo certo"},
		{"long notes", `{"clinical_notes": "` + long + `"}`, strings.Repeat("á", 60) + "..."},
		{"notes at the limit", `{"observacoes": "` + strings.Repeat("x", 60) + `"}`, strings.Repeat("x", 60)},
		{"blank complaint is skipped", `{"queixa_principal": "  ", "observacoes": "nota"}`, "nota"},
		{"fallback", `{"paciente": "Ana"}`, FallbackSummary},
		{"fallback for unrecognized shape", `{"data": {"anamnese": "texto"}}`, FallbackSummary},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, Summarize(Normalize(decode(t, c.doc))))
		})
	}
	assert.Equal(t, FallbackSummary, Summarize(nil))
}
