package maps

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPatient struct {
	Name  string `json:"name"`
	Phone *string `json:"phone,omitempty"`
}

type testEntry struct {
	BaseDocument
	ID        int64                  `json:"id"`
	Summary   string                 `json:"summary"`
	Score     float64                `json:"score"`
	Done      bool                   `json:"done"`
	Tags      []string               `json:"tags"`
	Counts    map[string]int         `json:"counts"`
	Patient   testPatient            `json:"patient"`
	Reviewer  *testPatient           `json:"reviewer"`
	Content   map[string]interface{} `json:"content"`
	Anything  interface{}            `json:"anything"`
	Ignored   string                 `json:"-"`
	untracked string
}

type testEntryHeader struct {
	BaseDocument
	ID      int64  `json:"id"`
	Summary string `json:"summary"`
}

func decodeRaw(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

const entryJSON = `{
	"id": 42,
	"summary": "dor de dente",
	"score": 0.5,
	"done": true,
	"tags": ["a", "b"],
	"counts": {"x": 1},
	"patient": {"name": "Ana", "phone": "555", "age": 30},
	"reviewer": {"name": "Rui"},
	"content": {"queixa_principal": "dor", "procedimentos": ["limpeza"]},
	"anything": [1, "two"],
	"clinic": "Centro"
}`

func TestFillFromMap(t *testing.T) {
	entry := &testEntry{}
	require.NoError(t, FillFromMap(entry, decodeRaw(t, entryJSON)))

	phone := "555"
	expected := testEntry{
		ID:       42,
		Summary:  "dor de dente",
		Score:    0.5,
		Done:     true,
		Tags:     []string{"a", "b"},
		Counts:   map[string]int{"x": 1},
		Patient:  testPatient{Name: "Ana", Phone: &phone},
		Reviewer: &testPatient{Name: "Rui"},
		Content:  map[string]interface{}{"queixa_principal": "dor", "procedimentos": []interface{}{"limpeza"}},
		Anything: []interface{}{float64(1), "two"},
	}
	assert.Empty(t, cmp.Diff(expected, *entry, cmp.AllowUnexported(testEntry{}), cmp.Comparer(func(a, b BaseDocument) bool { return true })))

	clinic, ok := entry.Extra("clinic")
	assert.True(t, ok)
	assert.Equal(t, "Centro", clinic)
}

func TestFillFromMapNulls(t *testing.T) {
	entry := &testEntry{}
	require.NoError(t, FillFromMap(entry, decodeRaw(t, `{"id": 1, "summary": null, "tags": null, "reviewer": null}`)))
	assert.Equal(t, int64(1), entry.ID)
	assert.Equal(t, "", entry.Summary)
	assert.Nil(t, entry.Tags)
	assert.Nil(t, entry.Reviewer)

	require.NoError(t, FillFromMap(&testEntry{}, nil))
}

func TestFillFromMapErrors(t *testing.T) {
	assert.Error(t, FillFromMap(&testEntry{}, decodeRaw(t, `{"id": "forty-two"}`)))
	assert.Error(t, FillFromMap(&testEntry{}, decodeRaw(t, `{"tags": "a,b"}`)))
	assert.Error(t, FillFromMap(&testEntry{}, decodeRaw(t, `{"counts": [1]}`)))
}

func TestMarshalKeepsUnknownKeys(t *testing.T) {
	entry := &testEntry{}
	require.NoError(t, FillFromMap(entry, decodeRaw(t, entryJSON)))

	err := ApplyUpdates(entry, func(e *testEntry) {
		e.Summary = "Proc: limpeza"
		e.Tags = append(e.Tags, "c")
		e.Patient.Name = "Ana Maria"
		e.Reviewer = nil
	})
	require.NoError(t, err)

	out, err := json.Marshal(entry)
	require.NoError(t, err)

	expected := decodeRaw(t, entryJSON)
	expected["summary"] = "Proc: limpeza"
	expected["tags"] = []interface{}{"a", "b", "c"}
	expected["patient"] = map[string]interface{}{"name": "Ana Maria", "phone": "555", "age": float64(30)}
	expected["reviewer"] = nil
	assert.Empty(t, cmp.Diff(expected, decodeRaw(t, string(out))))
}

func TestApplyUpdatesRecoversPanics(t *testing.T) {
	entry := &testEntry{}
	require.NoError(t, FillFromMap(entry, map[string]interface{}{}))

	err := ApplyUpdates(entry, func(e *testEntryHeader) {})
	assert.Error(t, err)

	assert.NoError(t, ApplyUpdates(entry, nil))
}

func TestCopyValues(t *testing.T) {
	entry := &testEntry{}
	require.NoError(t, FillFromMap(entry, decodeRaw(t, entryJSON)))

	header := &testEntryHeader{}
	require.NoError(t, CopyValues(entry, header))
	assert.Equal(t, int64(42), header.ID)
	assert.Equal(t, "dor de dente", header.Summary)

	out, err := json.Marshal(header)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 42, "summary": "dor de dente"}`, string(out))
}
