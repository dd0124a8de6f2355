package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhire/gateway/internal/interview"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "backend.yaml", `
role: Backend Engineer
questions:
  - Describe a system you designed.
  - How do you approach debugging?
`)
	writeTemplate(t, dir, "frontend.yml", `
id: fe
role: Frontend Engineer
icebreaker: What got you into frontend work?
questions:
  - Tell me about a tricky rendering bug.
max-followups: 3
`)
	writeTemplate(t, dir, "notes.txt", "ignored")

	reg, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	backend, ok := reg.Get("backend")
	require.True(t, ok)
	assert.Equal(t, "Backend Engineer", backend.Role)
	assert.Len(t, backend.Questions, 2)
	assert.Nil(t, backend.MaxFollowUps)

	fe, ok := reg.Get("fe")
	require.True(t, ok)
	assert.Equal(t, "What got you into frontend work?", fe.Icebreaker)
	require.NotNil(t, fe.MaxFollowUps)
	assert.Equal(t, 3, *fe.MaxFollowUps)

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "backend", list[0].ID)
	assert.Equal(t, "fe", list[1].ID)
}

func TestLoadDirRejectsEmptyQuestions(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "bad.yaml", "role: Engineer\nquestions: []\n")

	_, err := LoadDir(dir)
	require.Error(t, err)
}

func TestLoadDirRejectsMissingRole(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "bad.yaml", "questions:\n  - Q1\n")

	_, err := LoadDir(dir)
	require.Error(t, err)
}

func TestLoadDirRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "a.yaml", "id: same\nrole: R\nquestions: [Q1]\n")
	writeTemplate(t, dir, "b.yaml", "id: same\nrole: R\nquestions: [Q1]\n")

	_, err := LoadDir(dir)
	require.Error(t, err)
}

func TestStartDataCarriesOverrides(t *testing.T) {
	tpl := &Template{
		ID:         "t",
		Role:       "Engineer",
		Icebreaker: "custom icebreaker?",
		Questions:  []string{"Q1", "Q2"},
	}

	data := tpl.StartData(interview.Candidate{Name: "Alice"})
	assert.Equal(t, "Alice", data.Candidate.Name)
	assert.Equal(t, "Engineer", data.Role)
	assert.Equal(t, []string{"Q1", "Q2"}, data.Questions)
	assert.Equal(t, "custom icebreaker?", data.Icebreaker)
	assert.Nil(t, data.MaxFollowUps)

	one := 1
	tpl.MaxFollowUps = &one
	data = tpl.StartData(interview.Candidate{Name: "Alice"})
	require.NotNil(t, data.MaxFollowUps)
	assert.Equal(t, 1, *data.MaxFollowUps)
}
