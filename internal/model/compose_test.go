package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *Document {
	doc := NewDocument()
	doc.Resources = []Resource{
		{ID: "r1", Type: KindRepo, Name: "api", Path: "/src/api"},
		{ID: "s1", Type: KindSkill, Name: "lint", SkillMD: "# lint", Files: []SkillFile{{RelativePath: "a.md", Content: "a"}}},
		{ID: "a1", Type: KindAgent, Name: "reviewer", Content: "# r"},
		{ID: "m1", Type: KindMCP, Name: "search", Config: map[string]any{"mcpServers": map[string]any{"s": map[string]any{}}}},
	}
	doc.Composes = []Compose{{
		ID:       "c1",
		Name:     "backend",
		Repos:    []ComposeRepo{{RepoID: "r1", BaseBranch: "main"}, {RepoID: "gone", BaseBranch: "dev"}},
		SkillIDs: []string{"s1", "a1"},
		AgentIDs: []string{"a1"},
		MCPIDs:   []string{"m1", "m-gone"},
	}}
	return doc
}

func TestResolve(t *testing.T) {
	doc := sampleDocument()
	d := Resolve(doc, &doc.Composes[0])

	require.Len(t, d.Repos, 2)
	assert.Equal(t, "api", d.Repos[0].Name)
	assert.Equal(t, "main", d.Repos[0].BaseBranch)
	assert.False(t, d.Repos[0].Missing)
	assert.True(t, d.Repos[1].Missing)
	assert.Equal(t, "dev", d.Repos[1].BaseBranch)
	assert.Equal(t, MissingName, d.Repos[1].Name)

	require.Len(t, d.Skills, 2)
	assert.False(t, d.Skills[0].Missing)
	assert.True(t, d.Skills[1].Missing, "an agent id listed as a skill is missing")
	assert.Equal(t, KindSkill, d.Skills[1].Type)

	assert.Empty(t, d.Commands)
	assert.NotNil(t, d.Commands)

	require.Len(t, d.MCPs, 2)
	assert.Equal(t, map[string]any{}, d.MCPs[1].Config)

	assert.Len(t, Live(d.Skills), 1)
	assert.Len(t, Live(d.MCPs), 1)
	assert.Len(t, d.LiveRepos(), 1)
}

func TestResolve_ReturnsSnapshots(t *testing.T) {
	doc := sampleDocument()
	d := Resolve(doc, &doc.Composes[0])

	d.Skills[0].Files[0].Content = "changed"
	d.MCPs[0].Config["mcpServers"].(map[string]any)["x"] = true
	d.Compose.SkillIDs[0] = "changed"

	assert.Equal(t, "a", doc.Resources[1].Files[0].Content)
	assert.NotContains(t, doc.Resources[3].Config["mcpServers"], "x")
	assert.Equal(t, "s1", doc.Composes[0].SkillIDs[0])
}

func TestValidateReferences(t *testing.T) {
	doc := sampleDocument()

	v := ValidateReferences(doc, &doc.Composes[0])
	assert.False(t, v.Valid)
	assert.Equal(t, []string{"gone"}, v.MissingRepos)
	assert.Equal(t, []string{"a1"}, v.MissingSkills)
	assert.Equal(t, []string{}, v.MissingAgents)
	assert.Equal(t, []string{}, v.MissingCommands)
	assert.Equal(t, []string{"m-gone"}, v.MissingMCPs)

	clean := Compose{ID: "c2", Repos: []ComposeRepo{{RepoID: "r1"}}, AgentIDs: []string{"a1"}}
	assert.True(t, ValidateReferences(doc, &clean).Valid)

	data, err := json.Marshal(ValidateReferences(doc, &clean))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"missingCommands":[]`)
}

func TestDocument_RemoveResources(t *testing.T) {
	doc := sampleDocument()

	assert.Equal(t, 2, doc.RemoveResources("r1", "m1", "unknown"))
	assert.Equal(t, -1, doc.FindResource("r1"))
	assert.Len(t, doc.Resources, 2)
	assert.Equal(t, "r1", doc.Composes[0].Repos[0].RepoID, "composes keep their references")
	assert.True(t, Resolve(doc, &doc.Composes[0]).Repos[0].Missing)
}

func TestDocument_Lookups(t *testing.T) {
	doc := sampleDocument()

	assert.Equal(t, 2, doc.FindResource("a1"))
	assert.Equal(t, 0, doc.FindCompose("c1"))
	assert.Equal(t, -1, doc.FindCompose("backend"))
	require.NotNil(t, doc.ComposeByName("backend"))
	assert.Nil(t, doc.ComposeByName("c1"))

	assert.Len(t, doc.ResourcesOf(""), 4)
	agents := doc.ResourcesOf(KindAgent)
	require.Len(t, agents, 1)
	agents[0].Name = "changed"
	assert.Equal(t, "reviewer", doc.Resources[2].Name)
	assert.NotNil(t, doc.ResourcesOf(KindCommand))
}

func TestDocument_Normalize(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{}`), &doc))

	doc.Normalize()
	assert.Equal(t, CurrentVersion, doc.Version)

	data, err := json.Marshal(&doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"resources":[],"composes":[]}`, string(data))
}

func TestDocument_NormalizeRestoresEmptyMCPConfig(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{"version":1,"resources":[
		{"id":"m1","type":"mcp","name":"blank"},
		{"id":"a1","type":"agent","name":"reviewer","content":"x"}
	]}`), &doc))

	doc.Normalize()
	assert.Equal(t, map[string]any{}, doc.Resources[0].Config)
	assert.Nil(t, doc.Resources[1].Config)
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("plugin")
	assert.Error(t, err)
}
