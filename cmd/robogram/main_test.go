package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/robogram/pkg/robot"
)

var (
	walkerDot  = filepath.Join("..", "..", "examples", "walker.dot")
	walkerLisp = filepath.Join("..", "..", "examples", "walker.lisp")
)

// resetFlags restores every flag to its default so executions do not
// leak state into each other.
func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

// run executes the CLI with args and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd.PersistentFlags())
	for _, c := range rootCmd.Commands() {
		resetFlags(c.Flags())
	}
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	require.NotNil(t, rootCmd)
	assert.Equal(t, "robogram", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.True(t, rootCmd.HasSubCommands())
	for _, name := range []string{"config", "log-level", "grammar", "start", "rules"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "flag %s", name)
	}
}

func TestSubcommands(t *testing.T) {
	tests := []struct {
		cmd  *cobra.Command
		use  string
		flag string
	}{
		{inspectCmd, "inspect [name...]", ""},
		{matchCmd, "match <rule> <graph>", ""},
		{applyCmd, "apply <rule> <graph>", "match"},
		{deriveCmd, "derive", ""},
		{buildCmd, "build [graph]", "json"},
		{meshCmd, "mesh [graph]", "out"},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotNil(t, tt.cmd.RunE)
			assert.NotEmpty(t, tt.cmd.Short)
			if tt.flag != "" {
				assert.NotNil(t, tt.cmd.Flags().Lookup(tt.flag))
			}
		})
	}
	assert.Error(t, matchCmd.Args(matchCmd, []string{"only-one"}))
	assert.Error(t, buildCmd.Args(buildCmd, []string{"a", "b"}))
}

// ---------------------------------------------------------------------------
// End to end
// ---------------------------------------------------------------------------

func TestInspect_Dot(t *testing.T) {
	out, err := run(t, "-g", walkerDot, "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, `graph "start": 1 nodes, 0 edges`)
	assert.Contains(t, out, `0: rule "add_leg"`)
	assert.Contains(t, out, `1: rule "add_foot"`)
}

func TestInspect_Lisp(t *testing.T) {
	out, err := run(t, "-g", walkerLisp, "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, `graph "start"`)
	assert.Contains(t, out, `graph "walker"`)
	assert.Contains(t, out, `rule "add_leg"`)
	assert.Contains(t, out, `robot "walker": 3 links, 2 joints`)
}

func TestInspect_Named(t *testing.T) {
	out, err := run(t, "-g", walkerDot, "inspect", "start", "add_foot")
	require.NoError(t, err)
	assert.Contains(t, out, `graph "start" {`)
	assert.Contains(t, out, `rule "add_foot"`)

	_, err = run(t, "-g", walkerDot, "inspect", "nope")
	assert.ErrorContains(t, err, `no graph or rule named "nope"`)
}

func TestMatch(t *testing.T) {
	out, err := run(t, "-g", walkerDot, "match", "add_leg", "start")
	require.NoError(t, err)
	assert.Contains(t, out, "1 matches")
	assert.Contains(t, out, "0: body->body")

	out, err = run(t, "-g", walkerDot, "match", "1", "start")
	require.NoError(t, err)
	assert.Contains(t, out, `0 matches of rule "add_foot"`)
}

func TestApply(t *testing.T) {
	out, err := run(t, "-g", walkerDot, "apply", "add_leg", "start")
	require.NoError(t, err)
	assert.Contains(t, out, `name="body"`)
	assert.Contains(t, out, `name="leg"`)
	assert.Contains(t, out, "edge 0:")

	_, err = run(t, "-g", walkerDot, "apply", "add_leg", "start", "--match", "1")
	assert.ErrorContains(t, err, "no match 1")

	_, err = run(t, "-g", walkerDot, "apply", "7", "start")
	assert.ErrorContains(t, err, `unknown rule "7"`)
}

func TestDerive(t *testing.T) {
	out, err := run(t, "-g", walkerDot, "--start", "start", "--rules", "0, 0, 1", "derive")
	require.NoError(t, err)
	assert.Contains(t, out, "start start ")
	assert.Contains(t, out, `step 0: rule "add_leg" match 0`)
	assert.Contains(t, out, `step 2: rule "add_foot" match 0`)
	assert.Contains(t, out, `name="foot"`)

	_, err = run(t, "-g", walkerDot, "--rules", "0", "derive")
	assert.ErrorContains(t, err, "no start graph")

	_, err = run(t, "-g", walkerDot, "--start", "start", "--rules", "1", "derive")
	assert.ErrorContains(t, err, "no match 0")
}

func countPrefix(out, prefix string) int {
	n := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

func TestBuild(t *testing.T) {
	out, err := run(t, "-g", walkerDot, "--start", "start", "--rules", "0 0 1", "build")
	require.NoError(t, err)
	assert.Equal(t, 4, countPrefix(out, "link "))
	assert.Equal(t, 3, countPrefix(out, "joint "))
	assert.Contains(t, out, `link 0 "body" parent=-1 shape=capsule`)

	out, err = run(t, "-g", walkerDot, "--start", "start", "--rules", "0", "build", "--json")
	require.NoError(t, err)
	var r robot.Robot
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Len(t, r.Links, 2)
	assert.Equal(t, "body", r.Links[0].Name)
	assert.InDelta(t, 0.5, r.Joints[0].Pos, 1e-12)
}

func TestBuild_MalformedDesign(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.dot")
	require.NoError(t, os.WriteFile(path, []byte("digraph two { a; b; }\n"), 0o644))

	_, err := run(t, "-g", path, "build", "two")
	assert.ErrorContains(t, err, "STRUCTURE")
}

func TestMesh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshes.json")
	_, err := run(t, "-g", walkerDot, "--start", "start", "--rules", "0", "mesh", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var res MeshResult
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, "start", res.Robot)
	require.Len(t, res.Meshes, 2)
	assert.Equal(t, "body", res.Meshes[0].LinkName)
	assert.Equal(t, "leg", res.Meshes[1].LinkName)
	assert.Equal(t, colorPalette[0], res.Meshes[0].Color)
	assert.Equal(t, colorPalette[1], res.Meshes[1].Color)
	for _, m := range res.Meshes {
		assert.NotEmpty(t, m.Indices)
		assert.Len(t, m.Normals, len(m.Vertices))
	}
}

func TestConfigFile(t *testing.T) {
	abs, err := filepath.Abs(walkerDot)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "robogram.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"grammars:\n  - "+abs+"\nstart: start\nrules: \"0 0\"\nlog_level: warn\n"), 0o644))

	out, err := run(t, "--config", path, "derive")
	require.NoError(t, err)
	assert.Contains(t, out, `step 1: rule "add_leg"`)

	// flags override the file
	out, err = run(t, "--config", path, "--rules", "0", "derive")
	require.NoError(t, err)
	assert.NotContains(t, out, "step 1:")

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "derive")
	assert.Error(t, err)
}

func TestDuplicateDefinitions(t *testing.T) {
	_, err := run(t, "-g", walkerDot, "-g", walkerLisp, "inspect")
	assert.ErrorContains(t, err, `graph "start" already defined`)
}
