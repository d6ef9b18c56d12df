package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enigma/internal/config"
	"enigma/internal/journal"
	"enigma/internal/logging"
)

const hiawathaSettings = "* B Beta III IV I AXLE (HQ) (EX) (IP) (TR) (BY)"

func testdata(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

// isolate keeps the user's settings file and environment out of a test.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, v := range []string{"ENIGMA_MACHINE", "ENIGMA_LOG_LEVEL", "ENIGMA_LOG_FORMAT", "ENIGMA_GROUP_SIZE", "ENIGMA_JOURNAL_PATH"} {
		t.Setenv(v, "")
	}
}

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunHiawatha(t *testing.T) {
	isolate(t)
	want := readFile(t, testdata("hiawatha.out"))

	res := runCLI(t, "", testdata("default.conf"), testdata("hiawatha.in"))
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, want, res.stdout)
	assert.Empty(t, res.stderr)
}

func TestRunSubcommandWritesOutputFile(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "hiawatha.out")

	res := runCLI(t, "", "run", testdata("default.conf"), testdata("hiawatha.in"), out)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Empty(t, res.stdout)
	assert.Equal(t, readFile(t, testdata("hiawatha.out")), readFile(t, out))
}

func TestRunFromStdin(t *testing.T) {
	isolate(t)
	res := runCLI(t, hiawathaSettings+"\nFROM his shoulder Hiawatha\n", testdata("default.conf"))
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "QVPQS OKOIL PUBKJ ZPISF XDW\n", res.stdout)
}

func TestRunStructuredMachine(t *testing.T) {
	isolate(t)
	res := runCLI(t, "", testdata("naval.yaml"), testdata("hiawatha.in"))
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, readFile(t, testdata("hiawatha.out")), res.stdout)
}

func TestRunGroupSizeFlag(t *testing.T) {
	isolate(t)
	input := hiawathaSettings + "\nFROM his shoulder Hiawatha\n"

	res := runCLI(t, input, "--group-size", "-1", testdata("default.conf"))
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "QVPQSOKOILPUBKJZPISFXDW\n", res.stdout)

	res = runCLI(t, input, "run", "--group-size", "4", testdata("default.conf"))
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "QVPQ SOKO ILPU BKJZ PISF XDW\n", res.stdout)
}

func TestGroupSizeFlagOverridesSettingsFile(t *testing.T) {
	isolate(t)
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[output]\ngroup_size = 3\n"), 0600))
	input := hiawathaSettings + "\nFROM his shoulder Hiawatha\n"

	res := runCLI(t, input, "--config", cfgPath, testdata("default.conf"))
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "QVP QSO KOI LPU BKJ ZPI SFX DW\n", res.stdout)

	res = runCLI(t, input, "--config", cfgPath, "--group-size", "0", testdata("default.conf"))
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "QVPQS OKOIL PUBKJ ZPISF XDW\n", res.stdout)

	res = runCLI(t, input, "--config", cfgPath, "--group-size", "-1", testdata("default.conf"))
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "QVPQSOKOILPUBKJZPISFXDW\n", res.stdout)
}

func TestFailedCommandClosesLogFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	logPath := filepath.Join(dir, "enigma.log")
	cfgPath := filepath.Join(dir, "config.toml")
	cfg := "[logging]\nlevel = \"debug\"\noutput = \"file\"\nfile_path = \"" + filepath.ToSlash(logPath) + "\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0600))

	prev := logging.Default()
	var stdout, stderr bytes.Buffer
	a := newApp(strings.NewReader(""), &stdout, &stderr)
	code := a.execute(context.Background(), []string{"--config", cfgPath, "run", filepath.Join(dir, "missing.conf")})

	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(stderr.String(), "Error: "), stderr.String())
	assert.Nil(t, a.logger, "logger left open")
	assert.Same(t, prev, logging.Default())
	assert.Contains(t, readFile(t, logPath), "command failed")
}

func TestConfigInit(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "settings", "config.yaml")

	res := runCLI(t, "", "config", "init", path)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "wrote "+path+"\n", res.stdout)

	saved, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Output, saved.Output)
	assert.Equal(t, config.DefaultConfig().Watch, saved.Watch)

	res = runCLI(t, "", "config", "init", path)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "already exists")

	res = runCLI(t, "", "--group-size", "3", "config", "init", "--force", path)
	require.Equal(t, 0, res.code, res.stderr)
	saved, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, saved.Output.GroupSize)
}

func TestConfigInitDefaultPath(t *testing.T) {
	isolate(t)
	res := runCLI(t, "", "config", "init")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "wrote "+config.ConfigPath()+"\n", res.stdout)
	assert.FileExists(t, config.ConfigPath())
}

func TestRunMachineFromSettingsFile(t *testing.T) {
	isolate(t)
	machine, err := filepath.Abs(testdata("default.conf"))
	require.NoError(t, err)
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("machine = \""+filepath.ToSlash(machine)+"\"\n"), 0600))

	res := runCLI(t, hiawathaSettings+"\nFROM his shoulder Hiawatha\n", "--config", cfgPath, "run")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "QVPQS OKOIL PUBKJ ZPISF XDW\n", res.stdout)
}

func TestRunErrors(t *testing.T) {
	isolate(t)
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"missing machine", "", []string{filepath.Join(t.TempDir(), "none.conf")}, "could not open"},
		{"missing input", "", []string{testdata("default.conf"), filepath.Join(t.TempDir(), "none.in")}, "could not open"},
		{"no machine at all", "", []string{"run"}, "no machine description given"},
		{"message before settings", "HELLO\n", []string{testdata("default.conf")}, "first line must be settings"},
		{"unknown rotor", "* B Beta III IV IX AXLE\nHELLO\n", []string{testdata("default.conf")}, "IX"},
		{"too many arguments", "", []string{"run", "a", "b", "c", "d"}, "accepts at most 3 arg(s)"},
		{"bad log level", "", []string{"--log-level", "loud", testdata("default.conf")}, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, tt.stdin, tt.args...)
			assert.Equal(t, 1, res.code)
			assert.True(t, strings.HasPrefix(res.stderr, "Error: "), res.stderr)
			assert.Contains(t, res.stderr, tt.want)
			assert.Equal(t, 1, strings.Count(res.stderr, "\n"), "diagnostic should be one line: %q", res.stderr)
		})
	}
}

func TestDebugLoggingGoesToStderr(t *testing.T) {
	isolate(t)
	res := runCLI(t, hiawathaSettings+"\nFROM his shoulder Hiawatha\n",
		"--log-level", "debug", "--log-format", "json", testdata("default.conf"))
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "QVPQS OKOIL PUBKJ ZPISF XDW\n", res.stdout)
	assert.Contains(t, res.stderr, `"msg":"line converted"`)
	assert.NotContains(t, res.stderr, "HIAWATHA", "message text must not be logged")
}

func TestJournalAndHistory(t *testing.T) {
	isolate(t)
	db := filepath.Join(t.TempDir(), "journal.db")

	res := runCLI(t, "", "--journal", db, testdata("default.conf"), testdata("hiawatha.in"))
	require.Equal(t, 0, res.code, res.stderr)

	res = runCLI(t, "", "history", "--journal", db)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "SESSION")
	assert.Contains(t, res.stdout, "default.conf")

	j, err := journal.Open(db)
	require.NoError(t, err)
	sessions, err := j.Sessions(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.Len(t, sessions, 1)
	assert.Equal(t, 8, sessions[0].Entries)

	res = runCLI(t, "", "history", "--journal", db, "--session", sessions[0].ID.String())
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "AXLE")
	assert.Contains(t, res.stdout, "HQGFA VJFWU MRBLP VNKUG UAG")

	res = runCLI(t, "", "history", "--journal", db, "--session", "not-a-uuid")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "bad session id")
}

func TestHistoryWithoutJournal(t *testing.T) {
	isolate(t)
	res := runCLI(t, "", "history", "--journal", filepath.Join(t.TempDir(), "none.db"))
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "no journal at")
}

func TestRotors(t *testing.T) {
	isolate(t)
	res := runCLI(t, "", "rotors", testdata("default.conf"))
	require.Equal(t, 0, res.code, res.stderr)

	assert.Contains(t, res.stdout, "5 slots, 3 pawls")
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	// summary, blank, header and twelve rotors
	assert.Len(t, lines, 15)
	assert.Regexp(t, `(?m)^Beta\s+fixed\s+-\s+\(ALBEVFCYODJWUGNMQTZSKPR\)`, res.stdout)
	assert.Regexp(t, `(?m)^VI\s+moving\s+ZM\s+`, res.stdout)
	assert.Regexp(t, `(?m)^B\s+reflector\s+-\s+`, res.stdout)
}

func TestDescribe(t *testing.T) {
	isolate(t)

	res := runCLI(t, "", "describe", "--format", "json", testdata("default.conf"))
	require.Equal(t, 0, res.code, res.stderr)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &doc))
	assert.Equal(t, "A-Z", doc["alphabet"])

	// a converted description drives the machine the same way
	tomlPath := filepath.Join(t.TempDir(), "naval.toml")
	res = runCLI(t, "", "describe", "-o", tomlPath, testdata("default.conf"))
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, readFile(t, tomlPath), "[[rotors]]")

	res = runCLI(t, "", tomlPath, testdata("hiawatha.in"))
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, readFile(t, testdata("hiawatha.out")), res.stdout)

	res = runCLI(t, "", "describe", "--format", "xml", testdata("default.conf"))
	assert.Equal(t, 1, res.code)
}

func TestVersion(t *testing.T) {
	isolate(t)
	res := runCLI(t, "", "version")
	require.Equal(t, 0, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "enigma dev"), res.stdout)
}

func TestDefaultToRun(t *testing.T) {
	root := newRootCmd(newApp(nil, &bytes.Buffer{}, &bytes.Buffer{}))
	tests := []struct {
		args []string
		want []string
	}{
		{nil, nil},
		{[]string{"naval.conf"}, []string{"run", "naval.conf"}},
		{[]string{"naval.conf", "in", "out"}, []string{"run", "naval.conf", "in", "out"}},
		{[]string{"rotors", "naval.conf"}, []string{"rotors", "naval.conf"}},
		{[]string{"help"}, []string{"help"}},
		{[]string{"--group-size", "3", "run"}, []string{"--group-size", "3", "run"}},
		{[]string{"--group-size", "-1", "naval.conf"}, []string{"--group-size", "-1", "run", "naval.conf"}},
		{[]string{"--log-level=debug", "naval.conf"}, []string{"--log-level=debug", "run", "naval.conf"}},
		{[]string{"--config", "c.toml"}, []string{"--config", "c.toml"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, defaultToRun(root, tt.args), "%v", tt.args)
	}
}

func TestWatch(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[watch]\ndebounce_ms = 50\n"), 0600))
	input := filepath.Join(dir, "message.in")
	output := filepath.Join(dir, "message.out")
	require.NoError(t, os.WriteFile(input, []byte(hiawathaSettings+"\nFROM his shoulder Hiawatha\n"), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var stdout, stderr bytes.Buffer
	done := make(chan int, 1)
	go func() {
		done <- execute(ctx, []string{"--config", cfgPath, "watch", testdata("default.conf"), input, output},
			strings.NewReader(""), &stdout, &stderr)
	}()

	waitForFile(t, output, "QVPQS OKOIL PUBKJ ZPISF XDW\n")

	require.NoError(t, os.WriteFile(input, []byte(hiawathaSettings+"\nFROMHISSHOULDER\n"), 0600))
	waitForFile(t, output, "QVPQS OKOIL PUBKJ\n")

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, 0, code, stderr.String())
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func waitForFile(t *testing.T, path, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	var got string
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil {
			got = string(data)
			if got == want {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("%s: want %q, got %q", path, want, got)
}
