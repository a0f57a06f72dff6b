package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"optijpeg/internal/encode"
)

type cliTestEnv struct {
	baseDir     string
	configPath  string
	stagingDir  string
	historyPath string
	binaryPath  string
	argsLog     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub optimizer requires a POSIX shell")
	}

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))

	env := &cliTestEnv{
		baseDir:     base,
		stagingDir:  filepath.Join(base, "staging"),
		historyPath: filepath.Join(base, "history.db"),
		argsLog:     filepath.Join(base, "jpegtran-args.log"),
	}
	env.binaryPath = writeStubJpegtran(t, base, env.argsLog)

	configPath := filepath.Join(homeDir, ".config", "optijpeg", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	env.configPath = configPath
	writeTestConfig(t, configPath, env.binaryPath, env)

	return env
}

func writeTestConfig(t *testing.T, path, binary string, env *cliTestEnv) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
staging_dir = %q
log_dir = %q

[jpegtran]
binary = %q
timeout_seconds = 30

[history]
enabled = true
path = %q

[logging]
format = "json"
level = "error"
`,
		env.stagingDir,
		filepath.Join(env.baseDir, "logs"),
		binary,
		env.historyPath,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// writeStubJpegtran installs a shell script that mimics jpegtran: it appends
// its argument vector to argsLog, then copies the trailing input argument to
// the -outfile path.
func writeStubJpegtran(t *testing.T, base, argsLog string) string {
	t.Helper()
	script := fmt.Sprintf(`#!/bin/sh
printf '%%s\n' "$*" >> %q
out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-outfile" ]; then
    out="$arg"
  fi
  prev="$arg"
done
cp "$prev" "$out"
`, argsLog)
	return writeStubScript(t, base, "jpegtran", script)
}

// writeFailingJpegtran installs a stub that always exits with status 2.
func writeFailingJpegtran(t *testing.T, base string) string {
	t.Helper()
	script := "#!/bin/sh\necho \"Not a JPEG file: starts with 0x00 0x00\" >&2\nexit 2\n"
	return writeStubScript(t, base, "jpegtran-failing", script)
}

func writeStubScript(t *testing.T, base, name, script string) string {
	t.Helper()
	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	path := filepath.Join(binDir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeTestJPEG writes a small color JPEG whose pixels are not neutral.
func writeTestJPEG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(10 + x*12), G: uint8(40 + y*10), B: 160, A: 255})
		}
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()
	opts := encode.Options{Quality: 90, Subsampling: encode.Subsampling420, CopyMode: encode.CopyComments}
	if err := encode.WriteIntermediate(file, img, opts); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// writeGrayTestPNG writes a PNG whose pixels all satisfy R==G==B. PNG keeps
// the channels exact, so loading it back detects grayscale deterministically.
func writeGrayTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			level := uint8(20 + x*8 + y*4)
			img.SetRGBA(x, y, color.RGBA{R: level, G: level, B: level, A: 255})
		}
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func readArgsLog(t *testing.T, env *cliTestEnv) []string {
	t.Helper()
	data, err := os.ReadFile(env.argsLog)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read args log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	return lines
}

func stagingLeftovers(t *testing.T, env *cliTestEnv) []string {
	t.Helper()
	entries, err := os.ReadDir(env.stagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read staging dir: %v", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q to not contain %q", output, substr)
	}
}
