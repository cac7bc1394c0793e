package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// RecordingScript behaves like an ffmpeg capture: it writes the output file
// named by its final argument and exits once stdin reaches EOF.
const RecordingScript = `for last; do :; done
case " $* " in
  *" -vframes "*) printf 'jpeg' > "$last"; exit 0 ;;
esac
printf 'ftyp' > "$last"
cat > /dev/null
exit 0
`

// FailingScript exits immediately with an ffmpeg-like error on stderr.
const FailingScript = `echo "Server returned 404 Not Found" >&2
exit 1
`

// StubbornScript ignores the stdin quit request and has to be killed.
const StubbornScript = `trap '' INT TERM
while true; do sleep 1; done
`

// WriteStubFFmpeg writes a /bin/sh script named ffmpeg into dir and returns its
// path. Tests calling it are skipped on Windows.
func WriteStubFFmpeg(t testing.TB, dir, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require /bin/sh")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir stub dir: %v", err)
	}
	path := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub ffmpeg: %v", err)
	}
	return path
}
