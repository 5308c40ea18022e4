package auditlog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestRecord_WritesOneLinePerRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	l.Record("127.0.0.1:9999@Server:50000", "Authentication attempt", StatusSucceeded, "User identified as [bob]")
	l.Record("Server:50000", "Server socket closing", StatusIgnored, "")
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines; want 2:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[0], "Authentication attempt") ||
		!strings.Contains(lines[0], "SUCCEEDED") ||
		!strings.Contains(lines[0], "User identified as [bob]") {
		t.Errorf("first line missing fields: %q", lines[0])
	}
	if !strings.Contains(lines[1], "IGNORED") {
		t.Errorf("second line missing status: %q", lines[1])
	}
	if strings.Contains(lines[1], "detail") {
		t.Errorf("empty detail must be omitted: %q", lines[1])
	}
}

func TestRecord_ConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				l.Record("client", "Requested search for contact number 1", StatusSucceeded, "")
			}
		}()
	}
	wg.Wait()
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != writers*perWriter {
		t.Fatalf("got %d lines; want %d", len(lines), writers*perWriter)
	}
	for _, line := range lines {
		if !strings.Contains(line, "Requested search for contact number 1") {
			t.Fatalf("interleaved or torn line: %q", line)
		}
	}
}
