package joblog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFixed(t *testing.T, ts time.Time) *Log {
	t.Helper()
	l := Open(filepath.Join(t.TempDir(), "execution_log.txt"))
	l.now = func() time.Time { return ts }
	return l
}

func TestPrintf_EntryFormat(t *testing.T) {
	l := openFixed(t, time.Date(2024, 1, 2, 9, 0, 5, 0, time.UTC))

	l.Printf("Starting automation job...")
	l.Printf("Located latest artifact: %s", "2024-01-02")

	data, err := os.ReadFile(l.path)
	require.NoError(t, err)
	assert.Equal(t,
		"[2024-01-02 09:00:05] Starting automation job...\n"+
			"[2024-01-02 09:00:05] Located latest artifact: 2024-01-02\n",
		string(data))
}

func TestTail(t *testing.T) {
	l := openFixed(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))
	for i := 1; i <= 5; i++ {
		l.Printf("entry %d", i)
	}

	lines, err := l.Tail(2)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "[2024-01-02 09:00:00] entry 4", lines[0])
	assert.Equal(t, "[2024-01-02 09:00:00] entry 5", lines[1])
}

func TestTail_FewerEntriesThanRequested(t *testing.T) {
	l := openFixed(t, time.Now())
	l.Printf("only one")

	lines, err := l.Tail(50)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestTail_MissingFile(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "never-written.txt"))

	lines, err := l.Tail(10)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestPrintf_ConcurrentWritersKeepLinesIntact(t *testing.T) {
	l := openFixed(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Printf("entry %d", i)
		}(i)
	}
	wg.Wait()

	lines, err := l.Tail(0)
	require.NoError(t, err)
	require.Len(t, lines, 20)
	for _, line := range lines {
		assert.Regexp(t, `^\[2024-01-02 09:00:00\] entry \d+$`, line)
	}
}

func ExampleLog_Printf() {
	l := Open(filepath.Join(os.TempDir(), fmt.Sprintf("joblog-example-%d.txt", os.Getpid())))
	defer os.Remove(l.path)
	l.now = func() time.Time { return time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC) }

	l.Printf("Email sent successfully")
	lines, _ := l.Tail(1)
	fmt.Println(lines[0])
	// Output: [2024-01-02 09:00:00] Email sent successfully
}
