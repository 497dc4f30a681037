package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// LevelEnv names the variable holding the log level for binaries.
const LevelEnv = "RESPCACHE_LOG"

// Init sets up apex/log with a CustomHandler writing to stderr and a log
// level taken from RESPCACHE_LOG. An unknown level falls back to ERROR.
func Init() {
	InitWithWriter(os.Stderr)
}

// InitWithWriter is Init with a caller supplied destination.
func InitWithWriter(w io.Writer) {
	log.SetHandler(NewCustomHandler(w))

	level, err := log.ParseLevel(strings.ToLower(os.Getenv(LevelEnv)))
	if err != nil {
		level = log.ErrorLevel
	}
	log.SetLevel(level)
}

// CustomHandler formats entries as one line each: timestamp, level initial,
// message, then the entry fields sorted by name.
type CustomHandler struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewCustomHandler returns a handler writing to w.
func NewCustomHandler(w io.Writer) *CustomHandler {
	return &CustomHandler{w: w, now: time.Now}
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := h.now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp, level, e.Message)

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields[name])
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}
