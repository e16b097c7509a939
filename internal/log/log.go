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

// EnvLevel names the environment variable that overrides the log level.
const EnvLevel = "PAGECACHE_LOG"

// InitLogger installs a LineHandler on the global apex logger. The level
// comes from PAGECACHE_LOG, then fallback, then "info".
func InitLogger(fallback string) {
	level := os.Getenv(EnvLevel)
	if level == "" {
		level = fallback
	}
	if level == "" {
		level = "info"
	}

	log.SetHandler(NewLineHandler(os.Stderr))

	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		log.SetLevel(log.InfoLevel)
		log.Warnf("unknown log level %q, using info", level)
		return
	}
	log.SetLevel(lvl)
}

// LineHandler writes one line per entry: timestamp, level initial, message
// and the fields sorted by name.
type LineHandler struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

func NewLineHandler(w io.Writer) *LineHandler {
	return &LineHandler{out: w, now: time.Now}
}

// HandleLog implements the log.Handler interface
func (h *LineHandler) HandleLog(e *log.Entry) error {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", h.now().Format("2006-01-02 15:04:05"), strings.ToUpper(e.Level.String()), e.Message)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields[name])
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}
