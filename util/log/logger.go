package log

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

const (
	LevelInfo = iota
	LevelWarn
	LevelError
	LevelDebug

	PrefixError = "\033[31m[ERROR]\033[0m \u001B[34m"
	PrefixWarn  = "\033[33m[WARN]\033[0m \u001B[34m"
	PrefixInfo  = "\033[32m[INFO]\033[0m \u001B[34m"
	PrefixDebug = "\033[36m[DEBUG]\033[0m \u001B[34m"
)

var (
	prefixs      = []string{PrefixInfo, PrefixWarn, PrefixError, PrefixDebug}
	levelNames   = []string{"info", "warn", "error", "debug"}
	globalLogger = NewLogger(LevelDebug, os.Stdout)
)

// Logger keeps one stdlib logger per level; levels above the configured one
// write to io.Discard.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	level   int
	loggers []*log.Logger
}

func NewLogger(level int, out io.Writer) *Logger {
	if level < 0 {
		panic(errors.New("invalid log level"))
	}
	l := &Logger{out: out}
	l.setLevel(level)
	return l
}

// ParseLevel maps a level name (info, warn, error, debug) to its level.
func ParseLevel(name string) (int, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	for i, n := range levelNames {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("invalid log level %q", name)
}

func (l *Logger) setLevel(level int) {
	if level > LevelDebug {
		level = LevelDebug
	}
	l.level = level
	l.loggers = make([]*log.Logger, LevelDebug+1)
	i := 0
	for ; i <= level; i++ {
		if i == LevelInfo {
			l.loggers[i] = log.New(l.out, prefixs[i], log.LstdFlags)
		} else {
			l.loggers[i] = log.New(l.out, prefixs[i], log.LstdFlags|log.Lshortfile)
		}
	}
	for ; i <= LevelDebug; i++ {
		l.loggers[i] = log.New(io.Discard, "", 0)
	}
}

func (l *Logger) SetLevel(level int) {
	if level < 0 {
		panic(errors.New("invalid log level"))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setLevel(level)
}

func (l *Logger) Level() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *Logger) logger(level int) *log.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loggers[level]
}

// calldepth 3: output <- Logger method <- caller (or package func <- caller)
func (l *Logger) output(level int, depth int, msg string) {
	_ = l.logger(level).Output(depth, "\033[0m"+msg)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.output(LevelInfo, 3, fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.output(LevelWarn, 3, fmt.Sprintf(format, args...))
}

func (l *Logger) Error(err error) {
	l.output(LevelError, 3, err.Error())
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.output(LevelError, 3, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.output(LevelDebug, 3, fmt.Sprintf(format, args...))
}

func (l *Logger) SetOutput(out io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = out
	l.setLevel(l.level)
}

func Info(format string, args ...interface{}) {
	globalLogger.output(LevelInfo, 3, fmt.Sprintf(format, args...))
}

func Warn(format string, args ...interface{}) {
	globalLogger.output(LevelWarn, 3, fmt.Sprintf(format, args...))
}

func Error(err error) {
	globalLogger.output(LevelError, 3, err.Error())
}

func Errorf(format string, args ...interface{}) {
	globalLogger.output(LevelError, 3, fmt.Sprintf(format, args...))
}

func Debug(format string, args ...interface{}) {
	globalLogger.output(LevelDebug, 3, fmt.Sprintf(format, args...))
}

func SetOutput(out io.Writer) {
	globalLogger.SetOutput(out)
}

func SetLevel(level int) {
	globalLogger.SetLevel(level)
}
