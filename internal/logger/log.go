package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

type LogStatus int

const (
	VERBOSE LogStatus = iota
	DEBUG
	INFO
	SUCCESS
	NEW
	REMOVE
	STOP
	WARNING
	ERROR
	FATAL
)

func (e LogStatus) String() string {
	return []string{
		"V",
		"D",
		"I",
		"✓",
		"+",
		"-",
		"X",
		"!",
		"!!",
		"PANIC",
	}[e]
}

func (e LogStatus) Color() *color.Color {
	return []*color.Color{
		color.New(color.FgWhite, color.Italic),                //Verbose
		color.New(color.FgWhite, color.Italic),                //Debug
		color.New(color.FgWhite),                              //Info
		color.New(color.FgHiGreen),                            //Success
		color.New(color.FgGreen, color.Italic),                //New
		color.New(color.FgYellow, color.Italic),               //Remove
		color.New(color.FgHiYellow),                           //Stop
		color.New(color.FgYellow, color.Underline),            //Warning
		color.New(color.FgHiRed, color.Bold),                  //Error
		color.New(color.FgHiRed, color.Bold, color.Underline), //PANIC
	}[e]
}

// ParseLevel maps a LOG_LEVEL string onto a LogStatus, defaulting to INFO.
func ParseLevel(level string) LogStatus {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "verbose", "trace":
		return VERBOSE
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARNING
	case "error":
		return ERROR
	default:
		return INFO
	}
}

type Logger interface {
	Emit(LogStatus, string, ...interface{})
}

type loggerImpl struct {
	name string
}

func (l *loggerImpl) Emit(status LogStatus, message string, interpolations ...interface{}) {
	Log.Emit(status, l.name, message, interpolations...)
}

type LoggerManager interface {
	GetLogger(string) Logger
	Emit(LogStatus, string, string, ...interface{})
	SetMinStatus(LogStatus)
	SetOutput(io.Writer)
}

var Log LoggerManager = &loggerMgr{
	minStatus: INFO,
}

type loggerMgr struct {
	mu        sync.Mutex
	offset    int
	minStatus LogStatus
	out       io.Writer
}

func (l *loggerMgr) GetLogger(name string) Logger {
	return &loggerImpl{name: name}
}

func (l *loggerMgr) SetMinStatus(status LogStatus) {
	l.mu.Lock()
	l.minStatus = status
	l.mu.Unlock()
}

// SetOutput redirects log lines; nil restores the colored terminal output.
func (l *loggerMgr) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

func (l *loggerMgr) Emit(status LogStatus, name string, message string, interpolations ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if status < l.minStatus {
		return
	}

	if len(name) > l.offset {
		l.offset = len(name)
	}
	padding := strings.Repeat(" ", l.offset-len(name))
	msg := fmt.Sprintf("[%s] %s(%s) %s", name, padding, status, fmt.Sprintf(message, interpolations...))
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}

	if l.out != nil {
		io.WriteString(l.out, msg)
		return
	}
	status.Color().Fprint(color.Output, msg)
}

func Get(name string) Logger {
	return Log.GetLogger(name)
}
