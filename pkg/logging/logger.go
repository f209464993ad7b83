// pkg/logging/logger.go
package logging

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/logging"
)

// Logger оборачивает Cloud Logging и даёт printf-методы по уровням.
// Без заданного проекта записи уходят только в стандартный лог процесса.
type Logger struct {
	client *logging.Client
	cloud  *logging.Logger
}

// New инициализирует клиента Cloud Logging для проекта. Пустой projectID —
// допустимый режим (локальный запуск), логи пишутся лишь в stderr.
func New(projectID, logName string) (*Logger, error) {
	if projectID == "" {
		return &Logger{}, nil
	}
	client, err := logging.NewClient(context.Background(), projectID)
	if err != nil {
		return nil, err
	}
	return &Logger{client: client, cloud: client.Logger(logName)}, nil
}

func (l *Logger) logf(severity logging.Severity, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.cloud != nil {
		l.cloud.Log(logging.Entry{Severity: severity, Payload: msg})
	}
	log.Printf("%s: %s", severity, msg)
}

// Infof пишет информационную запись.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logf(logging.Info, format, args...)
}

// Warningf пишет предупреждение.
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.logf(logging.Warning, format, args...)
}

// Errorf пишет запись об ошибке.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logf(logging.Error, format, args...)
}

// Flush сбрасывает буферизованные записи перед завершением процесса.
func (l *Logger) Flush() {
	if l.cloud != nil {
		l.cloud.Flush()
	}
	if l.client != nil {
		l.client.Close()
	}
}
