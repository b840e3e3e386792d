/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/querystudy/utils"
)

// Logger is the key/value logger of the connection, migration and seeding
// code. Fields alternate between keys and values.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	// With returns a logger that adds fields to every message.
	With(fields ...interface{}) Logger
}

var (
	packageLogger     Logger
	packageLoggerOnce sync.Once
)

// GetLogger returns the package logger, writing through the "DATABASE"
// logrus logger of the utils registry.
func GetLogger() Logger {
	packageLoggerOnce.Do(func() {
		packageLogger = NewLogger(utils.GetLogger("DATABASE"))
	})
	return packageLogger
}

type entryLogger struct {
	entry *logrus.Entry
}

// NewLogger adapts a logrus logger.
func NewLogger(l *logrus.Logger) Logger {
	return entryLogger{entry: logrus.NewEntry(l)}
}

func (l entryLogger) Debug(msg string, fields ...interface{}) { l.with(fields).Debug(msg) }
func (l entryLogger) Info(msg string, fields ...interface{})  { l.with(fields).Info(msg) }
func (l entryLogger) Warn(msg string, fields ...interface{})  { l.with(fields).Warn(msg) }
func (l entryLogger) Error(msg string, fields ...interface{}) { l.with(fields).Error(msg) }

func (l entryLogger) With(fields ...interface{}) Logger {
	return entryLogger{entry: l.with(fields)}
}

// with drops a trailing key that has no value.
func (l entryLogger) with(fields []interface{}) *logrus.Entry {
	if len(fields) < 2 {
		return l.entry
	}
	data := make(logrus.Fields, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		data[fmt.Sprint(fields[i])] = fields[i+1]
	}
	return l.entry.WithFields(data)
}
