package main

import (
	"fmt"

	"leakhound/internal/platform/logger"
)

// logProgress writes pipeline milestones through the process logger.
// zerolog loggers are safe for concurrent use so no locking is needed here
type logProgress struct {
	log *logger.Logger
}

func (p logProgress) Phase(name string) {
	p.log.Info().Msg(name)
}

func (p logProgress) Info(format string, args ...any) {
	p.log.Info().Msg(fmt.Sprintf(format, args...))
}

func (p logProgress) Warn(format string, args ...any) {
	p.log.Warn().Msg(fmt.Sprintf(format, args...))
}

func (p logProgress) Error(format string, args ...any) {
	p.log.Error().Msg(fmt.Sprintf(format, args...))
}
