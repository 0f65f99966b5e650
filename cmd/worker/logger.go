package main

import "github.com/rs/zerolog"

// asynqLogger adapts zerolog to the asynq logging interface.
type asynqLogger struct {
	logger zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.logger.Debug().Msgf("%v", args) }
func (l asynqLogger) Info(args ...interface{})  { l.logger.Info().Msgf("%v", args) }
func (l asynqLogger) Warn(args ...interface{})  { l.logger.Warn().Msgf("%v", args) }
func (l asynqLogger) Error(args ...interface{}) { l.logger.Error().Msgf("%v", args) }
func (l asynqLogger) Fatal(args ...interface{}) { l.logger.Fatal().Msgf("%v", args) }
