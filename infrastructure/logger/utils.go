package logger

import (
	"time"
)

// LogAndMeasureExecutionTime logs that functionName started and returns a
// function that logs how long it took. Use it as `defer onEnd()`.
func LogAndMeasureExecutionTime(log *Logger, functionName string) (onEnd func()) {
	return LogAndMeasureSlowExecution(log, functionName, 0)
}

// LogAndMeasureSlowExecution behaves like LogAndMeasureExecutionTime, but
// escalates the end line to a warning once the call took longer than
// slowThreshold. A zero slowThreshold never escalates.
func LogAndMeasureSlowExecution(log *Logger, functionName string, slowThreshold time.Duration) (onEnd func()) {
	start := time.Now()
	log.Debugf("%s start", functionName)
	return func() {
		took := time.Since(start)
		if slowThreshold > 0 && took > slowThreshold {
			log.Warnf("%s took %s, above the expected %s", functionName, took, slowThreshold)
			return
		}
		log.Debugf("%s end. Took: %s", functionName, took)
	}
}
