package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalidRecord = errors.New("invalid timer record")

const recordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["isRunning", "sessionType", "justCompleted"],
  "properties": {
    "isRunning": {"type": "boolean"},
    "timeLeft": {"type": "number"},
    "sessionType": {"enum": ["", "work", "shortBreak", "longBreak"]},
    "justCompleted": {"type": "boolean"},
    "currentTaskId": {"type": "string"},
    "startedAt": {"type": ["number", "null"]},
    "pausedAt": {"type": ["number", "null"]},
    "taskComplete": {"type": "boolean"},
    "completedAt": {"type": ["number", "null"]},
    "overtimeAcknowledged": {"type": "boolean"},
    "currentSession": {
      "oneOf": [
        {"type": "null"},
        {
          "type": "object",
          "required": ["id", "taskId", "started", "duration", "type"],
          "properties": {
            "id": {"type": "string", "minLength": 1},
            "taskId": {"type": "string", "minLength": 1},
            "started": {"type": "integer", "minimum": 0},
            "ended": {"type": ["integer", "null"]},
            "duration": {"type": "integer", "minimum": 0, "maximum": 1440},
            "type": {"enum": ["work", "shortBreak", "longBreak"]},
            "completed": {"type": "boolean"}
          }
        }
      ]
    },
    "overtimeAutoPaused": {
      "oneOf": [
        {"type": "null"},
        {
          "type": "object",
          "required": ["sessionType", "triggeredAt", "overtimeSeconds"],
          "properties": {
            "sessionType": {"enum": ["work", "shortBreak", "longBreak"]},
            "triggeredAt": {"type": "integer"},
            "overtimeSeconds": {"type": "integer", "minimum": 0}
          }
        }
      ]
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(recordSchema)

func validate(raw []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(problems, "; "))
}
